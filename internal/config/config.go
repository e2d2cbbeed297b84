package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dedupe store backends.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	TelegramBotToken     string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	SourceChannelID      int64  `mapstructure:"SOURCE_CHANNEL_ID"`
	DestinationChannelID int64  `mapstructure:"DESTINATION_CHANNEL_ID"`

	// AffiliateTag is appended to every rewritten product URL. Mandatory:
	// without it the bot has no reason to run.
	AffiliateTag string `mapstructure:"AFFILIATE_TAG"`

	// CanonicalHost is the host rewritten links point at.
	CanonicalHost string `mapstructure:"CANONICAL_HOST"`

	// ResolveTimeout bounds one short-link redirect fetch.
	ResolveTimeout time.Duration `mapstructure:"RESOLVE_TIMEOUT"`

	// DedupeBackend selects the forward-record store: badger, redis, memory.
	DedupeBackend string        `mapstructure:"DEDUPE_BACKEND"`
	BadgerDBPath  string        `mapstructure:"BADGERDB_PATH"`
	DedupeTTL     time.Duration `mapstructure:"DEDUPE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	// SendRetries is the number of additional delivery attempts on top of
	// the first one. Zero disables the retry wrapper.
	SendRetries int `mapstructure:"SEND_RETRIES"`

	// ListenAddr is the bind address for the health/metrics server.
	ListenAddr string `mapstructure:"LISTEN_ADDR"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// envKeys lists every key so AutomaticEnv picks them up even when no config
// file is present.
var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "SOURCE_CHANNEL_ID", "DESTINATION_CHANNEL_ID",
	"AFFILIATE_TAG", "CANONICAL_HOST", "RESOLVE_TIMEOUT",
	"DEDUPE_BACKEND", "BADGERDB_PATH", "DEDUPE_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"SEND_RETRIES", "LISTEN_ADDR", "LOG_LEVEL",
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("CANONICAL_HOST", "www.amazon.in")
	v.SetDefault("RESOLVE_TIMEOUT", 10*time.Second)
	v.SetDefault("DEDUPE_BACKEND", BackendBadger)
	v.SetDefault("BADGERDB_PATH", "./badger_data")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine as long as the environment provides the
		// required values; only real read failures are errors.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.AffiliateTag == "" {
		return fmt.Errorf("AFFILIATE_TAG is not set")
	}
	if c.SourceChannelID == 0 {
		return fmt.Errorf("SOURCE_CHANNEL_ID is not set")
	}
	if c.DestinationChannelID == 0 {
		return fmt.Errorf("DESTINATION_CHANNEL_ID is not set")
	}
	switch c.DedupeBackend {
	case BackendBadger, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("DEDUPE_BACKEND must be one of badger, redis, memory; got %q", c.DedupeBackend)
	}
	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("RESOLVE_TIMEOUT must be positive, got %v", c.ResolveTimeout)
	}
	if c.SendRetries < 0 {
		return fmt.Errorf("SEND_RETRIES must not be negative, got %d", c.SendRetries)
	}
	return nil
}
