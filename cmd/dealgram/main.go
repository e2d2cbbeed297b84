package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"dealgram/internal/bot"
	"dealgram/internal/config"
	"dealgram/internal/observe"
	"dealgram/internal/process"
	"dealgram/internal/rewrite"
	"dealgram/internal/storage"
	"dealgram/internal/web"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"source_channel_id":      cfg.SourceChannelID,
		"destination_channel_id": cfg.DestinationChannelID,
		"dedupe_backend":         cfg.DedupeBackend,
	}).Info("Configuration loaded successfully")

	// --- Initialize Components ---
	log.Info("Initializing components...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dedupe store
	repo, err := newRepository(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize dedupe store: %v", err)
	}
	defer func() {
		log.Info("Closing dedupe store...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing dedupe store")
		}
	}()

	// Observers
	observe.Register(prometheus.DefaultRegisterer)
	stats := observe.NewStats()
	observer := observe.Multi{
		observe.NewLogObserver(log),
		observe.NewMetricsObserver(),
		stats,
	}

	// Link rewriter
	resolver := rewrite.NewHTTPResolver(cfg.ResolveTimeout, log)
	rewriter := rewrite.New(resolver, cfg.AffiliateTag, cfg.CanonicalHost, log)

	// Telegram client, sender, processor, handler
	b, err := tgbot.New(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot instance: %v", err)
	}

	var sender process.Sender = bot.NewSender(b, log)
	if cfg.SendRetries > 0 {
		sender = bot.NewRetrySender(sender, bot.DefaultRetryPolicy(uint64(cfg.SendRetries)), log)
	}

	processor := process.New(rewriter, repo, sender, observer, cfg.DestinationChannelID, log)
	botHandler := bot.NewHandler(b, cfg, processor, log)

	// Health/metrics server
	server := web.New(cfg.ListenAddr, stats, log)

	// --- Application Startup ---
	log.Info("Starting Dealgram...")

	go botHandler.Start(ctx)
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Error("HTTP server stopped unexpectedly")
			stop()
		}
	}()

	log.Info("Dealgram is running. Press Ctrl+C to exit.")

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down Dealgram...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	log.Info("Dealgram shut down gracefully.")
}

// newRepository builds the configured dedupe store.
func newRepository(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.Repository, error) {
	switch cfg.DedupeBackend {
	case config.BackendBadger:
		repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, cfg.DedupeTTL, log)
		if err != nil {
			return nil, err
		}
		go repo.RunGC(ctx, 5*time.Minute)
		return repo, nil
	case config.BackendRedis:
		return storage.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.DedupeTTL, log)
	case config.BackendMemory:
		return storage.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown dedupe backend %q", cfg.DedupeBackend)
	}
}
