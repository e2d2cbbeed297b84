package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRepository implements Repository on Redis. Insert uses SETNX, so when
// several bot processes share one store the first writer wins and the
// at-most-once invariant holds without any cross-process coordination.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewRedisRepository connects to Redis and verifies the connection with a
// short ping. A non-zero ttl expires forward records after that duration.
func NewRedisRepository(addr, password string, db int, ttl time.Duration, logger logrus.FieldLogger) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.WithField("addr", addr).Info("Connected to Redis")

	return &RedisRepository{
		client: client,
		ttl:    ttl,
		log:    logger.WithField("component", "repository"),
	}, nil
}

func redisKey(channelID int64, messageID int) string {
	return fmt.Sprintf("dealgram:forwarded:%d:%d", channelID, messageID)
}

// Contains checks whether the forward record exists.
func (r *RedisRepository) Contains(ctx context.Context, channelID int64, messageID int) (bool, error) {
	n, err := r.client.Exists(ctx, redisKey(channelID, messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check forward record: %w", err)
	}
	return n > 0, nil
}

// Insert conditionally writes the forward record (SETNX). Losing the race to
// another process is not an error: the record exists either way.
func (r *RedisRepository) Insert(ctx context.Context, channelID int64, messageID int) error {
	key := redisKey(channelID, messageID)
	inserted, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to insert forward record: %w", err)
	}
	if !inserted {
		r.log.WithField("key", key).Debug("Forward record already present")
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
