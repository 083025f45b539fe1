package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptRepository counts failed logins in Redis. Each key expires a
// window after its first failure. A nil client counts nothing.
type LoginAttemptRepository struct {
	client *redis.Client
	prefix string
}

// NewLoginAttemptRepository constructs a counter storing keys under prefix.
func NewLoginAttemptRepository(client *redis.Client, prefix string) *LoginAttemptRepository {
	if prefix == "" {
		prefix = "login_attempts:"
	}
	return &LoginAttemptRepository{client: client, prefix: prefix}
}

// Count returns the current number of failures recorded for key.
func (r *LoginAttemptRepository) Count(ctx context.Context, key string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	n, err := r.client.Get(ctx, r.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get attempts: %w", err)
	}
	return n, nil
}

// Increment records one failure and returns the new total.
func (r *LoginAttemptRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	fullKey := r.prefix + key
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr attempts: %w", err)
	}
	return incr.Val(), nil
}

// Reset clears the failures recorded for key.
func (r *LoginAttemptRepository) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis reset attempts: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *LoginAttemptRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
