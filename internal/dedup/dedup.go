// Package dedup implements the Redis-backed idempotency cache that
// keeps pre-pickup notifications from firing twice for the same order.
package dedup

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brokerlink/loadsync/internal/constants"
)

const keyPrefix = "prepickup:"

// Store tracks which orders have already been called. A nil Store is
// valid and means deduplication is disabled: checks fail open and marks
// are dropped, so a missing or broken Redis never blocks notifications.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

type options struct {
	ttl time.Duration
}

// Options represents an optional function to override Store default values.
type Options func(*options)

// WithTTL overrides the default record lifetime.
func WithTTL(d time.Duration) Options {
	return func(o *options) {
		o.ttl = d
	}
}

// New connects to Redis at the given URL and verifies the connection.
// An empty URL returns a nil Store without error.
func New(ctx context.Context, url string, args ...Options) (*Store, error) {
	if url == "" {
		slog.Warn("No Redis URL configured, deduplication disabled")
		return nil, nil
	}

	opts := options{
		ttl: constants.DefaultDedupTTL,
	}
	for _, opt := range args {
		opt(&opts)
	}

	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Store{rdb: rdb, ttl: opts.ttl}, nil
}

type record struct {
	CalledAt   string `json:"called_at"`
	PickupTime string `json:"pickup_time"`
}

// HasBeenCalled reports whether the order was already notified. Redis
// errors fail open: a broken cache means the call is allowed.
func (s *Store) HasBeenCalled(ctx context.Context, orderID string) bool {
	if s == nil {
		return false
	}

	n, err := s.rdb.Exists(ctx, keyPrefix+orderID).Result()
	if err != nil {
		slog.Warn("Dedup check failed, allowing call", "order", orderID, "err", err)
		return false
	}
	return n > 0
}

// MarkCalled records that the order was notified, with the configured
// TTL. Returns false when the record could not be stored; the caller
// may then notify again next sweep, which is the accepted trade-off.
func (s *Store) MarkCalled(ctx context.Context, orderID, pickupTime string) bool {
	if s == nil {
		return false
	}

	val, err := json.Marshal(record{
		CalledAt:   time.Now().UTC().Format(time.RFC3339),
		PickupTime: pickupTime,
	})
	if err != nil {
		return false
	}

	if err := s.rdb.Set(ctx, keyPrefix+orderID, val, s.ttl).Err(); err != nil {
		slog.Warn("Could not mark order as called", "order", orderID, "err", err)
		return false
	}
	return true
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}
