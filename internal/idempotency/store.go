// Package idempotency de-duplicates gateway payment callbacks.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hosting-storefront/internal/repository"
)

// Store claims a payment id. MarkProcessed returns true only for the first caller;
// Release gives the claim back when processing failed and may be retried.
type Store interface {
	MarkProcessed(ctx context.Context, provider, paymentID string) (bool, error)
	Release(ctx context.Context, provider, paymentID string) error
}

func key(provider, paymentID string) string {
	return provider + ":" + paymentID
}

// DBStore keeps claims in the payment_events table.
type DBStore struct {
	events repository.PaymentEventRepository
	ttl    time.Duration
}

func NewDBStore(events repository.PaymentEventRepository, ttl time.Duration) *DBStore {
	return &DBStore{events: events, ttl: ttl}
}

func (s *DBStore) MarkProcessed(ctx context.Context, provider, paymentID string) (bool, error) {
	ok, err := s.events.MarkProcessed(ctx, key(provider, paymentID), provider, s.ttl)
	if err != nil {
		return false, fmt.Errorf("record payment event: %w", err)
	}
	return ok, nil
}

func (s *DBStore) Release(ctx context.Context, provider, paymentID string) error {
	if err := s.events.Delete(ctx, key(provider, paymentID)); err != nil {
		return fmt.Errorf("release payment event: %w", err)
	}
	return nil
}

// RedisStore shares claims across instances with SETNX.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: "storefront:payment:",
		ttl:       ttl,
	}
}

func (s *RedisStore) MarkProcessed(ctx context.Context, provider, paymentID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key(provider, paymentID), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark payment processed: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, provider, paymentID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key(provider, paymentID)).Err(); err != nil {
		return fmt.Errorf("release payment key: %w", err)
	}
	return nil
}

var (
	_ Store = (*DBStore)(nil)
	_ Store = (*RedisStore)(nil)
)
