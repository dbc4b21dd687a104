package codes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripmesh/inventory/internal/search/types"
)

// Key prefixes. Codes are random, so a flat namespace per entry family is
// enough; the TTL is applied per key by Redis itself.
const (
	entryPrefix    = "inv:entry:"
	variantsPrefix = "inv:variants:"
	bookingPrefix  = "inv:booking:"
)

// RedisStore is the shared Store for multi-instance deployments. Entries are
// JSON values with Redis-managed expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore on the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// PutEntry stores an entry under its code.
func (s *RedisStore) PutEntry(ctx context.Context, e Entry, ttl time.Duration) error {
	return s.put(ctx, entryPrefix+e.Code, e, ttl)
}

// GetEntry retrieves a live entry by code.
func (s *RedisStore) GetEntry(ctx context.Context, code string) (*Entry, bool, error) {
	var e Entry
	ok, err := s.get(ctx, entryPrefix+code, &e)
	if err != nil || !ok {
		return nil, false, err
	}
	return &e, true, nil
}

// PutVariants stores the variant set for (code, date).
func (s *RedisStore) PutVariants(ctx context.Context, code, date string, vs []types.Variant, ttl time.Duration) error {
	return s.put(ctx, variantsPrefix+variantKey(code, date), vs, ttl)
}

// GetVariants retrieves the variant set for (code, date).
func (s *RedisStore) GetVariants(ctx context.Context, code, date string) ([]types.Variant, bool, error) {
	var vs []types.Variant
	ok, err := s.get(ctx, variantsPrefix+variantKey(code, date), &vs)
	if err != nil || !ok {
		return nil, false, err
	}
	return vs, true, nil
}

// PutBooking stores a booking reference entry.
func (s *RedisStore) PutBooking(ctx context.Context, b BookingEntry, ttl time.Duration) error {
	return s.put(ctx, bookingPrefix+b.Ref, b, ttl)
}

// GetBooking retrieves a live booking entry by reference.
func (s *RedisStore) GetBooking(ctx context.Context, ref string) (*BookingEntry, bool, error) {
	var b BookingEntry
	ok, err := s.get(ctx, bookingPrefix+ref, &b)
	if err != nil || !ok {
		return nil, false, err
	}
	return &b, true, nil
}

func (s *RedisStore) put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
