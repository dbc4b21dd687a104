package codes

import (
	"context"
	"sync"
	"time"

	"github.com/tripmesh/inventory/internal/search/types"
)

// MemoryStore is the in-process Store: a TTL map guarded by an RWMutex with a
// background janitor. Suitable for a single instance; use RedisStore when
// follow-up calls may land on another instance.
type MemoryStore struct {
	entries  *expiringMap[Entry]
	variants *expiringMap[[]types.Variant]
	bookings *expiringMap[BookingEntry]
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its cleanup goroutine.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries:  newExpiringMap[Entry](),
		variants: newExpiringMap[[]types.Variant](),
		bookings: newExpiringMap[BookingEntry](),
		done:     make(chan struct{}),
	}

	// Start background cleanup
	go s.cleanup()

	return s
}

// Close stops the background cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// PutEntry stores an entry under its code.
func (s *MemoryStore) PutEntry(_ context.Context, e Entry, ttl time.Duration) error {
	s.entries.put(e.Code, e, ttl)
	return nil
}

// GetEntry retrieves a live entry by code.
func (s *MemoryStore) GetEntry(_ context.Context, code string) (*Entry, bool, error) {
	e, ok := s.entries.get(code)
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

// PutVariants stores the variant set for (code, date).
func (s *MemoryStore) PutVariants(_ context.Context, code, date string, vs []types.Variant, ttl time.Duration) error {
	s.variants.put(variantKey(code, date), vs, ttl)
	return nil
}

// GetVariants retrieves the variant set for (code, date).
func (s *MemoryStore) GetVariants(_ context.Context, code, date string) ([]types.Variant, bool, error) {
	vs, ok := s.variants.get(variantKey(code, date))
	return vs, ok, nil
}

// PutBooking stores a booking reference entry.
func (s *MemoryStore) PutBooking(_ context.Context, b BookingEntry, ttl time.Duration) error {
	s.bookings.put(b.Ref, b, ttl)
	return nil
}

// GetBooking retrieves a live booking entry by reference.
func (s *MemoryStore) GetBooking(_ context.Context, ref string) (*BookingEntry, bool, error) {
	b, ok := s.bookings.get(ref)
	if !ok {
		return nil, false, nil
	}
	return &b, true, nil
}

// cleanup periodically removes expired values from all maps.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.entries.sweep(now)
			s.variants.sweep(now)
			s.bookings.sweep(now)
		case <-s.done:
			return
		}
	}
}

func variantKey(code, date string) string {
	return code + "|" + date
}

// expiringMap is a TTL map. Writers touch disjoint keys (codes are unique per
// normalization event), so a single RWMutex per map is enough.
type expiringMap[T any] struct {
	mu     sync.RWMutex
	values map[string]expiring[T]
}

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

func newExpiringMap[T any]() *expiringMap[T] {
	return &expiringMap[T]{values: make(map[string]expiring[T])}
}

func (m *expiringMap[T]) put(key string, value T, ttl time.Duration) {
	m.mu.Lock()
	m.values[key] = expiring[T]{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *expiringMap[T]) get(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	v, ok := m.values[key]
	if !ok || time.Now().After(v.expiresAt) {
		return zero, false
	}
	return v.value, true
}

func (m *expiringMap[T]) sweep(now time.Time) {
	m.mu.Lock()
	for key, v := range m.values {
		if now.After(v.expiresAt) {
			delete(m.values, key)
		}
	}
	m.mu.Unlock()
}
