// Package codes implements the code-indirection cache: short-lived opaque
// codes that stand in for (provider, product) pairs. Search results and
// bookings are addressed by these codes so provider identity and native
// identifiers never cross the client boundary.
package codes

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Entry maps an opaque code back to the provider and product that produced
// it. One entry is written per normalization event; both the provider-shaped
// and client-shaped snapshots are kept for later calls.
type Entry struct {
	Code      string              `json:"code"`
	Provider  string              `json:"provider"`
	NativeID  string              `json:"native_id"`
	Type      types.ProductType   `json:"type"`
	Price     decimal.Decimal     `json:"price"`
	Currency  string              `json:"currency"`
	Raw       providers.Product   `json:"raw"`
	Product   types.ClientProduct `json:"product"`
	CreatedAt time.Time           `json:"created_at"`
}

// BookingEntry maps an opaque booking reference to the provider locator
// needed for cancellation.
type BookingEntry struct {
	Ref       string    `json:"ref"`
	Provider  string    `json:"provider"`
	Locator   string    `json:"locator"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists entries for a bounded retention window. Implementations must
// support concurrent writers on disjoint keys and concurrent readers;
// per-key atomicity is sufficient.
type Store interface {
	PutEntry(ctx context.Context, e Entry, ttl time.Duration) error
	GetEntry(ctx context.Context, code string) (*Entry, bool, error)

	PutVariants(ctx context.Context, code, date string, vs []types.Variant, ttl time.Duration) error
	GetVariants(ctx context.Context, code, date string) ([]types.Variant, bool, error)

	PutBooking(ctx context.Context, b BookingEntry, ttl time.Duration) error
	GetBooking(ctx context.Context, ref string) (*BookingEntry, bool, error)

	Close() error
}

// codeBytes is the entropy of one opaque code. 8 random bytes (16 hex chars)
// keeps collision probability negligible over the retention window while
// staying short enough for URLs.
const codeBytes = 8

// NewCode mints a new opaque code from a cryptographically-sound source.
// Codes are not guessable or enumerable across providers.
func NewCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Cache is the code-indirection cache over a Store. Entries live for a single
// TTL covering the longest plausible client session (search, details,
// variants, book) plus margin.
type Cache struct {
	store Store
	ttl   time.Duration
}

// NewCache creates a Cache retaining entries for ttl.
func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Put stores one entry under its code.
func (c *Cache) Put(ctx context.Context, e Entry) error {
	if e.Code == "" {
		return apperr.Internal("cache entry without code")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return c.store.PutEntry(ctx, e, c.ttl)
}

// Resolve maps a code back to its entry. Unknown or expired codes fail with
// an apperr.KindGone error; the client must re-search for fresh codes.
func (c *Cache) Resolve(ctx context.Context, code string) (*Entry, error) {
	e, ok, err := c.store.GetEntry(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}
	if !ok {
		return nil, apperr.Newf(apperr.KindGone, "unknown or expired code %q", code)
	}
	return e, nil
}

// PutVariants stores the deduplicated variant set for (code, date).
func (c *Cache) PutVariants(ctx context.Context, code, date string, vs []types.Variant) error {
	return c.store.PutVariants(ctx, code, date, vs, c.ttl)
}

// ResolveVariant finds the cached variant with the given variant code for
// (code, date). Fails with apperr.KindGone when the set was never cached or
// has expired, or when the variant code is not in the set.
func (c *Cache) ResolveVariant(ctx context.Context, code, date, variantCode string) (*types.Variant, error) {
	vs, ok, err := c.store.GetVariants(ctx, code, date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve variants: %w", err)
	}
	if !ok {
		return nil, apperr.Newf(apperr.KindGone, "no variants cached for code %q on %s", code, date)
	}
	for _, v := range vs {
		if v.Code == variantCode {
			return &v, nil
		}
	}
	return nil, apperr.Newf(apperr.KindGone, "unknown variant %q for code %q on %s", variantCode, code, date)
}

// PutBooking stores a booking reference entry.
func (c *Cache) PutBooking(ctx context.Context, b BookingEntry) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	return c.store.PutBooking(ctx, b, c.ttl)
}

// ResolveBooking maps an opaque booking reference back to its entry.
func (c *Cache) ResolveBooking(ctx context.Context, ref string) (*BookingEntry, error) {
	b, ok, err := c.store.GetBooking(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve booking ref: %w", err)
	}
	if !ok {
		return nil, apperr.Newf(apperr.KindGone, "unknown or expired booking ref %q", ref)
	}
	return b, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}
