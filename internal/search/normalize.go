package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tripmesh/inventory/internal/codes"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Normalizer converts provider-shaped results into the client-facing model.
// Every successful normalization mints an opaque code and writes exactly one
// cache entry, so the code is resolvable the moment the product is returned.
type Normalizer struct {
	cache  *codes.Cache
	logger *slog.Logger
}

// NewNormalizer creates a new Normalizer.
func NewNormalizer(cache *codes.Cache, logger *slog.Logger) *Normalizer {
	return &Normalizer{cache: cache, logger: logger}
}

// Normalize converts one provider product. Products with missing identifiers,
// missing names or negative prices are dropped and reported as (nil, nil).
func (n *Normalizer) Normalize(ctx context.Context, p providers.Product, providerName string, pt types.ProductType) (*types.ClientProduct, error) {
	// Drop invalid data
	nativeID := strings.TrimSpace(p.ID)
	if nativeID == "" {
		return nil, nil
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, nil
	}

	if p.Price.IsNegative() {
		return nil, nil
	}

	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = "EUR"
	}

	code, err := codes.NewCode()
	if err != nil {
		return nil, err
	}

	product := types.ClientProduct{
		Code:        code,
		Type:        pt,
		Name:        name,
		Description: p.Description,
		Date:        p.Date,
		Price:       RoundPrice(p.Price),
		Currency:    currency,
		Location: types.Location{
			City:    p.City,
			Country: p.Country,
			Lat:     p.Lat,
			Lng:     p.Lng,
		},
		Categories: p.Categories,
		Images:     p.Images,
		Rating:     p.Rating,
	}

	entry := codes.Entry{
		Code:     code,
		Provider: providerName,
		NativeID: nativeID,
		Type:     pt,
		Price:    product.Price,
		Currency: currency,
		Raw:      p,
		Product:  product,
	}
	if err := n.cache.Put(ctx, entry); err != nil {
		// A product whose code would not resolve must not be returned.
		return nil, err
	}

	return &product, nil
}

// NormalizeVariants converts a provider's time-bucketed variant mapping. The
// bucketed shape is returned as-is for the client; as a side channel, all
// buckets are flattened into one structurally-deduplicated set and persisted
// under (code, date) for later resolution during booking.
func (n *Normalizer) NormalizeVariants(ctx context.Context, code, date string, buckets map[string][]providers.Variant) (map[string][]types.Variant, error) {
	out := make(map[string][]types.Variant, len(buckets))
	seen := make(map[string]struct{})
	var unique []types.Variant

	for bucket, vs := range buckets {
		converted := make([]types.Variant, 0, len(vs))
		for _, v := range vs {
			cv := types.Variant{
				Code:        v.Code,
				Name:        v.Name,
				Description: v.Description,
				Price:       RoundPrice(v.Price),
				Capacity:    v.Capacity,
				Attributes:  v.Attributes,
			}
			converted = append(converted, cv)

			// Dedup across buckets: a variant is booked independently of
			// which time bucket surfaced it.
			if _, ok := seen[cv.Key()]; ok {
				continue
			}
			seen[cv.Key()] = struct{}{}
			unique = append(unique, cv)
		}
		out[bucket] = converted
	}

	if err := n.cache.PutVariants(ctx, code, date, unique); err != nil {
		return nil, err
	}

	n.logger.Debug("cached variants",
		"code", code,
		"date", date,
		"unique", len(unique),
	)

	return out, nil
}

// RoundPrice normalizes a price to 2 decimal places, rounding halves up.
// Business rule: 12.345 becomes 12.35, never 12.34. decimal.Round is
// half-away-from-zero, which is half-up for the non-negative prices that
// survive validation. Idempotent on already-normalized values.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
