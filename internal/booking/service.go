// Package booking implements the follow-up calls that carry an opaque code:
// details, variants, book and cancel. Every operation resolves the code
// through the indirection cache before touching a provider adapter, and the
// provider's native identifiers never reach a client response.
package booking

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/codes"
	"github.com/tripmesh/inventory/internal/obs"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Recorder receives confirmed reservations for persistence. The booking flow
// treats it as fire-and-forget: a recorder failure is logged, not surfaced,
// because the provider-side booking already exists.
type Recorder interface {
	Record(ctx context.Context, b types.Booking, customer types.Customer) error
}

// LogRecorder is the default Recorder; it only logs confirmations.
type LogRecorder struct {
	Logger *slog.Logger
}

// Record logs the confirmed booking.
func (r *LogRecorder) Record(_ context.Context, b types.Booking, customer types.Customer) error {
	r.Logger.Info("booking recorded",
		"ref", b.Ref,
		"code", b.Code,
		"units", b.Units,
		"customer_email", customer.Email,
	)
	return nil
}

// Service handles code-addressed follow-up operations.
type Service struct {
	registry   *providers.Registry
	cache      *codes.Cache
	normalizer *search.Normalizer
	recorder   Recorder
	metrics    *obs.Metrics
	logger     *slog.Logger
}

// NewService creates a new Service.
func NewService(
	registry *providers.Registry,
	cache *codes.Cache,
	normalizer *search.Normalizer,
	recorder Recorder,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		registry:   registry,
		cache:      cache,
		normalizer: normalizer,
		recorder:   recorder,
		metrics:    metrics,
		logger:     logger,
	}
}

// resolve recovers the provider and native id behind a code.
func (s *Service) resolve(ctx context.Context, code string) (*codes.Entry, providers.Adapter, error) {
	entry, err := s.cache.Resolve(ctx, code)
	if err != nil {
		if apperr.Is(err, apperr.KindGone) {
			s.metrics.IncCodeMisses()
		}
		return nil, nil, err
	}

	adapter, err := s.registry.Adapter(entry.Provider)
	if err != nil {
		return nil, nil, err
	}
	return entry, adapter, nil
}

// Details fetches the full view of a product. The returned object carries the
// original opaque code, never the provider's identifier.
func (s *Service) Details(ctx context.Context, code string, dates types.DateRange) (*types.Detail, error) {
	entry, adapter, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	d, err := adapter.Details(ctx, entry.NativeID, dates)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = entry.Currency
	}

	detail := &types.Detail{
		ClientProduct: types.ClientProduct{
			Code:        code, // overwrite whatever id the provider re-sent
			Type:        entry.Type,
			Name:        d.Name,
			Description: d.Description,
			Date:        d.Date,
			Price:       search.RoundPrice(d.Price),
			Currency:    currency,
			Location: types.Location{
				City:    d.City,
				Country: d.Country,
				Lat:     d.Lat,
				Lng:     d.Lng,
			},
			Categories: d.Categories,
			Images:     d.Images,
			Rating:     d.Rating,
		},
		Amenities: d.Amenities,
		Policies:  d.Policies,
	}
	return detail, nil
}

// Variants returns the provider's time-bucketed variant mapping and, as a
// side channel, caches the deduplicated variant set under (code, date) for
// booking resolution.
func (s *Service) Variants(ctx context.Context, code, date string) (map[string][]types.Variant, error) {
	entry, adapter, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	buckets, err := adapter.Variants(ctx, entry.NativeID, date)
	if err != nil {
		return nil, err
	}

	return s.normalizer.NormalizeVariants(ctx, code, date, buckets)
}

// Book books a product (or one of its cached variants) and returns a
// confirmation addressed by a freshly minted opaque booking reference.
func (s *Service) Book(ctx context.Context, req types.BookingRequest, customer types.Customer, org types.Org) (*types.Booking, error) {
	entry, adapter, err := s.resolve(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	price := entry.Price
	currency := entry.Currency
	if req.VariantCode != "" {
		v, err := s.cache.ResolveVariant(ctx, req.Code, req.Date, req.VariantCode)
		if err != nil {
			if apperr.Is(err, apperr.KindGone) {
				s.metrics.IncCodeMisses()
			}
			return nil, err
		}
		price = v.Price
	}

	units := req.Units
	if units <= 0 {
		units = 1
	}

	result, err := adapter.Book(ctx, providers.BookingRequest{
		NativeID:    entry.NativeID,
		Date:        req.Date,
		VariantCode: req.VariantCode,
		Units:       units,
		TestMode:    org.TestMode,
	}, customer)
	if err != nil {
		if apperr.Is(err, apperr.KindUpstream) {
			s.metrics.IncBookingFailures()
		}
		return nil, err
	}

	ref, err := codes.NewCode()
	if err != nil {
		return nil, err
	}
	if err := s.cache.PutBooking(ctx, codes.BookingEntry{
		Ref:      ref,
		Provider: entry.Provider,
		Locator:  result.Locator,
		Code:     req.Code,
	}); err != nil {
		return nil, err
	}

	booking := types.Booking{
		Ref:         ref,
		Code:        req.Code,
		Date:        req.Date,
		VariantCode: req.VariantCode,
		Units:       units,
		Price:       price,
		Currency:    currency,
		Status:      "confirmed",
	}
	s.metrics.IncBookings()

	if err := s.recorder.Record(ctx, booking, customer); err != nil {
		s.logger.Error("failed to record booking", "ref", ref, "error", err)
	}

	return &booking, nil
}

// Cancel cancels a booking by its opaque reference.
func (s *Service) Cancel(ctx context.Context, ref string) (bool, error) {
	be, err := s.cache.ResolveBooking(ctx, ref)
	if err != nil {
		if apperr.Is(err, apperr.KindGone) {
			s.metrics.IncCodeMisses()
		}
		return false, err
	}

	adapter, err := s.registry.Adapter(be.Provider)
	if err != nil {
		return false, err
	}
	return adapter.Cancel(ctx, be.Locator)
}
