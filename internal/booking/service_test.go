package booking_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/booking"
	"github.com/tripmesh/inventory/internal/codes"
	"github.com/tripmesh/inventory/internal/obs"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search"
	"github.com/tripmesh/inventory/internal/search/types"
)

// fakeAdapter records the provider-facing calls so tests can assert that the
// service translated opaque codes back to native identifiers.
type fakeAdapter struct {
	name     string
	detail   *providers.Detail
	variants map[string][]providers.Variant
	bookErr  error

	lastBook   providers.BookingRequest
	lastCancel string
}

func (f *fakeAdapter) Name() string               { return f.name }
func (f *fakeAdapter) Types() []types.ProductType { return []types.ProductType{types.TypeActivity} }

func (f *fakeAdapter) SearchByLocation(context.Context, providers.LocationCriteria) ([]providers.Product, error) {
	return nil, providers.ErrNotSupported(f.name, "search")
}

func (f *fakeAdapter) SearchByID(context.Context, providers.IDCriteria) (*providers.Product, error) {
	return nil, providers.ErrNotSupported(f.name, "search by id")
}

func (f *fakeAdapter) Details(_ context.Context, nativeID string, _ types.DateRange) (*providers.Detail, error) {
	if f.detail == nil || f.detail.ID != nativeID {
		return nil, providers.ErrNotSupported(f.name, "details")
	}
	return f.detail, nil
}

func (f *fakeAdapter) Variants(_ context.Context, nativeID, date string) (map[string][]providers.Variant, error) {
	if f.variants == nil {
		return nil, providers.ErrNotSupported(f.name, "variants")
	}
	return f.variants, nil
}

func (f *fakeAdapter) Book(_ context.Context, req providers.BookingRequest, _ types.Customer) (*providers.BookingResult, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	f.lastBook = req
	return &providers.BookingResult{Locator: "LOC-" + req.NativeID}, nil
}

func (f *fakeAdapter) Cancel(_ context.Context, locator string) (bool, error) {
	f.lastCancel = locator
	return true, nil
}

type fixture struct {
	service *booking.Service
	cache   *codes.Cache
	adapter *fakeAdapter
}

func newFixture(t *testing.T, adapter *fakeAdapter) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry, err := providers.NewRegistry([]providers.Adapter{adapter}, nil)
	require.NoError(t, err)

	store := codes.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	cache := codes.NewCache(store, time.Minute)

	normalizer := search.NewNormalizer(cache, logger)
	metrics := obs.NewMetrics(logger)
	service := booking.NewService(registry, cache, normalizer, &booking.LogRecorder{Logger: logger}, metrics, logger)

	return &fixture{service: service, cache: cache, adapter: adapter}
}

// seed caches an entry the way a search would have and returns its code.
func (fx *fixture) seed(t *testing.T, provider, nativeID, price string) string {
	t.Helper()

	code, err := codes.NewCode()
	require.NoError(t, err)
	require.NoError(t, fx.cache.Put(context.Background(), codes.Entry{
		Code:     code,
		Provider: provider,
		NativeID: nativeID,
		Type:     types.TypeActivity,
		Price:    decimal.RequireFromString(price),
		Currency: "EUR",
	}))
	return code
}

func TestService_Details(t *testing.T) {
	adapter := &fakeAdapter{
		name: "viaroute",
		detail: &providers.Detail{
			Product: providers.Product{
				ID:       "ACT-201",
				Name:     "Old Town Walking Tour",
				Price:    decimal.RequireFromString("24.455"),
				Currency: "eur",
			},
			Amenities: []string{"guide", "headsets"},
			Policies:  "Free cancellation up to 24h.",
		},
	}
	fx := newFixture(t, adapter)
	code := fx.seed(t, "viaroute", "ACT-201", "24.5")

	d, err := fx.service.Details(context.Background(), code, types.DateRange{From: "2026-09-01"})
	require.NoError(t, err)
	require.Equal(t, code, d.Code, "details must carry the opaque code, not the native id")
	require.Equal(t, "24.46", d.Price.String())
	require.Equal(t, "EUR", d.Currency)
	require.Equal(t, []string{"guide", "headsets"}, d.Amenities)
}

func TestService_Details_StaleCode(t *testing.T) {
	fx := newFixture(t, &fakeAdapter{name: "viaroute"})

	_, err := fx.service.Details(context.Background(), "deadbeefdeadbeef", types.DateRange{})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindGone))
}

func TestService_Variants_NotSupported(t *testing.T) {
	fx := newFixture(t, &fakeAdapter{name: "forketta"})
	code := fx.seed(t, "forketta", "RST-7", "35")

	_, err := fx.service.Variants(context.Background(), code, "2026-09-01")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindNotImplemented))
}

func TestService_VariantsThenBook(t *testing.T) {
	adapter := &fakeAdapter{
		name: "viaroute",
		variants: map[string][]providers.Variant{
			"morning": {
				{Code: "STD", Name: "Standard", Price: decimal.RequireFromString("24.5"), Capacity: 15},
				{Code: "PRV", Name: "Private", Price: decimal.RequireFromString("120"), Capacity: 6},
			},
		},
	}
	fx := newFixture(t, adapter)
	code := fx.seed(t, "viaroute", "ACT-201", "24.5")
	ctx := context.Background()

	buckets, err := fx.service.Variants(ctx, code, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, buckets["morning"], 2)

	b, err := fx.service.Book(ctx, types.BookingRequest{
		Code:        code,
		Date:        "2026-09-01",
		VariantCode: "PRV",
		Units:       2,
	}, types.Customer{Name: "Ana", Email: "ana@example.com"}, types.Org{ID: "org-1", TestMode: true})
	require.NoError(t, err)

	require.Len(t, b.Ref, 16)
	require.Equal(t, "confirmed", b.Status)
	require.Equal(t, "120", b.Price.String(), "variant price wins over the entry price")
	require.Equal(t, 2, b.Units)

	// The adapter saw native identifiers and the org's test mode.
	require.Equal(t, "ACT-201", adapter.lastBook.NativeID)
	require.True(t, adapter.lastBook.TestMode)
}

func TestService_Book_UnknownVariant(t *testing.T) {
	fx := newFixture(t, &fakeAdapter{name: "viaroute"})
	code := fx.seed(t, "viaroute", "ACT-201", "24.5")

	_, err := fx.service.Book(context.Background(), types.BookingRequest{
		Code:        code,
		Date:        "2026-09-01",
		VariantCode: "VIP",
	}, types.Customer{}, types.Org{})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindGone))
}

func TestService_Book_DefaultsUnits(t *testing.T) {
	adapter := &fakeAdapter{name: "viaroute"}
	fx := newFixture(t, adapter)
	code := fx.seed(t, "viaroute", "ACT-201", "24.5")

	b, err := fx.service.Book(context.Background(), types.BookingRequest{
		Code: code,
		Date: "2026-09-01",
	}, types.Customer{Name: "Ana"}, types.Org{})
	require.NoError(t, err)
	require.Equal(t, 1, b.Units)
	require.Equal(t, "24.5", b.Price.String())
}

func TestService_Book_UpstreamRejection(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "viaroute",
		bookErr: apperr.Upstream("provider viaroute rejected the booking"),
	}
	fx := newFixture(t, adapter)
	code := fx.seed(t, "viaroute", "ACT-201", "24.5")

	_, err := fx.service.Book(context.Background(), types.BookingRequest{
		Code: code,
		Date: "2026-09-01",
	}, types.Customer{}, types.Org{})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestService_BookThenCancel(t *testing.T) {
	adapter := &fakeAdapter{name: "viaroute"}
	fx := newFixture(t, adapter)
	code := fx.seed(t, "viaroute", "ACT-201", "24.5")
	ctx := context.Background()

	b, err := fx.service.Book(ctx, types.BookingRequest{Code: code, Date: "2026-09-01"}, types.Customer{Name: "Ana"}, types.Org{})
	require.NoError(t, err)

	ok, err := fx.service.Cancel(ctx, b.Ref)
	require.NoError(t, err)
	require.True(t, ok)

	// Cancel resolved the opaque ref back to the provider locator.
	require.Equal(t, "LOC-ACT-201", adapter.lastCancel)
}

func TestService_Cancel_UnknownRef(t *testing.T) {
	fx := newFixture(t, &fakeAdapter{name: "viaroute"})

	_, err := fx.service.Cancel(context.Background(), "deadbeefdeadbeef")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindGone))
}
