package providers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search/types"
)

func newAdapter(t *testing.T, h http.Handler) *providers.HTTPAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return providers.NewHTTPAdapter("testprov", srv.URL, []types.ProductType{types.TypeActivity}, 2*time.Second)
}

func TestHTTPAdapter_SearchByLocation(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "activity", r.URL.Query().Get("type"))
		require.Equal(t, "lisbon", r.URL.Query().Get("city"))
		require.Equal(t, "2", r.URL.Query().Get("guests"))

		_, _ = w.Write([]byte(`[
			{"id":"ACT-1","name":"Tour","price":24.50,"currency":"EUR"},
			{"id":"ACT-2","name":"Kayak","price":58.99,"currency":"EUR"}
		]`))
	}))

	products, err := adapter.SearchByLocation(context.Background(), providers.LocationCriteria{
		Type:   types.TypeActivity,
		City:   "lisbon",
		Guests: 2,
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "ACT-1", products[0].ID)
	require.Equal(t, "24.5", products[0].Price.String())
}

func TestHTTPAdapter_SearchByID(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/ACT-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"ACT-9","name":"Museum","price":12,"currency":"EUR"}`))
	}))

	p, err := adapter.SearchByID(context.Background(), providers.IDCriteria{Type: types.TypeActivity, ID: "ACT-9"})
	require.NoError(t, err)
	require.Equal(t, "ACT-9", p.ID)
}

func TestHTTPAdapter_Variants(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/ACT-1/variants", r.URL.Path)
		require.Equal(t, "2026-09-01", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"morning":[{"code":"STD","name":"Standard","price":24.50}]}`))
	}))

	buckets, err := adapter.Variants(context.Background(), "ACT-1", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, buckets["morning"], 1)
	require.Equal(t, "STD", buckets["morning"][0].Code)
}

func TestHTTPAdapter_NotImplementedStatus(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not supported", http.StatusNotImplemented)
	}))

	_, err := adapter.Variants(context.Background(), "ACT-1", "2026-09-01")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindNotImplemented))
}

func TestHTTPAdapter_Book(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/book", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "ACT-1", payload["id"])

		_, _ = w.Write([]byte(`{"success":true,"locator":"LOC-123"}`))
	}))

	result, err := adapter.Book(context.Background(), providers.BookingRequest{
		NativeID: "ACT-1",
		Date:     "2026-09-01",
		Units:    2,
	}, types.Customer{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	require.Equal(t, "LOC-123", result.Locator)
}

func TestHTTPAdapter_BookRejected(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))

	_, err := adapter.Book(context.Background(), providers.BookingRequest{NativeID: "ACT-1"}, types.Customer{})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestHTTPAdapter_BookMalformedResponse(t *testing.T) {
	// A locator-less success is as unusable as an explicit rejection.
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	_, err := adapter.Book(context.Background(), providers.BookingRequest{NativeID: "ACT-1"}, types.Customer{})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestHTTPAdapter_Cancel(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cancel", r.URL.Path)
		_, _ = w.Write([]byte(`{"cancelled":true}`))
	}))

	ok, err := adapter.Cancel(context.Background(), "LOC-123")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHTTPAdapter_ServerError(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := adapter.SearchByLocation(context.Background(), providers.LocationCriteria{Type: types.TypeActivity, City: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}
