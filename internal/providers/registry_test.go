package providers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search/types"
)

// stubAdapter only carries identity; registry tests never invoke operations.
type stubAdapter struct {
	name  string
	types []types.ProductType
}

func (s *stubAdapter) Name() string               { return s.name }
func (s *stubAdapter) Types() []types.ProductType { return s.types }

func (s *stubAdapter) SearchByLocation(context.Context, providers.LocationCriteria) ([]providers.Product, error) {
	return nil, providers.ErrNotSupported(s.name, "search")
}

func (s *stubAdapter) SearchByID(context.Context, providers.IDCriteria) (*providers.Product, error) {
	return nil, providers.ErrNotSupported(s.name, "search by id")
}

func (s *stubAdapter) Details(context.Context, string, types.DateRange) (*providers.Detail, error) {
	return nil, providers.ErrNotSupported(s.name, "details")
}

func (s *stubAdapter) Variants(context.Context, string, string) (map[string][]providers.Variant, error) {
	return nil, providers.ErrNotSupported(s.name, "variants")
}

func (s *stubAdapter) Book(context.Context, providers.BookingRequest, types.Customer) (*providers.BookingResult, error) {
	return nil, providers.ErrNotSupported(s.name, "book")
}

func (s *stubAdapter) Cancel(context.Context, string) (bool, error) {
	return false, providers.ErrNotSupported(s.name, "cancel")
}

func newTestRegistry(t *testing.T) *providers.Registry {
	t.Helper()

	fallback := &stubAdapter{name: "fallback", types: []types.ProductType{types.TypeActivity, types.TypeHotel, types.TypeRestaurant}}
	registry, err := providers.NewRegistry([]providers.Adapter{
		&stubAdapter{name: "viaroute", types: []types.ProductType{types.TypeActivity}},
		&stubAdapter{name: "stayhub", types: []types.ProductType{types.TypeHotel}},
		&stubAdapter{name: "tourify", types: []types.ProductType{types.TypeActivity, types.TypeRestaurant}},
	}, fallback)
	require.NoError(t, err)
	return registry
}

func TestRegistry_Resolve_ExplicitOverride(t *testing.T) {
	registry := newTestRegistry(t)

	adapters, err := registry.Resolve(types.TypeActivity, "viaroute", []string{"stayhub"})
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	require.Equal(t, "viaroute", adapters[0].Name())
}

func TestRegistry_Resolve_UnknownOverride(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Resolve(types.TypeActivity, "nope", nil)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegistry_Resolve_OverrideWrongType(t *testing.T) {
	registry := newTestRegistry(t)

	// stayhub exists but does not serve activities.
	_, err := registry.Resolve(types.TypeActivity, "stayhub", nil)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegistry_Resolve_EnabledIntersection(t *testing.T) {
	registry := newTestRegistry(t)

	adapters, err := registry.Resolve(types.TypeActivity, "", []string{"tourify", "stayhub"})
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	require.Equal(t, "tourify", adapters[0].Name())
}

func TestRegistry_Resolve_FallbackForUnconfiguredCaller(t *testing.T) {
	registry := newTestRegistry(t)

	adapters, err := registry.Resolve(types.TypeHotel, "", nil)
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	require.Equal(t, "fallback", adapters[0].Name())
}

func TestRegistry_Resolve_EnabledSetWithNoMatch(t *testing.T) {
	registry := newTestRegistry(t)

	// A configured org with no provider for the type gets nothing, not the
	// fallback.
	adapters, err := registry.Resolve(types.TypeHotel, "", []string{"viaroute"})
	require.NoError(t, err)
	require.Empty(t, adapters)
}

func TestRegistry_Adapter_ByName(t *testing.T) {
	registry := newTestRegistry(t)

	a, err := registry.Adapter("stayhub")
	require.NoError(t, err)
	require.Equal(t, "stayhub", a.Name())

	_, err = registry.Adapter("ghost")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := providers.NewRegistry([]providers.Adapter{
		&stubAdapter{name: "dup", types: []types.ProductType{types.TypeActivity}},
		&stubAdapter{name: "dup", types: []types.ProductType{types.TypeHotel}},
	}, nil)
	require.Error(t, err)
}
