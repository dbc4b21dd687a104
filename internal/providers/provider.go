package providers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Product is a provider-shaped inventory item. It is owned transiently by the
// normalizer and never exposed to clients.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	City        string          `json:"city,omitempty"`
	Country     string          `json:"country,omitempty"`
	Lat         float64         `json:"lat,omitempty"`
	Lng         float64         `json:"lng,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Rating      float64         `json:"rating,omitempty"`
}

// Detail is a provider-shaped detail view of a single product.
type Detail struct {
	Product
	Amenities []string `json:"amenities,omitempty"`
	Policies  string   `json:"policies,omitempty"`
}

// Variant is a provider-shaped bookable option.
type Variant struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Capacity    int               `json:"capacity,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// BookingResult is a provider's answer to a booking request.
type BookingResult struct {
	Success bool   `json:"success"`
	Locator string `json:"locator"`
}

// LocationCriteria narrows a location-based search.
type LocationCriteria struct {
	Type   types.ProductType
	City   string
	Date   string
	Guests int
}

// IDCriteria addresses a single product by its provider-facing id.
type IDCriteria struct {
	Type types.ProductType
	ID   string
}

// Adapter is the uniform capability contract for one external inventory
// provider. Operations are individually failable; the caller decides whether
// to retry. Legacy providers that lack a capability return an
// apperr.KindNotImplemented error instead of silently no-opping.
type Adapter interface {
	// Name returns the provider name. Names are unique within a registry.
	Name() string

	// Types returns the product types this provider serves.
	Types() []types.ProductType

	SearchByLocation(ctx context.Context, c LocationCriteria) ([]Product, error)
	SearchByID(ctx context.Context, c IDCriteria) (*Product, error)
	Details(ctx context.Context, nativeID string, dates types.DateRange) (*Detail, error)

	// Variants returns bookable options grouped by time-of-day bucket
	// (e.g. "morning", "afternoon", "evening").
	Variants(ctx context.Context, nativeID, date string) (map[string][]Variant, error)

	Book(ctx context.Context, req BookingRequest, customer types.Customer) (*BookingResult, error)
	Cancel(ctx context.Context, locator string) (bool, error)
}

// BookingRequest is the provider-facing booking payload, expressed in native
// identifiers. Built by the booking service after code resolution.
type BookingRequest struct {
	NativeID    string `json:"id"`
	Date        string `json:"date"`
	VariantCode string `json:"variant_code,omitempty"`
	Units       int    `json:"units"`
	TestMode    bool   `json:"test_mode,omitempty"`
}

// ErrNotSupported builds the error adapters return for capabilities they do
// not implement.
func ErrNotSupported(provider, capability string) error {
	return apperr.Newf(apperr.KindNotImplemented, "provider %s does not support %s", provider, capability)
}
