// Package types holds the client-facing search model. Nothing in this package
// carries provider identity; products are addressed by opaque codes only.
package types

import "github.com/shopspring/decimal"

// ProductType identifies one inventory vertical.
type ProductType string

const (
	TypeActivity   ProductType = "activity"
	TypeHotel      ProductType = "hotel"
	TypeRestaurant ProductType = "restaurant"
)

// Valid reports whether pt is a known product type.
func (pt ProductType) Valid() bool {
	switch pt {
	case TypeActivity, TypeHotel, TypeRestaurant:
		return true
	}
	return false
}

// Org is the request-scoped organization context. It is snapshotted once per
// request and copied into every search worker; workers never mutate it.
type Org struct {
	ID               string
	EnabledProviders []string
	TestMode         bool
	Locale           string
}

// Query is one product-type sub-request, either location-based or id-based.
// Provider, when set, overrides registry resolution to exactly that adapter.
type Query struct {
	Type     ProductType
	Provider string
	City     string
	Date     string // YYYY-MM-DD
	Guests   int
	ID       string // provider-facing id for id-based search (deep links)
}

// ByID reports whether the query is an id-based (single item) search.
func (q Query) ByID() bool {
	return q.ID != ""
}

// Request is one logical search spanning one or more product types.
type Request struct {
	Queries []Query
	Org     Org
}

// Location is a normalized product location.
type Location struct {
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// ClientProduct is a normalized product as returned to clients. Immutable once
// returned; the Code is the only handle for follow-up calls.
type ClientProduct struct {
	Code        string          `json:"code"`
	Type        ProductType     `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Location    Location        `json:"location"`
	Categories  []string        `json:"categories,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Rating      float64         `json:"rating,omitempty"`
}

// Detail is the full view of a single product.
type Detail struct {
	ClientProduct
	Amenities []string `json:"amenities,omitempty"`
	Policies  string   `json:"policies,omitempty"`
}

// Variant is one bookable option of a product (a ticket class, room type or
// table slot). Identity is structural: two variants with equal code, name and
// price are the same variant regardless of which time bucket surfaced them.
type Variant struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Capacity    int               `json:"capacity,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Key returns the structural identity of the variant.
func (v Variant) Key() string {
	return v.Code + "|" + v.Name + "|" + v.Price.String()
}

// DateRange bounds a details lookup.
type DateRange struct {
	From string
	To   string
}

// Result statuses for one product type within a response. A type absent from
// the response was not requested; a requested type is always present with one
// of these statuses.
const (
	StatusOK      = "ok"      // every resolved adapter returned results
	StatusPartial = "partial" // at least one adapter failed, at least one succeeded
	StatusFailed  = "failed"  // every resolved adapter failed
)

// TypeResult is the merged outcome for one product type.
type TypeResult struct {
	Status             string          `json:"status"`
	Products           []ClientProduct `json:"products"`
	ProvidersTotal     int             `json:"providers_total"`
	ProvidersSucceeded int             `json:"providers_succeeded"`
	ProvidersFailed    int             `json:"providers_failed"`
}

// Response holds one optional result per product type. A struct with one field
// per type, rather than a type-switched collection, so adding a vertical is a
// compile-visible change.
type Response struct {
	Activities  *TypeResult `json:"activities,omitempty"`
	Hotels      *TypeResult `json:"hotels,omitempty"`
	Restaurants *TypeResult `json:"restaurants,omitempty"`
}

// Set attaches a result for the given product type.
func (r *Response) Set(pt ProductType, tr *TypeResult) {
	switch pt {
	case TypeActivity:
		r.Activities = tr
	case TypeHotel:
		r.Hotels = tr
	case TypeRestaurant:
		r.Restaurants = tr
	}
}

// Get returns the result for the given product type, or nil.
func (r *Response) Get(pt ProductType) *TypeResult {
	switch pt {
	case TypeActivity:
		return r.Activities
	case TypeHotel:
		return r.Hotels
	case TypeRestaurant:
		return r.Restaurants
	}
	return nil
}

// BookingRequest books one variant of a product identified by opaque code.
type BookingRequest struct {
	Code        string
	Date        string // YYYY-MM-DD
	VariantCode string
	Units       int
}

// Customer identifies who the booking is for.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Booking is a confirmed reservation. Ref is an opaque booking reference; the
// provider's locator never appears in client responses.
type Booking struct {
	Ref         string          `json:"ref"`
	Code        string          `json:"code"`
	Date        string          `json:"date,omitempty"`
	VariantCode string          `json:"variant_code,omitempty"`
	Units       int             `json:"units"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
}
