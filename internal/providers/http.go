package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/search/types"
)

// HTTPAdapter talks to a real provider endpoint over the uniform REST
// contract: GET /search, GET /products/{id}, GET /products/{id}/variants,
// POST /book, POST /cancel.
type HTTPAdapter struct {
	name       string
	baseURL    string
	types      []types.ProductType
	httpClient *http.Client
}

// NewHTTPAdapter creates a new HTTPAdapter serving the given product types.
func NewHTTPAdapter(name, baseURL string, serves []types.ProductType, timeout time.Duration) *HTTPAdapter {
	return &HTTPAdapter{
		name:    name,
		baseURL: baseURL,
		types:   serves,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name.
func (a *HTTPAdapter) Name() string {
	return a.name
}

// Types returns the product types this provider serves.
func (a *HTTPAdapter) Types() []types.ProductType {
	return a.types
}

// SearchByLocation searches for products by making an HTTP GET request.
func (a *HTTPAdapter) SearchByLocation(ctx context.Context, c LocationCriteria) ([]Product, error) {
	u, err := url.Parse(a.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("type", string(c.Type))
	q.Set("city", c.City)
	if c.Date != "" {
		q.Set("date", c.Date)
	}
	if c.Guests > 0 {
		q.Set("guests", fmt.Sprintf("%d", c.Guests))
	}
	u.RawQuery = q.Encode()

	var products []Product
	if err := a.getJSON(ctx, u.String(), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchByID fetches a single product by its provider-facing id.
func (a *HTTPAdapter) SearchByID(ctx context.Context, c IDCriteria) (*Product, error) {
	u := fmt.Sprintf("%s/products/%s?type=%s", a.baseURL, url.PathEscape(c.ID), url.QueryEscape(string(c.Type)))

	var product Product
	if err := a.getJSON(ctx, u, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Details fetches the detail view of a product.
func (a *HTTPAdapter) Details(ctx context.Context, nativeID string, dates types.DateRange) (*Detail, error) {
	u, err := url.Parse(a.baseURL + "/products/" + url.PathEscape(nativeID))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	if dates.From != "" {
		q.Set("from", dates.From)
	}
	if dates.To != "" {
		q.Set("to", dates.To)
	}
	u.RawQuery = q.Encode()

	var detail Detail
	if err := a.getJSON(ctx, u.String(), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Variants fetches bookable options grouped by time-of-day bucket.
func (a *HTTPAdapter) Variants(ctx context.Context, nativeID, date string) (map[string][]Variant, error) {
	u := fmt.Sprintf("%s/products/%s/variants?date=%s",
		a.baseURL, url.PathEscape(nativeID), url.QueryEscape(date))

	var buckets map[string][]Variant
	if err := a.getJSON(ctx, u, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// Book submits a booking. A provider-reported failure or a malformed response
// is an apperr.KindUpstream error.
func (a *HTTPAdapter) Book(ctx context.Context, req BookingRequest, customer types.Customer) (*BookingResult, error) {
	payload := struct {
		BookingRequest
		Customer types.Customer `json:"customer"`
	}{BookingRequest: req, Customer: customer}

	var result BookingResult
	if err := a.postJSON(ctx, a.baseURL+"/book", payload, &result); err != nil {
		return nil, err
	}

	if !result.Success || result.Locator == "" {
		return nil, apperr.Newf(apperr.KindUpstream, "provider %s rejected booking for %s", a.name, req.NativeID)
	}
	return &result, nil
}

// Cancel cancels a booking by provider locator.
func (a *HTTPAdapter) Cancel(ctx context.Context, locator string) (bool, error) {
	payload := struct {
		Locator string `json:"locator"`
	}{Locator: locator}

	var result struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := a.postJSON(ctx, a.baseURL+"/cancel", payload, &result); err != nil {
		return false, err
	}
	return result.Cancelled, nil
}

func (a *HTTPAdapter) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req, out)
}

func (a *HTTPAdapter) postJSON(ctx context.Context, rawURL string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *HTTPAdapter) do(req *http.Request, out any) error {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore close error
	}()

	if resp.StatusCode == http.StatusNotImplemented {
		return ErrNotSupported(a.name, req.URL.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider %s returned status %d: %s", a.name, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
