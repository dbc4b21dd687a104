package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// Wire types in provider shape. Prices are plain JSON numbers here; the
// service parses them into decimals on its side.
type product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Images      []string `json:"images,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
}

type detail struct {
	product
	Amenities []string `json:"amenities,omitempty"`
	Policies  string   `json:"policies,omitempty"`
}

type variant struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Capacity int     `json:"capacity,omitempty"`
}

var errProviderUnavailable = errors.New("provider unavailable")

// mockProvider serves a static catalog with simulated latency and a
// configurable failure rate.
type mockProvider struct {
	name     string
	products []product
	variants map[string]map[string][]variant // product id -> bucket -> variants
	bookAble bool                            // legacy providers only support search
	failRate float64
	rng      *rand.Rand
	logger   *slog.Logger
}

func (p *mockProvider) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", p.searchHandler)
	mux.HandleFunc("GET /products/{id}", p.detailsHandler)
	mux.HandleFunc("GET /products/{id}/variants", p.variantsHandler)
	mux.HandleFunc("POST /book", p.bookHandler)
	mux.HandleFunc("POST /cancel", p.cancelHandler)
}

// simulate adds random latency (50ms to 200ms) and the provider's failure
// rate. Returns false when the request was already answered with an error.
func (p *mockProvider) simulate(w http.ResponseWriter, r *http.Request) bool {
	latency := time.Duration(50+p.rng.Intn(150)) * time.Millisecond
	select {
	case <-time.After(latency):
	case <-r.Context().Done():
		return false
	}

	if p.rng.Float64() < p.failRate {
		http.Error(w, errProviderUnavailable.Error(), http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (p *mockProvider) searchHandler(w http.ResponseWriter, r *http.Request) {
	if !p.simulate(w, r) {
		return
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		http.Error(w, "missing required parameters", http.StatusBadRequest)
		return
	}

	results := make([]product, 0, len(p.products))
	for _, pr := range p.products {
		pr.City = city
		pr.Date = r.URL.Query().Get("date")
		results = append(results, pr)
	}
	p.writeJSON(w, results)
}

func (p *mockProvider) detailsHandler(w http.ResponseWriter, r *http.Request) {
	if !p.simulate(w, r) {
		return
	}

	for _, pr := range p.products {
		if pr.ID == r.PathValue("id") {
			p.writeJSON(w, detail{
				product:   pr,
				Amenities: []string{"wifi", "wheelchair access"},
				Policies:  "Free cancellation up to 24h before start.",
			})
			return
		}
	}
	http.Error(w, "product not found", http.StatusNotFound)
}

func (p *mockProvider) variantsHandler(w http.ResponseWriter, r *http.Request) {
	if !p.bookAble {
		http.Error(w, "not supported", http.StatusNotImplemented)
		return
	}
	if !p.simulate(w, r) {
		return
	}

	buckets, ok := p.variants[r.PathValue("id")]
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	p.writeJSON(w, buckets)
}

func (p *mockProvider) bookHandler(w http.ResponseWriter, r *http.Request) {
	if !p.bookAble {
		http.Error(w, "not supported", http.StatusNotImplemented)
		return
	}
	if !p.simulate(w, r) {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "invalid booking request", http.StatusBadRequest)
		return
	}

	p.writeJSON(w, map[string]any{
		"success": true,
		"locator": p.name + "-" + req.ID + "-" + time.Now().Format("20060102150405"),
	})
}

func (p *mockProvider) cancelHandler(w http.ResponseWriter, r *http.Request) {
	if !p.bookAble {
		http.Error(w, "not supported", http.StatusNotImplemented)
		return
	}
	if !p.simulate(w, r) {
		return
	}
	p.writeJSON(w, map[string]bool{"cancelled": true})
}

func (p *mockProvider) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		p.logger.Error("failed to encode response", "error", err)
	}
}
