package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/booking"
	"github.com/tripmesh/inventory/internal/middleware"
	"github.com/tripmesh/inventory/internal/obs"
	"github.com/tripmesh/inventory/internal/ratelimit"
	"github.com/tripmesh/inventory/internal/search"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Handler handles HTTP requests.
type Handler struct {
	orchestrator *search.Orchestrator
	bookings     *booking.Service
	rateLimiter  *ratelimit.Limiter
	metrics      *obs.Metrics
	logger       *slog.Logger
	validate     *validator.Validate
}

// New creates a new Handler.
func New(
	orchestrator *search.Orchestrator,
	bookings *booking.Service,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		bookings:     bookings,
		rateLimiter:  rateLimiter,
		metrics:      metrics,
		logger:       logger,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/search", h.SearchHandler)
	mux.HandleFunc("GET /v1/products/{code}", h.DetailsHandler)
	mux.HandleFunc("GET /v1/products/{code}/variants", h.VariantsHandler)
	mux.HandleFunc("POST /v1/bookings", h.BookHandler)
	mux.HandleFunc("DELETE /v1/bookings/{ref}", h.CancelHandler)
}

type searchQuery struct {
	Type     string `json:"type" validate:"required,oneof=activity hotel restaurant"`
	Provider string `json:"provider,omitempty"`
	City     string `json:"city,omitempty"`
	Date     string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Guests   int    `json:"guests,omitempty" validate:"omitempty,min=1"`
	ID       string `json:"id,omitempty"`
}

type searchRequest struct {
	Queries []searchQuery `json:"queries" validate:"required,min=1,dive"`
}

// SearchHandler handles POST /v1/search.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	ip := ExtractIP(r)
	if !h.rateLimiter.Allow(ip) {
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "ip", ip)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	req := types.Request{Org: middleware.Org(r.Context())}
	for _, q := range body.Queries {
		if strings.TrimSpace(q.City) == "" && strings.TrimSpace(q.ID) == "" {
			writeError(w, http.StatusBadRequest, "each query needs a city or an id")
			return
		}
		req.Queries = append(req.Queries, types.Query{
			Type:     types.ProductType(q.Type),
			Provider: q.Provider,
			City:     strings.TrimSpace(q.City),
			Date:     q.Date,
			Guests:   q.Guests,
			ID:       strings.TrimSpace(q.ID),
		})
	}

	start := time.Now()
	resp, err := h.orchestrator.Search(r.Context(), req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	h.logger.Info("search completed",
		"request_id", requestID,
		"org_id", req.Org.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, resp)
}

// DetailsHandler handles GET /v1/products/{code}.
func (h *Handler) DetailsHandler(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	dates := types.DateRange{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}

	detail, err := h.bookings.Details(r.Context(), code, dates)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// VariantsHandler handles GET /v1/products/{code}/variants.
func (h *Handler) VariantsHandler(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	buckets, err := h.bookings.Variants(r.Context(), code, date)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

type customerDTO struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

type bookRequest struct {
	Code        string      `json:"code" validate:"required"`
	Date        string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	VariantCode string      `json:"variant_code,omitempty"`
	Units       int         `json:"units,omitempty" validate:"omitempty,min=1"`
	Customer    customerDTO `json:"customer" validate:"required"`
}

// BookHandler handles POST /v1/bookings.
func (h *Handler) BookHandler(w http.ResponseWriter, r *http.Request) {
	var body bookRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	confirmation, err := h.bookings.Book(r.Context(),
		types.BookingRequest{
			Code:        body.Code,
			Date:        body.Date,
			VariantCode: body.VariantCode,
			Units:       body.Units,
		},
		types.Customer{
			Name:  body.Customer.Name,
			Email: body.Customer.Email,
			Phone: body.Customer.Phone,
		},
		middleware.Org(r.Context()),
	)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmation)
}

// CancelHandler handles DELETE /v1/bookings/{ref}.
func (h *Handler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	cancelled, err := h.bookings.Cancel(r.Context(), ref)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// writeAppError maps domain errors to HTTP responses.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.RequestID(r.Context())

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		h.logger.Warn("request failed",
			"request_id", requestID,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, appErr.HTTPStatus(), appErr.Message)
		return
	}

	h.logger.Error("request failed",
		"request_id", requestID,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// validationMessage renders the first validation failure in a client-friendly
// form.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return strings.ToLower(f.Field()) + " failed " + f.Tag() + " validation"
	}
	return "invalid request"
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
