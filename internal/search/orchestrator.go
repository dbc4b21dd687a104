package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tripmesh/inventory/internal/apperr"
	"github.com/tripmesh/inventory/internal/obs"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/search/types"
)

// Orchestrator fans a search request out to every resolved adapter on a
// bounded worker pool and merges whatever comes back in time. One adapter
// failing, timing out or panicking never fails the request; its results are
// simply absent and the per-type status reflects the loss.
type Orchestrator struct {
	registry    *providers.Registry
	normalizer  *Normalizer
	workers     int
	taskTimeout time.Duration
	metrics     *obs.Metrics
	logger      *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. workers bounds the number of
// concurrently running adapter calls across all product types; taskTimeout is
// the deadline applied to each individual adapter call.
func NewOrchestrator(
	registry *providers.Registry,
	normalizer *Normalizer,
	workers int,
	taskTimeout time.Duration,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		normalizer:  normalizer,
		workers:     workers,
		taskTimeout: taskTimeout,
		metrics:     metrics,
		logger:      logger,
	}
}

// unit is one adapter invocation. It carries an immutable snapshot of the
// query and org context taken at submission time; workers read it, never
// write it.
type unit struct {
	query   types.Query
	org     types.Org
	adapter providers.Adapter
}

// Search resolves adapters for every query, runs them concurrently and merges
// the per-type results. The only caller-visible failures are an invalid
// product type and an explicit provider override that does not exist; adapter
// failures are absorbed as partial results.
func (o *Orchestrator) Search(ctx context.Context, req types.Request) (*types.Response, error) {
	o.metrics.IncSearches()

	var (
		units      []unit
		requested  []types.ProductType
		collectors = make(map[types.ProductType]*collector)
	)

	for _, q := range req.Queries {
		if !q.Type.Valid() {
			return nil, apperr.Newf(apperr.KindValidation, "unknown product type %q", q.Type)
		}

		adapters, err := o.registry.Resolve(q.Type, q.Provider, req.Org.EnabledProviders)
		if err != nil {
			return nil, err
		}

		col, ok := collectors[q.Type]
		if !ok {
			col = &collector{single: q.ByID()}
			collectors[q.Type] = col
			requested = append(requested, q.Type)
		}
		col.total += len(adapters)

		for _, a := range adapters {
			units = append(units, unit{query: q, org: req.Org, adapter: a})
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(o.workers)

	for _, u := range units {
		g.Go(func() error {
			o.run(ctx, u, collectors[u.query.Type])
			// Unit failures are absorbed; returning nil keeps siblings alive.
			return nil
		})
	}
	_ = g.Wait()

	resp := &types.Response{}
	for _, pt := range requested {
		resp.Set(pt, collectors[pt].result())
	}
	return resp, nil
}

// run executes one adapter call under its own deadline and feeds the
// collector. All failure modes end up in col.fail().
func (o *Orchestrator) run(ctx context.Context, u unit, col *collector) {
	tctx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	defer cancel()

	raw, err := o.invoke(tctx, u)
	if err != nil {
		o.metrics.IncAdapterErrors()
		o.logger.Error("adapter search failed",
			"provider", u.adapter.Name(),
			"type", u.query.Type,
			"org_id", u.org.ID,
			"error", err,
		)
		col.fail()
		return
	}

	normalized := make([]types.ClientProduct, 0, len(raw))
	for _, p := range raw {
		cp, err := o.normalizer.Normalize(ctx, p, u.adapter.Name(), u.query.Type)
		if err != nil {
			o.logger.Error("normalization failed",
				"provider", u.adapter.Name(),
				"type", u.query.Type,
				"error", err,
			)
			continue
		}
		if cp == nil {
			continue
		}
		normalized = append(normalized, *cp)
	}

	if u.query.ByID() {
		if kept := col.addSingle(normalized); !kept {
			// First successful adapter wins; flag the discard instead of
			// silently losing data.
			o.logger.Warn("discarding duplicate id-search result",
				"provider", u.adapter.Name(),
				"type", u.query.Type,
				"id", u.query.ID,
			)
		}
		return
	}
	col.add(normalized)
}

// invoke runs the adapter call appropriate for the query, converting panics
// into errors so a misbehaving adapter stays isolated.
func (o *Orchestrator) invoke(ctx context.Context, u unit) (raw []providers.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter %s panicked: %v", u.adapter.Name(), r)
		}
	}()

	if u.query.ByID() {
		p, err := u.adapter.SearchByID(ctx, providers.IDCriteria{
			Type: u.query.Type,
			ID:   u.query.ID,
		})
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, nil
		}
		return []providers.Product{*p}, nil
	}

	return u.adapter.SearchByLocation(ctx, providers.LocationCriteria{
		Type:   u.query.Type,
		City:   u.query.City,
		Date:   u.query.Date,
		Guests: u.query.Guests,
	})
}

// collector merges one product type's results. Products arrive in adapter
// completion order, which is not stable across runs.
type collector struct {
	mu        sync.Mutex
	single    bool
	products  []types.ClientProduct
	total     int
	succeeded int
	failed    int
}

func (c *collector) add(ps []types.ClientProduct) {
	c.mu.Lock()
	c.succeeded++
	c.products = append(c.products, ps...)
	c.mu.Unlock()
}

// addSingle records an id-search success. The first adapter to respond wins;
// later results report kept=false and are discarded.
func (c *collector) addSingle(ps []types.ClientProduct) (kept bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.succeeded++
	if len(ps) == 0 {
		return true
	}
	if len(c.products) > 0 {
		return false
	}
	c.products = ps[:1]
	return true
}

func (c *collector) fail() {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}

func (c *collector) result() *types.TypeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := types.StatusOK
	switch {
	case c.failed > 0 && c.succeeded == 0:
		status = types.StatusFailed
	case c.failed > 0:
		status = types.StatusPartial
	}

	products := c.products
	if products == nil {
		products = []types.ClientProduct{}
	}

	return &types.TypeResult{
		Status:             status,
		Products:           products,
		ProvidersTotal:     c.total,
		ProvidersSucceeded: c.succeeded,
		ProvidersFailed:    c.failed,
	}
}
