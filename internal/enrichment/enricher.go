// Package enrichment refreshes cart lines with current product data after they
// are added. Tasks run detached from the request that scheduled them and never
// block or fail a cart mutation.
package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultConcurrency = 4
	DefaultTaskTimeout = 10 * time.Second
)

type productSource interface {
	CartProduct(ctx context.Context, id string) (*products.Product, error)
}

type patcher interface {
	Patch(ctx context.Context, scope string, key cart.Key, refresh cart.Refresh) bool
}

type taskMetrics interface {
	ObserveTask(outcome string, dur time.Duration)
}

type Options struct {
	Concurrency int
	TaskTimeout time.Duration
	Logger      *logger.Logger
	Metrics     taskMetrics
	Disabled    bool
}

// Enricher fans out one task per line, bounded by a weighted semaphore.
type Enricher struct {
	source  productSource
	carts   patcher
	sem     *semaphore.Weighted
	timeout time.Duration
	logg    *logger.Logger
	metrics taskMetrics
	enabled bool

	wg sync.WaitGroup
}

func New(source productSource, carts patcher, opts Options) (*Enricher, error) {
	if source == nil || carts == nil {
		return nil, fmt.Errorf("enrichment requires a product source and a cart")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Enricher{
		source:  source,
		carts:   carts,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		timeout: opts.TaskTimeout,
		logg:    opts.Logger,
		metrics: opts.Metrics,
		enabled: !opts.Disabled,
	}, nil
}

// Enqueue schedules a refresh for every line with a real product id. It
// returns immediately. Request-scoped values such as the request id are kept
// for logging but cancellation of ctx is not inherited.
func (e *Enricher) Enqueue(ctx context.Context, scope string, lines []cart.Line) {
	if e == nil || !e.enabled {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, line := range lines {
		if line.ProductID == "" || cart.IsSynthetic(line.ProductID) {
			continue
		}
		key := line.Key()
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.run(detached, scope, key)
		}()
	}
}

// Wait blocks until every scheduled task has finished.
func (e *Enricher) Wait() {
	if e == nil {
		return
	}
	e.wg.Wait()
}

func (e *Enricher) run(ctx context.Context, scope string, key cart.Key) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer e.sem.Release(1)

	start := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	product, err := e.source.CartProduct(taskCtx, key.ProductID)
	if err != nil {
		e.logg.Debug(e.logg.WithFields(ctx, map[string]any{
			"product_id": key.ProductID,
			"error":      err.Error(),
		}), "cart enrichment lookup failed")
		e.observe(metrics.OutcomeFailed, start)
		return
	}

	refresh := refreshFrom(product)
	if e.carts.Patch(ctx, scope, key, refresh) {
		e.observe(metrics.OutcomePatched, start)
		return
	}
	e.observe(metrics.OutcomeStale, start)
}

func (e *Enricher) observe(outcome string, start time.Time) {
	if e.metrics != nil {
		e.metrics.ObserveTask(outcome, time.Since(start))
	}
}

// refreshFrom keeps only the fields the product API actually returned.
func refreshFrom(p *products.Product) cart.Refresh {
	refresh := cart.Refresh{Name: p.Name, ImageRef: p.Image}
	if p.HasPrice && !p.Price.IsNegative() {
		price := p.Price
		refresh.UnitPrice = &price
	}
	return refresh
}
