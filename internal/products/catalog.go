package products

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/redseam-storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

const (
	SortDefault = ""
	SortNew     = "new"
	SortLow     = "low"
	SortHigh    = "high"

	DefaultPageCacheTTL = 5 * time.Minute
	// MaxCachedPages bounds the page cache; the oldest page goes first.
	MaxCachedPages = 64
)

type lister interface {
	ListProducts(ctx context.Context, page int) ([]Product, error)
}

// Query is the price filter and sort order applied to one cached page.
type Query struct {
	From string
	To   string
	Sort string
}

// Listing is one rendered catalog page.
type Listing struct {
	Items []Product
	Pager pagination.Pager
	Query Query
}

type cachedPage struct {
	items   []Product
	fetched time.Time
}

// Catalog serves listing pages from an in-process cache so re-filtering and
// re-sorting a page does not hit the API again.
type Catalog struct {
	source lister
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	pages map[int]cachedPage
}

func NewCatalog(source lister, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	return &Catalog{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		pages:  map[int]cachedPage{},
	}
}

// Page returns the filtered and sorted items of one listing page.
func (c *Catalog) Page(ctx context.Context, page int, q Query) (Listing, error) {
	page = pagination.Clamp(page)
	items, err := c.fetch(ctx, page)
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		Items: Apply(items, q),
		Pager: pagination.Build(page, len(items) > 0),
		Query: q,
	}, nil
}

// Invalidate drops every cached page.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.pages = map[int]cachedPage{}
	c.mu.Unlock()
}

func (c *Catalog) fetch(ctx context.Context, page int) ([]Product, error) {
	c.mu.Lock()
	cached, ok := c.pages[page]
	c.mu.Unlock()
	if ok && c.now().Sub(cached.fetched) < c.ttl {
		return cached.items, nil
	}

	items, err := c.source.ListProducts(ctx, page)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		c.store(page, items)
	}
	return items, nil
}

// store caches a non-empty page after dropping expired entries and, when the
// cache is still full, the oldest one.
func (c *Catalog) store(page int, items []Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for p, cached := range c.pages {
		if now.Sub(cached.fetched) >= c.ttl {
			delete(c.pages, p)
		}
	}
	if _, ok := c.pages[page]; !ok && len(c.pages) >= MaxCachedPages {
		oldest, oldestAt := 0, now
		for p, cached := range c.pages {
			if !cached.fetched.After(oldestAt) {
				oldest, oldestAt = p, cached.fetched
			}
		}
		delete(c.pages, oldest)
	}
	c.pages[page] = cachedPage{items: items, fetched: now}
}

// Apply filters by price bounds and sorts a copy of items. A bound that does
// not parse as a number disables the whole filter. Products without a price
// are dropped once any bound is active.
func Apply(items []Product, q Query) []Product {
	out := make([]Product, 0, len(items))
	out = append(out, items...)

	from, fromSet, fromOK := parseBound(q.From)
	to, toSet, toOK := parseBound(q.To)
	if fromOK && toOK {
		filtered := out[:0]
		for _, p := range out {
			if (fromSet || toSet) && !p.HasPrice {
				continue
			}
			if fromSet && p.Price.LessThan(from) {
				continue
			}
			if toSet && p.Price.GreaterThan(to) {
				continue
			}
			filtered = append(filtered, p)
		}
		out = filtered
	}

	switch strings.ToLower(strings.TrimSpace(q.Sort)) {
	case SortLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortNew:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

// parseBound reports the bound, whether it is set and whether the input was
// usable. Blank input is unset but usable.
func parseBound(raw string) (decimal.Decimal, bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, false
	}
	return d, true, true
}
