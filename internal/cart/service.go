package cart

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service exposes the cart mutation API. Every mutation persists the new state
// and notifies subscribers before returning it.
type Service interface {
	Lines(ctx context.Context, scope string) []Line
	AddOrMerge(ctx context.Context, scope string, candidate Line) ([]Line, error)
	SetQuantity(ctx context.Context, scope string, key Key, quantity int) []Line
	Step(ctx context.Context, scope string, key Key, delta int) []Line
	Remove(ctx context.Context, scope string, key Key) []Line
	Clear(ctx context.Context, scope string) []Line
	TakeAll(ctx context.Context, scope string) []Line
	Patch(ctx context.Context, scope string, key Key, refresh Refresh) bool
}

// Refresh carries product data fetched after a line was added. Empty fields
// leave the line untouched.
type Refresh struct {
	Name      string
	UnitPrice *decimal.Decimal
	ImageRef  string
}

func (r Refresh) empty() bool {
	return r.Name == "" && r.UnitPrice == nil && r.ImageRef == ""
}

// SyntheticIDPrefix marks ids generated for lines added without a product id.
const SyntheticIDPrefix = "local-"

// IsSynthetic reports whether id was generated locally.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

type mutationMetrics interface {
	IncMutation(op string)
}

type service struct {
	store   *Store
	metrics mutationMetrics
	now     func() time.Time
}

// NewService builds the mutation API over store. metrics may be nil.
func NewService(store *Store, metrics mutationMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	return &service{store: store, metrics: metrics, now: time.Now}, nil
}

func (s *service) Lines(ctx context.Context, scope string) []Line {
	return s.store.Read(ctx, scope)
}

// AddOrMerge adds candidate.Quantity to the line with the same key, taking
// the candidate's name, price and image as the freshest product data, or
// appends the candidate when no line matches.
func (s *service) AddOrMerge(ctx context.Context, scope string, candidate Line) ([]Line, error) {
	if candidate.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative").
			WithDetails(map[string]any{"price": candidate.UnitPrice.String()})
	}
	candidate.Quantity = clampQuantity(candidate.Quantity)
	if candidate.Name == "" {
		candidate.Name = DefaultName
	}

	lines := s.store.Update(ctx, scope, func(lines []Line) []Line {
		if candidate.ProductID == "" {
			candidate.ProductID = s.syntheticID(lines)
			return append(lines, candidate)
		}
		idx := indexOf(lines, candidate.Key())
		if idx < 0 {
			return append(lines, candidate)
		}
		merged := &lines[idx]
		merged.Quantity += candidate.Quantity
		merged.Name = candidate.Name
		merged.UnitPrice = candidate.UnitPrice
		merged.ImageRef = candidate.ImageRef
		return lines
	})
	s.count("add")
	return lines, nil
}

// SetQuantity clamps quantity to MinQuantity. Lines are never deleted here;
// only Remove deletes. Unknown keys leave the cart unchanged.
func (s *service) SetQuantity(ctx context.Context, scope string, key Key, quantity int) []Line {
	lines := s.store.Update(ctx, scope, func(lines []Line) []Line {
		if idx := indexOf(lines, key); idx >= 0 {
			lines[idx].Quantity = clampQuantity(quantity)
		}
		return lines
	})
	s.count("set_quantity")
	return lines
}

// Step moves a quantity by delta, as the +/- stepper controls do.
func (s *service) Step(ctx context.Context, scope string, key Key, delta int) []Line {
	lines := s.store.Update(ctx, scope, func(lines []Line) []Line {
		if idx := indexOf(lines, key); idx >= 0 {
			lines[idx].Quantity = clampQuantity(lines[idx].Quantity + delta)
		}
		return lines
	})
	s.count("step")
	return lines
}

// Remove deletes the line with key. Removing an absent line is a no-op.
func (s *service) Remove(ctx context.Context, scope string, key Key) []Line {
	lines := s.store.Update(ctx, scope, func(lines []Line) []Line {
		idx := indexOf(lines, key)
		if idx < 0 {
			return lines
		}
		return append(lines[:idx], lines[idx+1:]...)
	})
	s.count("remove")
	return lines
}

func (s *service) Clear(ctx context.Context, scope string) []Line {
	lines := s.store.Update(ctx, scope, func([]Line) []Line {
		return []Line{}
	})
	s.count("clear")
	return lines
}

// TakeAll empties a non-empty cart and returns the lines it held, in one
// locked cycle. An empty cart is left untouched and yields nil.
func (s *service) TakeAll(ctx context.Context, scope string) []Line {
	var taken []Line
	s.store.View(ctx, scope, func(lines []Line) {
		if len(lines) == 0 {
			return
		}
		taken = lines
		_ = s.store.Write(ctx, scope, []Line{})
	})
	if taken != nil {
		s.count("clear")
	}
	return taken
}

// Patch applies refreshed product data to the line with key if it still
// exists. It reports whether a line was patched; a stale key writes nothing.
func (s *service) Patch(ctx context.Context, scope string, key Key, refresh Refresh) bool {
	if refresh.empty() {
		return false
	}
	if refresh.UnitPrice != nil && refresh.UnitPrice.IsNegative() {
		return false
	}

	patched := false
	s.store.View(ctx, scope, func(lines []Line) {
		idx := indexOf(lines, key)
		if idx < 0 {
			return
		}
		line := &lines[idx]
		if refresh.Name != "" {
			line.Name = refresh.Name
		}
		if refresh.UnitPrice != nil {
			line.UnitPrice = *refresh.UnitPrice
		}
		if refresh.ImageRef != "" {
			line.ImageRef = refresh.ImageRef
		}
		_ = s.store.Write(ctx, scope, lines)
		patched = true
	})
	if patched {
		s.count("patch")
	}
	return patched
}

// syntheticID derives a timestamp id for lines added without one, bumping
// the timestamp until it is unused in lines.
func (s *service) syntheticID(lines []Line) string {
	ms := s.now().UnixMilli()
	for {
		id := SyntheticIDPrefix + strconv.FormatInt(ms, 10)
		taken := false
		for _, line := range lines {
			if line.ProductID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		ms++
	}
}

func (s *service) count(op string) {
	if s.metrics != nil {
		s.metrics.IncMutation(op)
	}
}
