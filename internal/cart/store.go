package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
)

// DefaultStorageKey is the item the cart is persisted under in each scope.
const DefaultStorageKey = "redseam_cart"

// Snapshot is published to subscribers after every write.
type Snapshot struct {
	Scope string
	Lines []Line
	Count int
}

// Listener receives snapshots synchronously, in subscription order, while the
// scope lock is held. Listeners must not mutate the same scope.
type Listener func(ctx context.Context, snap Snapshot)

type storeMetrics interface {
	IncStorageFailure(op string)
	ObserveBadgeCount(count int)
}

// StoreOptions configures a Store. Zero values fall back to defaults.
type StoreOptions struct {
	Key     string
	Logger  *logger.Logger
	Metrics storeMetrics
}

// Store reads and writes the cart of one scope at a time and notifies
// subscribers on every write.
type Store struct {
	kv      storage.KeyValue
	key     string
	logg    *logger.Logger
	metrics storeMetrics
	locks   *scopeLocks

	mu        sync.RWMutex
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
}

func NewStore(kv storage.KeyValue, opts StoreOptions) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value storage required")
	}
	if opts.Key == "" {
		opts.Key = DefaultStorageKey
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Store{
		kv:        kv,
		key:       opts.Key,
		logg:      opts.Logger,
		metrics:   opts.Metrics,
		locks:     newScopeLocks(),
		listeners: make(map[uint64]Listener),
	}, nil
}

// Read returns the persisted lines of scope. It never fails: a missing item,
// a backend error or an unparsable value all read as an empty cart.
func (s *Store) Read(ctx context.Context, scope string) []Line {
	raw, found, err := s.kv.GetItem(ctx, scope, s.key)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart read failed, using empty cart")
		s.countFailure("read")
		return []Line{}
	}
	if !found {
		return []Line{}
	}
	return Decode(raw)
}

// Write persists the full sequence with one SetItem and then notifies
// subscribers with the new state, whether or not the write succeeded.
func (s *Store) Write(ctx context.Context, scope string, lines []Line) error {
	lines = cloneLines(lines)
	err := s.persist(ctx, scope, lines)
	s.notify(ctx, Snapshot{Scope: scope, Lines: lines, Count: Count(lines)})
	return err
}

// Update runs one read-modify-write cycle under the scope lock and returns the
// state the transform produced. Write failures are logged and counted only.
func (s *Store) Update(ctx context.Context, scope string, fn func([]Line) []Line) []Line {
	unlock := s.locks.lock(scope)
	defer unlock()

	next := fn(s.Read(ctx, scope))
	if next == nil {
		next = []Line{}
	}
	_ = s.Write(ctx, scope, next)
	return cloneLines(next)
}

// View runs fn against the current lines under the scope lock without writing.
func (s *Store) View(ctx context.Context, scope string, fn func([]Line)) {
	unlock := s.locks.lock(scope)
	defer unlock()
	fn(s.Read(ctx, scope))
}

// Subscribe registers a listener; the returned func removes it.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) persist(ctx context.Context, scope string, lines []Line) error {
	raw, err := Encode(lines)
	if err == nil {
		err = s.kv.SetItem(ctx, scope, s.key, raw)
	}
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "lines", len(lines)), "cart write failed", err)
		s.countFailure("write")
		return err
	}
	return nil
}

func (s *Store) notify(ctx context.Context, snap Snapshot) {
	if s.metrics != nil {
		s.metrics.ObserveBadgeCount(snap.Count)
	}
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, Snapshot{Scope: snap.Scope, Lines: cloneLines(snap.Lines), Count: snap.Count})
	}
}

func (s *Store) countFailure(op string) {
	if s.metrics != nil {
		s.metrics.IncStorageFailure(op)
	}
}
