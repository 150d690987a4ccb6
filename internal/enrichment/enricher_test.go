package enrichment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/products"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu       sync.Mutex
	products map[string]*products.Product
	gate     chan struct{}
	inFlight int32
	peak     int32
}

func (f *fakeSource) CartProduct(_ context.Context, id string) (*products.Product, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *outcomeRecorder) ObserveTask(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func newCart(t *testing.T) cart.Service {
	t.Helper()
	store, err := cart.NewStore(storage.NewMemory(), cart.StoreOptions{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc, err := cart.NewService(store, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func newEnricher(t *testing.T, source *fakeSource, svc cart.Service, opts Options) *Enricher {
	t.Helper()
	enricher, err := New(source, svc, opts)
	if err != nil {
		t.Fatalf("new enricher: %v", err)
	}
	return enricher
}

func seed(t *testing.T, svc cart.Service, l cart.Line) []cart.Line {
	t.Helper()
	lines, err := svc.AddOrMerge(context.Background(), "s1", l)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return lines
}

func line(id string) cart.Line {
	return cart.Line{ProductID: id, Name: "stale " + id, UnitPrice: decimal.NewFromInt(1), Quantity: 1}
}

func TestEnqueuePatchesLiveLines(t *testing.T) {
	svc := newCart(t)
	ctx := context.Background()
	lines := seed(t, svc, line("7"))

	source := &fakeSource{products: map[string]*products.Product{
		"7": {ID: "7", Name: "Tee", Price: decimal.NewFromInt(25), HasPrice: true, Image: "/tee.png"},
	}}
	recorder := &outcomeRecorder{}
	enricher := newEnricher(t, source, svc, Options{Metrics: recorder})

	enricher.Enqueue(ctx, "s1", lines)
	enricher.Wait()

	got := svc.Lines(ctx, "s1")
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	if got[0].Name != "Tee" || got[0].ImageRef != "/tee.png" || !got[0].UnitPrice.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("line not patched: %+v", got[0])
	}
	if recorder.outcomes["patched"] != 1 {
		t.Fatalf("expected one patched outcome, got %v", recorder.outcomes)
	}
}

func TestEnqueueAfterRemoveIsNoop(t *testing.T) {
	svc := newCart(t)
	ctx := context.Background()
	lines := seed(t, svc, line("7"))

	source := &fakeSource{
		gate:     make(chan struct{}),
		products: map[string]*products.Product{"7": {ID: "7", Name: "Tee"}},
	}
	recorder := &outcomeRecorder{}
	enricher := newEnricher(t, source, svc, Options{Metrics: recorder})

	enricher.Enqueue(ctx, "s1", lines)
	svc.Remove(ctx, "s1", lines[0].Key())
	close(source.gate)
	enricher.Wait()

	if got := svc.Lines(ctx, "s1"); len(got) != 0 {
		t.Fatalf("removed line came back: %+v", got)
	}
	if recorder.outcomes["stale"] != 1 {
		t.Fatalf("expected one stale outcome, got %v", recorder.outcomes)
	}
}

func TestEnqueueFailureLeavesLineUntouched(t *testing.T) {
	svc := newCart(t)
	ctx := context.Background()
	lines := seed(t, svc, line("missing"))

	recorder := &outcomeRecorder{}
	enricher := newEnricher(t, &fakeSource{}, svc, Options{Metrics: recorder})

	enricher.Enqueue(ctx, "s1", lines)
	enricher.Wait()

	got := svc.Lines(ctx, "s1")
	if len(got) != 1 || got[0].Name != "stale missing" {
		t.Fatalf("failed lookup must not touch the line, got %+v", got)
	}
	if recorder.outcomes["failed"] != 1 {
		t.Fatalf("expected one failed outcome, got %v", recorder.outcomes)
	}
}

func TestEnqueueSkipsSyntheticIDsAndHonorsDisabled(t *testing.T) {
	svc := newCart(t)
	source := &fakeSource{}
	recorder := &outcomeRecorder{}
	enricher := newEnricher(t, source, svc, Options{Metrics: recorder})

	enricher.Enqueue(context.Background(), "s1", []cart.Line{line(cart.SyntheticIDPrefix + "1"), line(cart.LegacyIDPrefix + "0"), line("")})
	enricher.Wait()
	if len(recorder.outcomes) != 0 {
		t.Fatalf("synthetic ids should be skipped, got %v", recorder.outcomes)
	}

	disabled := newEnricher(t, source, svc, Options{Metrics: recorder, Disabled: true})
	disabled.Enqueue(context.Background(), "s1", []cart.Line{line("7")})
	disabled.Wait()
	if len(recorder.outcomes) != 0 {
		t.Fatalf("disabled enricher should do nothing, got %v", recorder.outcomes)
	}
}

func TestEnqueueBoundsConcurrency(t *testing.T) {
	svc := newCart(t)
	gate := make(chan struct{})
	source := &fakeSource{gate: gate, products: map[string]*products.Product{}}
	enricher := newEnricher(t, source, svc, Options{Concurrency: 2})

	var batch []cart.Line
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		batch = append(batch, line(id))
	}
	enricher.Enqueue(context.Background(), "s1", batch)

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&source.inFlight) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 lookups in flight, got %d", atomic.LoadInt32(&source.inFlight))
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(gate)
	enricher.Wait()
	if peak := atomic.LoadInt32(&source.peak); peak > 2 {
		t.Fatalf("concurrency exceeded: peak %d", peak)
	}
}

func TestEnqueueIgnoresCallerCancellation(t *testing.T) {
	svc := newCart(t)
	ctx, cancel := context.WithCancel(context.Background())
	lines := seed(t, svc, line("7"))

	source := &fakeSource{products: map[string]*products.Product{"7": {ID: "7", Name: "Tee"}}}
	enricher := newEnricher(t, source, svc, Options{})

	enricher.Enqueue(ctx, "s1", lines)
	cancel()
	enricher.Wait()

	if name := svc.Lines(context.Background(), "s1")[0].Name; name != "Tee" {
		t.Fatalf("enrichment should outlive the request, got %q", name)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(nil, newCart(t), Options{}); err == nil {
		t.Fatal("expected error without a product source")
	}
}
