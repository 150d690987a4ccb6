// Package events fans cart snapshots out to the event streams open for each
// visitor scope, so every open view of a session repaints after a write.
package events

import (
	"context"
	"sync"

	"github.com/angelmondragon/redseam-storefront/internal/cart"
)

// DefaultBuffer is the per-stream backlog before older snapshots are dropped.
const DefaultBuffer = 4

type streamMetrics interface {
	StreamOpened()
	StreamClosed()
}

type subscriber struct {
	ch   chan cart.Snapshot
	once sync.Once
}

// end closes the channel once. Callers hold the hub lock so Publish never
// sends on a closed channel.
func (s *subscriber) end(metrics streamMetrics) {
	s.once.Do(func() {
		close(s.ch)
		if metrics != nil {
			metrics.StreamClosed()
		}
	})
}

// Hub is a cart.Listener. Publish never blocks the writer: a stream that
// falls behind loses its oldest pending snapshot, and the newest always lands.
type Hub struct {
	buffer  int
	metrics streamMetrics

	mu     sync.Mutex
	closed bool
	subs   map[string]map[*subscriber]struct{}
}

func NewHub(buffer int, metrics streamMetrics) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:  buffer,
		metrics: metrics,
		subs:    make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers snap to every stream of its scope.
func (h *Hub) Publish(_ context.Context, snap cart.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[snap.Scope] {
		select {
		case sub.ch <- snap:
			continue
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}

// Subscribe opens a stream for scope. The returned cancel closes the channel
// and is safe to call more than once, also after Close. A closed hub hands
// out channels that are already closed.
func (h *Hub) Subscribe(scope string) (<-chan cart.Snapshot, func()) {
	sub := &subscriber{ch: make(chan cart.Snapshot, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[scope] == nil {
		h.subs[scope] = make(map[*subscriber]struct{})
	}
	h.subs[scope][sub] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamOpened()
	}

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[scope], sub)
		if len(h.subs[scope]) == 0 {
			delete(h.subs, scope)
		}
		sub.end(h.metrics)
	}
}

// Close ends every open stream so the handlers serving them return.
// http.Server.Shutdown waits for connections to go idle, which an open stream
// never does, so main registers Close with RegisterOnShutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for scope, subs := range h.subs {
		for sub := range subs {
			sub.end(h.metrics)
		}
		delete(h.subs, scope)
	}
}

// Streams reports how many streams are open for scope.
func (h *Hub) Streams(scope string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[scope])
}
