package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/redseam-storefront/api/responses"
	"github.com/angelmondragon/redseam-storefront/internal/cart"
	"github.com/angelmondragon/redseam-storefront/internal/views"
	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
)

const (
	cartEventName   = "cart"
	streamHeartbeat = 25 * time.Second
)

type cartStreams interface {
	Subscribe(scope string) (<-chan cart.Snapshot, func())
}

// CartEvents handles GET /api/v1/cart/events. The stream opens with the
// current cart and then carries one "cart" event per write to the scope, each
// with the same payload as the JSON cart endpoints.
func CartEvents(sf *Storefront, hub cartStreams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := sf.requireMember(r)
		if err != nil {
			responses.WriteError(r.Context(), sf.Logger, w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), sf.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		stream, cancel := hub.Subscribe(scope)
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		q := r.URL.Query()
		panel := views.PanelFromQuery(q)
		returnTo := returnTarget(q.Get("return"))
		send := func(lines []cart.Line) error {
			chrome := sf.chromeFor(sf.Header.Resolve(r.Context(), scope), lines, panel, returnTo)
			payload := newCartResponse(lines, sf.DeliveryFee, sf.fragment(r.Context(), chrome))
			if err := writeEvent(w, cartEventName, payload); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		if err := send(sf.Carts.Lines(r.Context(), scope)); err != nil {
			return
		}

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case snap, open := <-stream:
				if !open {
					return
				}
				if err := send(snap.Lines); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
