package views

import (
	"net/url"
	"strings"
)

// PanelState is the off-canvas cart panel state. There is no loading state:
// the panel renders synchronously from the stored cart.
type PanelState int

const (
	PanelClosed PanelState = iota
	PanelOpen
)

// PanelParam carries the panel state in page URLs as cart=open.
const (
	PanelParam     = "cart"
	PanelOpenValue = "open"
)

type Event string

const (
	EventActivate      Event = "activate"
	EventOverlayClick  Event = "overlay"
	EventCloseControl  Event = "close"
	EventEscape        Event = "escape"
	EventStartShopping Event = "start_shopping"
)

// Next applies e to s. Unknown events keep the current state.
func (s PanelState) Next(e Event) PanelState {
	switch e {
	case EventActivate:
		return PanelOpen
	case EventOverlayClick, EventCloseControl, EventEscape, EventStartShopping:
		return PanelClosed
	}
	return s
}

func (s PanelState) String() string {
	if s == PanelOpen {
		return "open"
	}
	return "closed"
}

// ParseEvent maps a query or form value onto an Event.
func ParseEvent(raw string) Event {
	return Event(strings.ToLower(strings.TrimSpace(raw)))
}

// PanelFromQuery reads the panel state from a request query.
func PanelFromQuery(q url.Values) PanelState {
	if strings.EqualFold(q.Get(PanelParam), PanelOpenValue) {
		return PanelOpen
	}
	return PanelClosed
}

// WithPanel returns target with the cart parameter set for s, keeping every
// other query parameter.
func WithPanel(target string, s PanelState) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	if s == PanelOpen {
		q.Set(PanelParam, PanelOpenValue)
	} else {
		q.Del(PanelParam)
	}
	u.RawQuery = q.Encode()
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
