package watch

import (
	"encoding/json"
	"time"

	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/router"
)

// DialogState is the TUI's view of one dialog, seeded from GET /dialogs and
// kept current from the event stream.
type DialogState struct {
	Name       string
	Kind       router.Kind
	Shown      bool
	Options    dialog.Options
	Pending    int
	InFlight   bool
	LastChange time.Time
}

// dialogPayload is the union of the fields window.* and queue.* events carry.
type dialogPayload struct {
	Dialog  string         `json:"dialog"`
	Options dialog.Options `json:"options"`
	Pending *int           `json:"pending"`
}

// seedDialogs replaces the table with a fresh listing, preserving order.
func seedDialogs(list []router.Info) ([]string, map[string]*DialogState) {
	order := make([]string, 0, len(list))
	states := make(map[string]*DialogState, len(list))
	for _, info := range list {
		st := &DialogState{Name: info.Name, Kind: info.Kind}
		if info.Window != nil {
			st.Shown = info.Window.Shown
			st.Options = info.Window.Options
		}
		if info.Queue != nil {
			st.Pending = len(info.Queue.Pending)
			st.InFlight = info.Queue.InFlight != nil
		}
		order = append(order, info.Name)
		states[info.Name] = st
	}
	return order, states
}

// applyEvent folds one event into states. It returns false for events that
// do not name a known dialog.
func applyEvent(states map[string]*DialogState, e events.Event, now time.Time) bool {
	var p dialogPayload
	if err := json.Unmarshal(e.Data, &p); err != nil || p.Dialog == "" {
		return false
	}
	st, ok := states[p.Dialog]
	if !ok {
		return false
	}

	switch e.Type {
	case events.WindowShow:
		st.Shown = true
		st.Options = p.Options
	case events.WindowHide:
		st.Shown = false
	case events.WindowClose, events.WindowClosed:
		st.Shown = false
		st.InFlight = false
	case events.QueueEnqueued:
		if p.Pending != nil {
			st.Pending = *p.Pending
		}
	case events.QueueReleased:
		st.InFlight = true
		if p.Pending != nil {
			st.Pending = *p.Pending
		}
	case events.QueueIdle:
		st.InFlight = false
		st.Pending = 0
	case events.QueueCleared:
		st.Pending = 0
	default:
		return false
	}
	st.LastChange = now
	return true
}
