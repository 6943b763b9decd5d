package queue

import (
	"time"

	"github.com/mattjoyce/quickpanel/internal/dialog"
)

// State is the lifecycle state of a sequential queue.
type State string

const (
	// StateIdle: nothing in flight and no release scheduled.
	StateIdle State = "idle"
	// StateScheduled: a release of the head request is waiting on the delay.
	StateScheduled State = "scheduled"
	// StateInFlight: a request has been shown and its closed notification
	// has not arrived yet.
	StateInFlight State = "in_flight"
)

// DefaultNextDialogTimeout is the pause before a queued dialog is shown, so
// the user notices the previous one closing.
const DefaultNextDialogTimeout = 300 * time.Millisecond

// Request is one pending show request.
type Request struct {
	ID         string         `json:"id"`
	Options    dialog.Options `json:"options,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// Snapshot is a point-in-time view of a queue.
type Snapshot struct {
	Name     string    `json:"name"`
	State    State     `json:"state"`
	Pending  []Request `json:"pending"`
	InFlight *Request  `json:"in_flight,omitempty"`
}

// Timer is the subset of *time.Timer the queue needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// KeyOutSource broadcasts the end of a keyed-in session.
type KeyOutSource interface {
	OnKeyOut(fn func()) (cancel func())
}
