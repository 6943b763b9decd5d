package router

import (
	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/queue"
	"github.com/mattjoyce/quickpanel/internal/session"
)

// Kind classifies a registered dialog.
type Kind string

const (
	// KindDirect dialogs are shown immediately.
	KindDirect Kind = "direct"
	// KindSequential dialogs go through their queue so only one is visible at a time.
	KindSequential Kind = "sequential"
)

// SurveyDialog is the dialog closed when the user keys out.
const SurveyDialog = "survey"

// Dialogs is the routing contract exposed to the application shell.
type Dialogs interface {
	Get(name string) (dialog.Handle, bool)
	Show(name string, opts dialog.Options) error
	Hide(name string) error
	Close(name string) error
}

// SessionWatcher is the part of the session signal the router observes.
type SessionWatcher interface {
	Watch(fn func(session.Transition)) (cancel func())
}

// Info describes one registered dialog for listings.
type Info struct {
	Name   string              `json:"name"`
	Kind   Kind                `json:"kind"`
	Window *dialog.WindowState `json:"window,omitempty"`
	Queue  *queue.Snapshot     `json:"queue,omitempty"`
}
