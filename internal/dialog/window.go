package dialog

import (
	"log/slog"
	"sync"

	"github.com/mattjoyce/quickpanel/internal/events"
)

// WindowState is a point-in-time view of a Window.
type WindowState struct {
	Name    string  `json:"name"`
	Shown   bool    `json:"shown"`
	Options Options `json:"options,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
}

// windowPayload is the body of the window.* events the renderer consumes.
type windowPayload struct {
	Dialog  string  `json:"dialog"`
	Options Options `json:"options,omitempty"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
}

// Window is a Handle backed by a window the external renderer draws.
// Lifecycle commands are published as window.* events; the renderer reports
// the user closing the window through Dismissed.
type Window struct {
	name   string
	width  int
	height int
	pub    events.Publisher
	logger *slog.Logger

	mu     sync.Mutex
	open   bool // shown or hidden, not yet closed
	shown  bool
	opts   Options
	closed Listeners
}

var _ Handle = (*Window)(nil)

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithSize sets the default window size sent to the renderer.
func WithSize(width, height int) WindowOption {
	return func(w *Window) {
		w.width = width
		w.height = height
	}
}

// NewWindow creates a hidden window handle.
func NewWindow(name string, pub events.Publisher, logger *slog.Logger, opts ...WindowOption) *Window {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Window{
		name:   name,
		pub:    pub,
		logger: logger.With("dialog", name),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Window) Name() string { return w.name }

// Show updates the window content and makes it visible. Showing an already
// visible window replaces its content.
func (w *Window) Show(opts Options) {
	w.mu.Lock()
	w.open = true
	w.shown = true
	w.opts = opts.Clone()
	payload := w.payloadLocked()
	w.mu.Unlock()

	w.logger.Debug("window shown")
	w.pub.Publish(events.WindowShow, payload)
}

// Hide makes the window invisible without dismissing it; closed listeners
// are not notified. A hidden window is still open and a later Close or
// Dismissed closes it.
func (w *Window) Hide() {
	w.mu.Lock()
	wasShown := w.shown
	w.shown = false
	w.mu.Unlock()

	if !wasShown {
		return
	}
	w.logger.Debug("window hidden")
	w.pub.Publish(events.WindowHide, windowPayload{Dialog: w.name})
}

// Close dismisses the window programmatically.
func (w *Window) Close() {
	if !w.dismiss() {
		return
	}
	w.logger.Debug("window closed")
	w.pub.Publish(events.WindowClose, windowPayload{Dialog: w.name})
	w.closed.Fire()
}

// Dismissed records that the renderer closed the window (the user clicked a
// button or the close box). Reports for a window that is not open are
// ignored, so a renderer may report the same closure twice.
func (w *Window) Dismissed() {
	if !w.dismiss() {
		return
	}
	w.logger.Debug("window dismissed by renderer")
	w.pub.Publish(events.WindowClosed, windowPayload{Dialog: w.name})
	w.closed.Fire()
}

func (w *Window) OnClosed(fn func()) func() {
	return w.closed.Add(fn)
}

// State returns a snapshot of the window.
func (w *Window) State() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WindowState{
		Name:    w.name,
		Shown:   w.shown,
		Options: w.opts.Clone(),
		Width:   w.width,
		Height:  w.height,
	}
}

func (w *Window) dismiss() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return false
	}
	w.open = false
	w.shown = false
	return true
}

func (w *Window) payloadLocked() windowPayload {
	return windowPayload{
		Dialog:  w.name,
		Options: w.opts.Clone(),
		Width:   w.width,
		Height:  w.height,
	}
}
