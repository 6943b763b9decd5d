package router

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/agnivade/levenshtein"

	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/session"
)

// ErrUnknownDialog is returned in strict mode for names that are not registered.
var ErrUnknownDialog = errors.New("unknown dialog")

// ErrNotDismissable is returned by Dismissed for handles that are not renderer windows.
var ErrNotDismissable = errors.New("dialog cannot be dismissed by the renderer")

// maxSuggestDistance bounds how far off a name may be and still get a suggestion.
const maxSuggestDistance = 3

// Router resolves dialog names and applies lifecycle commands. Sequential
// dialogs are shown through their queue; everything else directly.
type Router struct {
	reg           *Registry
	strict        bool
	closeOnKeyOut []string
	pub           events.Publisher
	logger        *slog.Logger
	sess          SessionWatcher
	unwatch       func()
}

var _ Dialogs = (*Router)(nil)

// Option configures a Router.
type Option func(*Router)

// WithStrict makes commands for unknown names return ErrUnknownDialog instead
// of doing nothing.
func WithStrict(strict bool) Option {
	return func(r *Router) { r.strict = strict }
}

// WithCloseOnKeyOut replaces the dialogs closed when the session ends.
// The default closes only the survey.
func WithCloseOnKeyOut(names ...string) Option {
	return func(r *Router) {
		r.closeOnKeyOut = append([]string(nil), names...)
	}
}

// WithSession subscribes the router to the keyed-in token.
func WithSession(s SessionWatcher) Option {
	return func(r *Router) { r.sess = s }
}

func WithPublisher(pub events.Publisher) Option {
	return func(r *Router) {
		if pub != nil {
			r.pub = pub
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Router over reg.
func New(reg *Registry, opts ...Option) *Router {
	if reg == nil {
		reg = NewRegistry()
	}
	r := &Router{
		reg:           reg,
		closeOnKeyOut: []string{SurveyDialog},
		pub:           events.Nop{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")
	if r.sess != nil {
		r.unwatch = r.sess.Watch(r.onSessionChange)
	}
	return r
}

// Registry returns the registry the router was built from.
func (r *Router) Registry() *Registry { return r.reg }

// Get resolves a name to its handle. Unknown names are not an error.
func (r *Router) Get(name string) (dialog.Handle, bool) {
	e, ok := r.reg.Lookup(name)
	if !ok {
		return nil, false
	}
	return e.Handle, true
}

// Show shows the named dialog, through its queue for sequential dialogs.
func (r *Router) Show(name string, opts dialog.Options) error {
	e, ok := r.reg.Lookup(name)
	if !ok {
		return r.unknown(name, "show")
	}

	if e.Queue != nil {
		id := e.Queue.Enqueue(opts)
		r.logger.Debug("show queued", "dialog", name, "request_id", id)
		r.pub.Publish(events.DialogShow, map[string]any{
			"dialog":     name,
			"queued":     true,
			"request_id": id,
		})
		return nil
	}

	e.Handle.Show(opts)
	r.logger.Debug("show", "dialog", name)
	r.pub.Publish(events.DialogShow, map[string]any{"dialog": name, "queued": false})
	return nil
}

// Hide hides the named dialog.
func (r *Router) Hide(name string) error {
	e, ok := r.reg.Lookup(name)
	if !ok {
		return r.unknown(name, "hide")
	}
	e.Handle.Hide()
	r.logger.Debug("hide", "dialog", name)
	r.pub.Publish(events.DialogHide, map[string]any{"dialog": name})
	return nil
}

// Close closes the named dialog.
func (r *Router) Close(name string) error {
	e, ok := r.reg.Lookup(name)
	if !ok {
		return r.unknown(name, "close")
	}
	e.Handle.Close()
	r.logger.Debug("close", "dialog", name)
	r.pub.Publish(events.DialogClose, map[string]any{"dialog": name})
	return nil
}

// Dismissed forwards a renderer's report that the user closed the named
// window.
func (r *Router) Dismissed(name string) error {
	e, ok := r.reg.Lookup(name)
	if !ok {
		return r.unknown(name, "dismissed")
	}
	h := e.Handle
	if lazy, ok := h.(*dialog.Lazy); ok {
		if h = lazy.Unwrap(); h == nil {
			return nil
		}
	}
	d, ok := h.(interface{ Dismissed() })
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotDismissable, name)
	}
	d.Dismissed()
	return nil
}

// List describes every registered dialog in registration order.
func (r *Router) List() []Info {
	out := make([]Info, 0, r.reg.Len())
	for _, name := range r.reg.Names() {
		out = append(out, r.describe(name))
	}
	return out
}

// Describe returns the listing entry for one dialog.
func (r *Router) Describe(name string) (Info, bool) {
	if _, ok := r.reg.Lookup(name); !ok {
		return Info{}, false
	}
	return r.describe(name), true
}

func (r *Router) describe(name string) Info {
	e, _ := r.reg.Lookup(name)
	info := Info{Name: name, Kind: e.Kind()}

	h := e.Handle
	if lazy, ok := h.(*dialog.Lazy); ok {
		h = lazy.Unwrap()
	}
	if st, ok := h.(interface{ State() dialog.WindowState }); ok {
		ws := st.State()
		info.Window = &ws
	}
	if e.Queue != nil {
		snap := e.Queue.Snapshot()
		info.Queue = &snap
	}
	return info
}

// Suggest returns the registered name closest to name, if any is close enough.
func (r *Router) Suggest(name string) (string, bool) {
	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range r.reg.Names() {
		d := levenshtein.ComputeDistance(name, candidate)
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best, best != ""
}

// Stop detaches from the session and stops every queue.
func (r *Router) Stop() {
	if r.unwatch != nil {
		r.unwatch()
		r.unwatch = nil
	}
	for _, name := range r.reg.Names() {
		if e, _ := r.reg.Lookup(name); e.Queue != nil {
			e.Queue.Stop()
		}
	}
}

func (r *Router) unknown(name, action string) error {
	r.logger.Debug("command for unknown dialog", "dialog", name, "action", action)
	if !r.strict {
		return nil
	}
	if s, ok := r.Suggest(name); ok {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownDialog, name, s)
	}
	return fmt.Errorf("%w %q", ErrUnknownDialog, name)
}

// onSessionChange closes the key-out dialogs when the token goes away. This
// is the router's only reaction to the session; queues clear themselves on
// the key-out broadcast.
func (r *Router) onSessionChange(tr session.Transition) {
	if !tr.KeyedOut() {
		return
	}
	r.logger.Info("session ended, closing dialogs", "dialogs", r.closeOnKeyOut)
	for _, name := range r.closeOnKeyOut {
		if err := r.Close(name); err != nil {
			r.logger.Warn("close on key-out failed", "dialog", name, "error", err)
		}
	}
}
