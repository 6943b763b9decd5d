package dialog

import (
	"maps"
	"slices"
	"sync"
)

//go:generate mockgen -destination=mocks/mock_handle.go -package=mocks github.com/mattjoyce/quickpanel/internal/dialog Handle

// Options is the opaque payload a dialog is shown with.
type Options map[string]any

// Clone returns a shallow copy. A nil receiver yields nil.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

// Handle is a dialog instance the orchestrator can drive.
type Handle interface {
	Show(opts Options)
	Hide()
	Close()
	// OnClosed registers fn to run every time the dialog is dismissed.
	// The returned func removes the registration.
	OnClosed(fn func()) (cancel func())
}

// Listeners is a set of zero-argument callbacks. The zero value is ready to use.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

// Add registers fn and returns a func that removes it again.
func (l *Listeners) Add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

// Fire calls every registered callback in registration order. Callbacks run
// without the lock held, so they may add or remove listeners.
func (l *Listeners) Fire() {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len reports how many callbacks are registered.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
