package dialog

import "sync"

// Lazy wraps a handle that is only constructed when first shown. Closed
// listeners registered before construction are forwarded once the real
// handle exists.
type Lazy struct {
	factory func() Handle

	mu     sync.Mutex
	handle Handle
	closed Listeners
}

var _ Handle = (*Lazy)(nil)

func NewLazy(factory func() Handle) *Lazy {
	return &Lazy{factory: factory}
}

// Show creates the underlying handle if needed and shows it.
func (l *Lazy) Show(opts Options) {
	l.ensure().Show(opts)
}

// Hide is a no-op until the handle has been created.
func (l *Lazy) Hide() {
	if h := l.current(); h != nil {
		h.Hide()
	}
}

// Close is a no-op until the handle has been created.
func (l *Lazy) Close() {
	if h := l.current(); h != nil {
		h.Close()
	}
}

func (l *Lazy) OnClosed(fn func()) func() {
	return l.closed.Add(fn)
}

// Created reports whether the underlying handle exists yet.
func (l *Lazy) Created() bool {
	return l.current() != nil
}

// Unwrap returns the underlying handle, or nil if it has not been created.
func (l *Lazy) Unwrap() Handle {
	return l.current()
}

func (l *Lazy) current() Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

func (l *Lazy) ensure() Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		l.handle = l.factory()
		l.handle.OnClosed(l.closed.Fire)
	}
	return l.handle
}
