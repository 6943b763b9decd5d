// Package session holds the keyed-in user signal the dialog layer reacts to.
//
// Two notifications are offered:
// Watch observes every change of the token (the router closes the survey when
// the token goes away), while OnKeyOut is the application-level key-out
// broadcast that sequential queues opt into to drop their pending requests.
package session

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mattjoyce/quickpanel/internal/events"
)

// Transition describes a change of the keyed-in token. An empty token means
// nobody is keyed in.
type Transition struct {
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current,omitempty"`
}

// KeyedOut reports whether the transition ends a session.
func (t Transition) KeyedOut() bool {
	return t.Previous != "" && t.Current == ""
}

// Session is the externally owned keyed-in token. It is safe for concurrent use.
type Session struct {
	pub    events.Publisher
	logger *slog.Logger

	mu       sync.Mutex
	token    string
	nextID   int
	watchers map[int]func(Transition)
	keyOuts  map[int]func()
}

// New creates a session with nobody keyed in.
func New(pub events.Publisher, logger *slog.Logger) *Session {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		pub:      pub,
		logger:   logger.With("component", "session"),
		watchers: make(map[int]func(Transition)),
		keyOuts:  make(map[int]func()),
	}
}

// Token returns the current token and whether someone is keyed in.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// SetToken changes the keyed-in token. Watchers run only when the value
// actually changes; a blank token means absent.
func (s *Session) SetToken(token string) {
	s.setToken(token)
}

// setToken reports whether this call changed the token. The compare and the
// swap share one critical section, so concurrent callers cannot both win.
func (s *Session) setToken(token string) bool {
	token = strings.TrimSpace(token)

	s.mu.Lock()
	prev := s.token
	if prev == token {
		s.mu.Unlock()
		return false
	}
	s.token = token
	watchers := collect(s.watchers)
	s.mu.Unlock()

	tr := Transition{Previous: prev, Current: token}
	if token != "" {
		s.logger.Info("user keyed in")
		s.pub.Publish(events.SessionKeyedIn, map[string]any{"switched": prev != ""})
	}
	for _, fn := range watchers {
		fn(tr)
	}
	return true
}

// KeyIn is SetToken with a non-empty token.
func (s *Session) KeyIn(token string) {
	s.SetToken(token)
}

// KeyOut clears the token and, if someone was keyed in, fires the key-out
// broadcast. Returns false when nobody was keyed in; of several concurrent
// callers only the one that cleared the token broadcasts.
func (s *Session) KeyOut() bool {
	if !s.setToken("") {
		return false
	}
	s.BroadcastKeyOut()
	return true
}

// BroadcastKeyOut fires the key-out broadcast without touching the token.
func (s *Session) BroadcastKeyOut() {
	s.mu.Lock()
	fns := collect(s.keyOuts)
	s.mu.Unlock()

	s.logger.Info("user keyed out", "listeners", len(fns))
	s.pub.Publish(events.SessionKeyOut, nil)
	for _, fn := range fns {
		fn()
	}
}

// Watch registers fn for every token change. Registration does not replay the
// current value.
func (s *Session) Watch(fn func(Transition)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// OnKeyOut registers fn for the key-out broadcast.
func (s *Session) OnKeyOut(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.keyOuts[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.keyOuts, id)
		s.mu.Unlock()
	}
}

// collect returns the callbacks in registration order.
func collect[F any](m map[int]F) []F {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]F, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
