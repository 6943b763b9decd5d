package events

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Event types published by the dialog orchestration components.
const (
	DialogShow     = "dialog.show"
	DialogHide     = "dialog.hide"
	DialogClose    = "dialog.close"
	QueueEnqueued  = "queue.enqueued"
	QueueReleased  = "queue.released"
	QueueIdle      = "queue.idle"
	QueueCleared   = "queue.cleared"
	WindowShow     = "window.show"
	WindowHide     = "window.hide"
	WindowClose    = "window.close"
	WindowClosed   = "window.closed"
	SessionKeyedIn = "session.keyed_in"
	SessionKeyOut  = "session.keyed_out"
)

type Event struct {
	ID   int64     `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data []byte    `json:"data"` // JSON payload
}

// Publisher is the write side of the hub. Components depend on this rather
// than on *Hub so tests can record what was published.
type Publisher interface {
	Publish(eventType string, data any)
}

// Nop discards everything published to it.
type Nop struct{}

func (Nop) Publish(string, any) {}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
type Hub struct {
	mu     sync.Mutex
	nextID int64
	ring   []Event
	start  int
	size   int

	subs      map[int]subscription
	nextSubID int
}

type subscription struct {
	ch       chan Event
	prefixes []string
}

func (s subscription) wants(eventType string) bool {
	if len(s.prefixes) == 0 {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(eventType, p) {
			return true
		}
	}
	return false
}

var _ Publisher = (*Hub)(nil)

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]subscription),
	}
}

// Publish assigns the next ID and stores the event under one lock, so ring
// order, replay order and ID order agree.
func (h *Hub) Publish(eventType string, data any) {
	payload := []byte("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	h.mu.Lock()
	h.nextID++
	ev := Event{
		ID:   h.nextID,
		Type: eventType,
		At:   time.Now().UTC(),
		Data: payload,
	}
	h.pushLocked(ev)
	for _, sub := range h.subs {
		if !sub.wants(eventType) {
			continue
		}
		// Don't let slow clients block producers.
		select {
		case sub.ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe returns a channel receiving every event whose type starts with
// one of prefixes (all events when none are given) and a cancel func that
// closes the channel.
func (h *Hub) Subscribe(prefixes ...string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 128)
	h.subs[id] = subscription{ch: ch, prefixes: prefixes}

	cancel := func() {
		h.mu.Lock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// If lastID is 0, the full ring buffer snapshot is returned.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if lastID == 0 || ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if capacity == 0 {
		return
	}

	if h.size < capacity {
		idx := (h.start + h.size) % capacity
		h.ring[idx] = ev
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
