package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/events"
)

// Sequential serializes show requests for a single dialog handle: at most one
// request is in flight, requests are released in arrival order, and each
// release waits for the configured delay.
type Sequential struct {
	name      string
	handle    dialog.Handle
	delay     time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	pub       events.Publisher
	logger    *slog.Logger
	keyOut    KeyOutSource

	mu       sync.Mutex
	pending  []Request
	inFlight *Request
	timer    Timer
	gen      uint64
	stopped  bool
	unsubs   []func()
}

// Option configures a Sequential queue.
type Option func(*Sequential)

// WithDelay sets the pause before each release. Non-positive values keep the default.
func WithDelay(d time.Duration) Option {
	return func(q *Sequential) {
		if d > 0 {
			q.delay = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(q *Sequential) {
		if fn != nil {
			q.afterFunc = fn
		}
	}
}

// WithClock replaces time.Now for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(q *Sequential) {
		if now != nil {
			q.now = now
		}
	}
}

// WithPublisher sets where queue transitions are published.
func WithPublisher(pub events.Publisher) Option {
	return func(q *Sequential) {
		if pub != nil {
			q.pub = pub
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Sequential) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithClearOnKeyOut makes the queue discard its pending requests whenever src
// broadcasts a key-out.
func WithClearOnKeyOut(src KeyOutSource) Option {
	return func(q *Sequential) {
		q.keyOut = src
	}
}

// New creates a queue for handle and subscribes to its closed notification.
func New(name string, handle dialog.Handle, opts ...Option) *Sequential {
	q := &Sequential{
		name:      name,
		handle:    handle,
		delay:     DefaultNextDialogTimeout,
		afterFunc: realAfterFunc,
		now:       time.Now,
		pub:       events.Nop{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("component", "queue", "dialog", name)

	q.unsubs = append(q.unsubs, handle.OnClosed(q.onClosed))
	if q.keyOut != nil {
		q.unsubs = append(q.unsubs, q.keyOut.OnKeyOut(func() {
			n := q.Clear()
			q.logger.Info("cleared on key-out", "discarded", n)
		}))
	}
	return q
}

func (q *Sequential) Name() string { return q.name }

// Delay returns the configured pause before each release.
func (q *Sequential) Delay() time.Duration { return q.delay }

// Enqueue appends a show request and returns its ID. If nothing is in flight
// or scheduled, a release of the head is scheduled immediately.
func (q *Sequential) Enqueue(opts dialog.Options) string {
	req := Request{
		ID:         uuid.NewString(),
		Options:    opts.Clone(),
		EnqueuedAt: q.now().UTC(),
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		q.logger.Warn("enqueue on stopped queue ignored")
		return ""
	}
	q.pending = append(q.pending, req)
	depth := len(q.pending)
	q.scheduleLocked()
	q.mu.Unlock()

	q.logger.Debug("request enqueued", "request_id", req.ID, "pending", depth)
	q.pub.Publish(events.QueueEnqueued, map[string]any{
		"dialog":     q.name,
		"request_id": req.ID,
		"pending":    depth,
	})
	return req.ID
}

// Clear discards every pending request and cancels a scheduled release. A
// request already in flight is left to close on its own. Returns the number
// of discarded requests.
func (q *Sequential) Clear() int {
	q.mu.Lock()
	n := len(q.pending)
	q.pending = nil
	q.cancelTimerLocked()
	q.mu.Unlock()

	q.pub.Publish(events.QueueCleared, map[string]any{
		"dialog":    q.name,
		"discarded": n,
	})
	return n
}

// Stop detaches the queue from its handle and key-out source and drops
// anything pending. Later enqueues are ignored.
func (q *Sequential) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.pending = nil
	q.cancelTimerLocked()
	unsubs := q.unsubs
	q.unsubs = nil
	q.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Len returns the number of requests not yet shown.
func (q *Sequential) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight reports whether a shown request is awaiting its closed notification.
func (q *Sequential) InFlight() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight != nil
}

func (q *Sequential) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stateLocked()
}

func (q *Sequential) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot{
		Name:    q.name,
		State:   q.stateLocked(),
		Pending: make([]Request, len(q.pending)),
	}
	copy(snap.Pending, q.pending)
	if q.inFlight != nil {
		r := *q.inFlight
		snap.InFlight = &r
	}
	return snap
}

func (q *Sequential) stateLocked() State {
	switch {
	case q.inFlight != nil:
		return StateInFlight
	case q.timer != nil:
		return StateScheduled
	default:
		return StateIdle
	}
}

// scheduleLocked arms the release timer when there is something to release
// and nothing in flight or already scheduled.
func (q *Sequential) scheduleLocked() {
	if q.stopped || len(q.pending) == 0 || q.inFlight != nil || q.timer != nil {
		return
	}
	gen := q.gen
	q.timer = q.afterFunc(q.delay, func() { q.release(gen) })
}

func (q *Sequential) cancelTimerLocked() {
	if q.timer == nil {
		return
	}
	q.timer.Stop()
	q.timer = nil
	// A timer that already fired but has not taken the lock yet sees a stale
	// generation and does nothing.
	q.gen++
}

// release shows the head request. Runs on the timer.
func (q *Sequential) release(gen uint64) {
	q.mu.Lock()
	if gen != q.gen || q.stopped {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	if len(q.pending) == 0 {
		q.mu.Unlock()
		q.pub.Publish(events.QueueIdle, map[string]any{"dialog": q.name})
		return
	}
	req := q.pending[0]
	q.pending[0] = Request{}
	q.pending = q.pending[1:]
	q.inFlight = &req
	remaining := len(q.pending)
	q.mu.Unlock()

	q.logger.Info("releasing dialog", "request_id", req.ID, "pending", remaining)
	q.pub.Publish(events.QueueReleased, map[string]any{
		"dialog":     q.name,
		"request_id": req.ID,
		"pending":    remaining,
	})
	q.handle.Show(req.Options)
}

// onClosed runs when the wrapped dialog is dismissed.
func (q *Sequential) onClosed() {
	q.mu.Lock()
	var closedID string
	if q.inFlight != nil {
		closedID = q.inFlight.ID
	}
	q.inFlight = nil
	q.scheduleLocked()
	idle := q.stateLocked() == StateIdle
	q.mu.Unlock()

	q.logger.Debug("dialog closed", "request_id", closedID)
	if idle {
		q.pub.Publish(events.QueueIdle, map[string]any{"dialog": q.name})
	}
}
