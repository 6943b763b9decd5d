package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mattjoyce/quickpanel/internal/events"
)

// Subscriber is the read side of the event hub.
type Subscriber interface {
	Subscribe(prefixes ...string) (<-chan events.Event, func())
}

// RecordedPrefixes are the event families written to the log.
var RecordedPrefixes = []string{"dialog.", "queue.", "window.", "session."}

// Recorder copies hub events into the Store until its context ends.
type Recorder struct {
	store      *Store
	sub        Subscriber
	logger     *slog.Logger
	retention  time.Duration
	pruneEvery time.Duration
	now        func() time.Time
}

// NewRecorder creates a recorder. A zero retention keeps entries forever.
func NewRecorder(store *Store, sub Subscriber, retention time.Duration, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:      store,
		sub:        sub,
		logger:     logger.With("component", "audit"),
		retention:  retention,
		pruneEvery: time.Hour,
		now:        time.Now,
	}
}

// Start subscribes immediately and records in the background. The returned
// channel is closed once the recorder has drained and stopped.
func (r *Recorder) Start(ctx context.Context) <-chan struct{} {
	ch, cancel := r.sub.Subscribe(RecordedPrefixes...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		r.loop(ctx, ch)
	}()
	return done
}

func (r *Recorder) loop(ctx context.Context, ch <-chan events.Event) {
	r.prune(ctx)
	ticker := time.NewTicker(r.pruneEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain(ch)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.record(ctx, ev)
		case <-ticker.C:
			r.prune(ctx)
		}
	}
}

// drain writes whatever is already buffered so shutdown does not lose the
// last few transitions.
func (r *Recorder) drain(ch <-chan events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.record(ctx, ev)
		default:
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev events.Event) {
	if _, err := r.store.Append(ctx, ev); err != nil {
		r.logger.Warn("failed to record event", "type", ev.Type, "event_id", ev.ID, "error", err)
	}
}

func (r *Recorder) prune(ctx context.Context) {
	if r.retention <= 0 {
		return
	}
	n, err := r.store.Prune(ctx, r.now().Add(-r.retention))
	if err != nil {
		r.logger.Warn("failed to prune dialog log", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("pruned dialog log", "deleted", n, "retention", r.retention.String())
	}
}
