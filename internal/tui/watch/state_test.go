package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/queue"
	"github.com/mattjoyce/quickpanel/internal/router"
)

func sampleList() []router.Info {
	return []router.Info{
		{Name: "main", Kind: router.KindDirect, Window: &dialog.WindowState{Name: "main", Shown: true}},
		{Name: "errorDialog", Kind: router.KindSequential,
			Window: &dialog.WindowState{Name: "errorDialog"},
			Queue:  &queue.Snapshot{Name: "errorDialog", State: queue.StateScheduled, Pending: []queue.Request{{ID: "r1"}}},
		},
		{Name: "survey", Kind: router.KindDirect},
	}
}

func TestSeedDialogs(t *testing.T) {
	order, states := seedDialogs(sampleList())
	assert.Equal(t, []string{"main", "errorDialog", "survey"}, order)
	assert.True(t, states["main"].Shown)
	assert.Equal(t, 1, states["errorDialog"].Pending)
	assert.False(t, states["errorDialog"].InFlight)
	assert.False(t, states["survey"].Shown, "lazy dialog not created yet")
}

func TestApplyEvent(t *testing.T) {
	_, states := seedDialogs(sampleList())
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	ev := func(typ, data string) events.Event {
		return events.Event{Type: typ, Data: []byte(data)}
	}

	require.True(t, applyEvent(states, ev(events.QueueEnqueued, `{"dialog":"errorDialog","pending":2}`), now))
	assert.Equal(t, 2, states["errorDialog"].Pending)
	assert.Equal(t, now, states["errorDialog"].LastChange)

	require.True(t, applyEvent(states, ev(events.QueueReleased, `{"dialog":"errorDialog","pending":1}`), now))
	assert.True(t, states["errorDialog"].InFlight)
	assert.Equal(t, 1, states["errorDialog"].Pending)

	require.True(t, applyEvent(states, ev(events.WindowShow, `{"dialog":"errorDialog","options":{"errCode":"E1"}}`), now))
	assert.True(t, states["errorDialog"].Shown)
	assert.Equal(t, "E1", states["errorDialog"].Options["errCode"])

	require.True(t, applyEvent(states, ev(events.WindowClosed, `{"dialog":"errorDialog"}`), now))
	assert.False(t, states["errorDialog"].Shown)
	assert.False(t, states["errorDialog"].InFlight)

	require.True(t, applyEvent(states, ev(events.QueueCleared, `{"dialog":"errorDialog","discarded":1}`), now))
	assert.Zero(t, states["errorDialog"].Pending)

	require.True(t, applyEvent(states, ev(events.WindowHide, `{"dialog":"main"}`), now))
	assert.False(t, states["main"].Shown)

	assert.False(t, applyEvent(states, ev(events.WindowShow, `{"dialog":"settings"}`), now), "unknown dialog")
	assert.False(t, applyEvent(states, ev(events.SessionKeyOut, `{}`), now), "no dialog field")
	assert.False(t, applyEvent(states, ev(events.DialogShow, `{"dialog":"main"}`), now), "router events do not change window state")
	assert.False(t, applyEvent(states, ev(events.WindowShow, `garbage`), now))
}

func TestExtractEventDesc(t *testing.T) {
	e := events.Event{Type: events.QueueReleased, Data: []byte(`{"dialog":"errorDialog","request_id":"0123456789abcdef","pending":3}`)}
	assert.Equal(t, "errorDialog [01234567] waiting=3", extractEventDesc(e))

	e = events.Event{Type: events.SessionKeyOut, Data: []byte(`{}`)}
	assert.Empty(t, extractEventDesc(e))

	e = events.Event{Type: events.QueueCleared, Data: []byte(`{"dialog":"errorDialog","discarded":2}`)}
	assert.Equal(t, "errorDialog discarded=2", extractEventDesc(e))
}

func TestActivityDecay(t *testing.T) {
	var a Activity
	start := time.Now()
	a.OnEvent(start)
	assert.Equal(t, 5, a.Level())

	a.Decay(start.Add(3 * time.Second))
	assert.Equal(t, 4, a.Level())
	a.Decay(start.Add(11 * time.Second))
	assert.Zero(t, a.Level())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "3m 5s", formatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h 1m", formatDuration(2*time.Hour+time.Minute))
}
