package watch

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/quickpanel/internal/events"
)

func newTestModel() Model {
	m := New("http://127.0.0.1:0", "key")
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	next, _ := m.Update(dialogsMsg(sampleList()))
	next, _ = next.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func TestNavigation(t *testing.T) {
	m := newTestModel()
	assert.Equal(t, "main", m.Selected())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "survey", m.Selected(), "stops at the last row")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "errorDialog", m.Selected())
}

func TestDismissOnlyShownDialog(t *testing.T) {
	m := newTestModel()

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd, "main is shown")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "nothing to dismiss", m.status)
}

func TestKeyOutAndQuit(t *testing.T) {
	m := newTestModel()

	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.NotNil(t, cmd)

	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEventsUpdateModel(t *testing.T) {
	m := newTestModel()

	next, cmd := m.Update(eventMsg(events.Event{ID: 7, Type: events.WindowShow, Data: []byte(`{"dialog":"survey","options":{"q":"how was it?"}}`)}))
	m = next.(Model)
	assert.NotNil(t, cmd, "keeps receiving")
	assert.True(t, m.dialogs["survey"].Shown)
	assert.Equal(t, int64(7), m.lastID)
	assert.Len(t, m.eventLog, 1)
	assert.True(t, m.health.Connected)

	next, _ = m.Update(eventMsg(events.Event{ID: 8, Type: events.SessionKeyedIn, Data: []byte(`{}`)}))
	m = next.(Model)
	assert.True(t, m.health.KeyedIn)
	next, _ = m.Update(eventMsg(events.Event{ID: 9, Type: events.SessionKeyOut, Data: []byte(`{}`)}))
	m = next.(Model)
	assert.False(t, m.health.KeyedIn)
}

func TestDisconnectSchedulesReconnect(t *testing.T) {
	m := newTestModel()
	next, cmd := m.Update(sseDisconnectedMsg{})
	m = next.(Model)
	assert.False(t, m.health.Connected)
	assert.NotEmpty(t, m.lastError)
	assert.NotNil(t, cmd)
}

func TestView(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(actionMsg{action: "dismissed", dialog: "main"})
	m = next.(Model)

	out := m.View()
	for _, want := range []string{"QUICKPANEL WATCH", "DIALOGS", "main", "errorDialog", "1 waiting", "main dismissed", "dismiss dialog"} {
		assert.Contains(t, out, want)
	}

	assert.Equal(t, "Connecting to quickpanel...", New("http://x", "").View())
}

func TestViewRendersErrorDialog(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(eventMsg(events.Event{ID: 1, Type: events.WindowShow, Data: []byte(
		`{"dialog":"main","options":{"title":"Oops","subhead":"Printer offline","details":"Check cable","errCode":"P-12","btnLabel1":"Retry"}}`)}))
	out := next.(Model).View()
	for _, want := range []string{"Oops", "Printer offline", "code P-12", "[ Retry ]"} {
		assert.Contains(t, out, want)
	}
}
