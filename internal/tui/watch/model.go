package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/quickpanel/internal/events"
)

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	client *Client

	width  int
	height int

	health   HealthState
	order    []string
	dialogs  map[string]*DialogState
	eventLog []events.Event
	lastID   int64

	ticker   Ticker
	activity Activity

	theme    Theme
	keys     KeyMap
	help     help.Model
	selected int

	hubEvents chan events.Event

	status    string
	lastError string
	now       func() time.Time
}

// New creates a new watch TUI model.
func New(apiURL, apiKey string) *Model {
	return &Model{
		client:    NewClient(apiURL, apiKey),
		dialogs:   make(map[string]*DialogState),
		hubEvents: make(chan events.Event, 100),
		ticker:    NewTicker(),
		theme:     NewDefaultTheme(),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		now:       time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.client, 0, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		fetchHealth(m.client),
		fetchDialogs(m.client),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

// Selected returns the name of the highlighted dialog, or "".
func (m Model) Selected() string {
	if m.selected < 0 || m.selected >= len(m.order) {
		return ""
	}
	return m.order[m.selected]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.order)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Dismiss):
			name := m.Selected()
			if st := m.dialogs[name]; st != nil && st.Shown {
				return m, dismissDialog(m.client, name)
			}
			m.status = "nothing to dismiss"
		case key.Matches(msg, m.keys.KeyOut):
			return m, keyOut(m.client)
		case key.Matches(msg, m.keys.Refresh):
			return m, tea.Batch(fetchDialogs(m.client), fetchHealth(m.client))
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.ticker.Tick()
		m.activity.Decay(m.now())
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case eventMsg:
		e := events.Event(msg)
		m.lastID = max(m.lastID, e.ID)

		m.eventLog = append([]events.Event{e}, m.eventLog...)
		if len(m.eventLog) > eventLogSize {
			m.eventLog = m.eventLog[:eventLogSize]
		}
		m.activity.OnEvent(m.now())
		applyEvent(m.dialogs, e, m.now())
		switch e.Type {
		case events.SessionKeyedIn:
			m.health.KeyedIn = true
		case events.SessionKeyOut:
			m.health.KeyedIn = false
		}

		m.health.Connected = true
		m.lastError = ""
		return m, receiveNextEvent(m.hubEvents)

	case dialogsMsg:
		m.order, m.dialogs = seedDialogs(msg)
		if m.selected >= len(m.order) {
			m.selected = max(0, len(m.order)-1)
		}

	case actionMsg:
		m.status = msg.action
		if msg.dialog != "" {
			m.status = fmt.Sprintf("%s %s", msg.dialog, msg.action)
		}

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.Dialogs = msg.Dialogs
		m.health.Pending = msg.Pending
		m.health.KeyedIn = msg.KeyedIn
		m.health.Connected = true
		m.health.LastCheck = m.now()
		m.lastError = ""

		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.client)()
		})

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		// Refresh the listing too; events missed past the ring buffer are gone.
		return m, tea.Batch(subscribeToEvents(m.client, m.lastID, m.hubEvents), fetchDialogs(m.client))

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.client)()
		})
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to quickpanel..."
	}

	var selected *DialogState
	if name := m.Selected(); name != "" {
		selected = m.dialogs[name]
	}

	parts := []string{
		renderHeader(m.health, m.ticker, m.activity, m.theme, m.width, m.now()),
		renderDialogs(m.order, m.dialogs, m.selected, m.theme, m.width),
		renderDetail(selected, m.theme, m.width),
		renderEventStream(m.eventLog, m.theme, m.width, 10),
	}
	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(" ! "+m.lastError))
	} else if m.status != "" {
		parts = append(parts, m.theme.Dim.Render(" "+m.status))
	}
	parts = append(parts, " "+m.help.View(m.keys))

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
