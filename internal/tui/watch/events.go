package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/quickpanel/internal/events"
)

const eventLogSize = 50

func renderEventStream(eventLog []events.Event, theme Theme, width, rows int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= rows {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n")),
	)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	var typeStyle lipgloss.Style
	switch {
	case e.Type == events.WindowShow, e.Type == events.QueueReleased:
		typeStyle = theme.StatusOK
	case e.Type == events.QueueCleared, e.Type == events.SessionKeyOut:
		typeStyle = theme.StatusFailed
	case strings.HasPrefix(e.Type, "queue."):
		typeStyle = theme.StatusPending
	case strings.HasPrefix(e.Type, "session."):
		typeStyle = theme.Highlight
	default:
		typeStyle = theme.Dim
	}

	return fmt.Sprintf("%s %s %s",
		theme.Dim.Render(e.At.Format("15:04:05")),
		typeStyle.Render(fmt.Sprintf("%-18s", e.Type)),
		extractEventDesc(e),
	)
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string
	if name, ok := data["dialog"].(string); ok {
		parts = append(parts, name)
	}
	if action, ok := data["action"].(string); ok {
		parts = append(parts, action)
	}
	if id, ok := data["request_id"].(string); ok {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", id))
	}
	if pending, ok := data["pending"].(float64); ok {
		parts = append(parts, fmt.Sprintf("waiting=%d", int(pending)))
	}
	if discarded, ok := data["discarded"].(float64); ok {
		parts = append(parts, fmt.Sprintf("discarded=%d", int(discarded)))
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if raw == "{}" || raw == "null" {
			return ""
		}
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}
	return strings.Join(parts, " ")
}
