package watch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/router"
)

func renderDialogs(order []string, states map[string]*DialogState, selected int, theme Theme, width int) string {
	innerWidth := width - 4

	if len(order) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("DIALOGS"),
			theme.Dim.Render("  No dialogs registered"),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	lines := make([]string, 0, len(order))
	for i, name := range order {
		st := states[name]
		line := fmt.Sprintf("%-20s %-10s %s %s", st.Name, st.Kind, renderStatus(st, theme), renderQueue(st, theme))
		if i == selected {
			line = theme.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("DIALOGS"),
		strings.Join(lines, "\n"),
	)
	return theme.Border.Width(innerWidth).Render(content)
}

func renderStatus(st *DialogState, theme Theme) string {
	if st.Shown {
		return theme.StatusOK.Render(fmt.Sprintf("%-8s", "shown"))
	}
	return theme.StatusIdle.Render(fmt.Sprintf("%-8s", "hidden"))
}

func renderQueue(st *DialogState, theme Theme) string {
	if st.Kind != router.KindSequential {
		return ""
	}
	switch {
	case st.Pending > 0:
		return theme.StatusPending.Render(fmt.Sprintf("%d waiting", st.Pending))
	case st.InFlight:
		return theme.Highlight.Render("in flight")
	default:
		return theme.Dim.Render("idle")
	}
}

// renderDetail shows what the renderer would draw for the selected dialog.
func renderDetail(st *DialogState, theme Theme, width int) string {
	innerWidth := width - 4
	title := theme.Title.Render("SELECTED")
	if st == nil {
		return theme.Border.Width(innerWidth).Render(title)
	}
	if !st.Shown {
		return theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, theme.Dim.Render("  "+st.Name+" is not shown")))
	}

	var lines []string
	if attrs := dialog.ErrorAttrsFrom(st.Options); attrs.Validate() == nil {
		lines = append(lines,
			theme.StatusFailed.Render(attrs.Title),
			attrs.Subhead,
			theme.Dim.Render(attrs.Details),
			theme.Dim.Render("code "+attrs.ErrCode),
		)
		if buttons := attrs.Buttons(); len(buttons) > 0 {
			lines = append(lines, theme.Highlight.Render("[ "+strings.Join(buttons, " ] [ ")+" ]"))
		}
	} else {
		keys := make([]string, 0, len(st.Options))
		for k := range st.Options {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", theme.Highlight.Render(k), st.Options[k]))
		}
		if len(lines) == 0 {
			lines = append(lines, theme.Dim.Render("(no options)"))
		}
	}

	body := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	return theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
