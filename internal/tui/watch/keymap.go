package watch

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the watch TUI bindings. It satisfies help.KeyMap.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Dismiss key.Binding
	KeyOut  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "dismiss dialog"),
		),
		KeyOut: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "key out"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dismiss, k.KeyOut, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Dismiss, k.KeyOut, k.Refresh},
		{k.Help, k.Quit},
	}
}
