package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the monitor key bindings
type KeyMap struct {
	Quit          key.Binding
	ToggleRTS     key.Binding
	ToggleDTR     key.Binding
	SendBreak     key.Binding
	DiscardInput  key.Binding
	DiscardOutput key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		ToggleRTS: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle RTS"),
		),
		ToggleDTR: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle DTR"),
		),
		SendBreak: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "send break"),
		),
		DiscardInput: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "flush input"),
		),
		DiscardOutput: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "flush output"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleRTS, k.ToggleDTR, k.SendBreak, k.DiscardInput, k.DiscardOutput, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleRTS, k.ToggleDTR, k.SendBreak},
		{k.DiscardInput, k.DiscardOutput, k.ScrollUp, k.ScrollDown, k.Quit},
	}
}
