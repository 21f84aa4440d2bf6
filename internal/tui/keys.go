package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the roster screen
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Remarks    key.Binding
	Search     key.Binding
	AllPresent key.Binding
	AllAbsent  key.Binding
	Confirm    key.Binding
	Decline    key.Binding
	Submit     key.Binding
	Escape     key.Binding
	Enter      key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "t"),
			key.WithHelp("space", "toggle"),
		),
		Remarks: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "remarks"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		AllPresent: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "all present"),
		),
		AllAbsent: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "all absent"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "decline"),
		),
		Submit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back/cancel"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Remarks, k.Search, k.AllPresent, k.AllAbsent, k.Submit, k.Escape, k.Quit}
}
