package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard shortcuts for the session browser.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	New       key.Binding
	Delete    key.Binding
	Favorite  key.Binding
	Preview   key.Binding
	Analyze   key.Binding
	Logs      key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// NewKeyMap returns the default key bindings.
func NewKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous session"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next session"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "make session current"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new session"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete session"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "save config as favorite"),
		),
		Preview: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "generate preview"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "run analysis"),
		),
		Logs: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "toggle log panel"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
	}
}
