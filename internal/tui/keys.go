package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the TUI.
type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Refresh  key.Binding
	Jump     [3]key.Binding

	// Explorer symbol cycling
	NextSymbol key.Binding
	PrevSymbol key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	Jump: [3]key.Binding{
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "analyze")),
		key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "explorer")),
	},

	NextSymbol: key.NewBinding(key.WithKeys("s", "right"), key.WithHelp("s", "next symbol")),
	PrevSymbol: key.NewBinding(key.WithKeys("S", "left"), key.WithHelp("S", "prev symbol")),
}
