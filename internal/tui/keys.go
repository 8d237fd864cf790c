package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	Click   key.Binding
	Clear   key.Binding
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Save    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev day")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev week")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next week")),
		Click:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "pick day")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear dates")),
		Next:    key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next month")),
		Prev:    key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev month")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload availability")),
		Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save draft")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Clear, k.Next, k.Prev, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Click, k.Clear, k.Next, k.Prev},
		{k.Refresh, k.Save, k.Help, k.Quit},
	}
}
