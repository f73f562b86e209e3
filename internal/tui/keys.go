package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all dashboard key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Escape    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Selection
	Toggle     key.Binding
	AllVisible key.Binding
	Clear      key.Binding

	// Filters
	Search     key.Binding
	MethodNext key.Binding
	MethodPrev key.Binding
	StatusNext key.Binding
	StatusPrev key.Binding
	ResetAll   key.Binding

	// Polling
	Refresh      key.Binding
	AutoRefresh  key.Binding
	IntervalUp   key.Binding
	IntervalDown key.Binding

	// Actions
	OpenAPI key.Binding
	Postman key.Binding
	Dismiss key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("escape", "esc"),
			key.WithHelp("esc", "clear filters/close"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "pagedown"),
			key.WithHelp("pgdn", "page down"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select/unselect"),
		),
		AllVisible: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select/unselect visible"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear selection"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search url"),
		),
		MethodNext: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next method"),
		),
		MethodPrev: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "prev method"),
		),
		StatusNext: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "next status"),
		),
		StatusPrev: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "prev status"),
		),
		ResetAll: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "reset filters"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		AutoRefresh: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "auto-refresh on/off"),
		),
		IntervalUp: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "faster refresh"),
		),
		IntervalDown: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "slower refresh"),
		),

		OpenAPI: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "generate OpenAPI"),
		),
		Postman: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate Postman"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss notification"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Search, k.Refresh, k.OpenAPI, k.Postman, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.PageUp, k.PageDown},
		{k.Toggle, k.AllVisible, k.Clear},
		{k.Search, k.MethodNext, k.MethodPrev, k.StatusNext, k.StatusPrev, k.ResetAll, k.Escape},
		{k.Refresh, k.AutoRefresh, k.IntervalUp, k.IntervalDown},
		{k.OpenAPI, k.Postman, k.Dismiss, k.Help, k.Quit},
	}
}
