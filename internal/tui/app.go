package tui

import tea "github.com/charmbracelet/bubbletea"

// App is the top-level Bubble Tea model. It owns the terminal size and
// hands every message to its page.
type App struct {
	page   Page
	width  int
	height int
}

// NewApp creates an App showing page.
func NewApp(page Page) *App {
	return &App{page: page}
}

// ActivePage returns the id of the page receiving input.
func (a *App) ActivePage() string {
	return a.page.ID()
}

func (a *App) Init() tea.Cmd {
	return a.page.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}
	return a, a.page.Update(msg)
}

func (a *App) View() string {
	return a.page.View(a.width, a.height)
}
