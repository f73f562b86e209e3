package tui

import tea "github.com/charmbracelet/bubbletea"

// Page represents a top-level screen in the TUI.
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
}

// DashboardPageID identifies the flow dashboard.
const DashboardPageID = "flows"

// DashboardPage adapts DashboardModel to the Page interface.
type DashboardPage struct {
	model *DashboardModel
}

// NewDashboardPage wraps m as a page.
func NewDashboardPage(m *DashboardModel) *DashboardPage {
	return &DashboardPage{model: m}
}

func (p *DashboardPage) ID() string { return DashboardPageID }

func (p *DashboardPage) Init() tea.Cmd { return p.model.Init() }

func (p *DashboardPage) Update(msg tea.Msg) tea.Cmd {
	_, cmd := p.model.Update(msg)
	return cmd
}

func (p *DashboardPage) View(width, height int) string {
	if p.model.width != width || p.model.height != height {
		p.model.width, p.model.height = width, height
		p.model.clampCursor()
	}
	return p.model.View()
}
