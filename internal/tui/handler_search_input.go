package tui

import tea "github.com/charmbracelet/bubbletea"

// searchInputHandler edits the URL search. The filter applies as you type.
type searchInputHandler struct{}

func (h searchInputHandler) HandleKey(m *DashboardModel, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return true, m.quit()
	case "escape", "esc":
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.setSearch("")
		return true, nil
	case "enter":
		m.searchActive = false
		m.searchInput.Blur()
		return true, nil
	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.setSearch(m.searchInput.Value())
		return true, cmd
	}
}

func (h searchInputHandler) HandleMouse(_ *DashboardModel, _ tea.MouseMsg) (bool, tea.Cmd) {
	return true, nil // swallow mouse events during search input
}
