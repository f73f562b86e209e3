package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// renderHelpModalWithViewport renders the help modal using the provided viewport.
func (m *DashboardModel) renderHelpModalWithViewport(vp *viewport.Model, width, height int) string {
	modalWidth := width - 8   // Leave 4 chars margin on each side
	modalHeight := height - 4 // Leave 2 lines margin top and bottom

	contentWidth := modalWidth - 4
	contentHeight := modalHeight - 4

	vp.Width = contentWidth
	vp.Height = contentHeight
	vp.SetContent(m.renderHelpModalContent())

	contentPane := lipgloss.NewStyle().
		Width(contentWidth).
		Height(contentHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		Render(vp.View())

	header := lipgloss.NewStyle().
		Width(contentWidth).
		Foreground(ColorBlue).
		Bold(true).
		Render("Help")

	statusBar := helpStyle.Render("up/down/Wheel: Scroll | PgUp/PgDn: Page | ?: Toggle Help | ESC: Close")

	modal := lipgloss.JoinVertical(lipgloss.Left, header, contentPane, statusBar)

	finalModal := lipgloss.NewStyle().
		Width(modalWidth).
		Height(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(modal)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, finalModal)
}

// renderHelpModalContent lists every binding of the key map, grouped.
func (m *DashboardModel) renderHelpModalContent() string {
	titles := []string{"NAVIGATION", "SELECTION", "FILTERS", "REFRESH", "ACTIONS"}

	var b strings.Builder
	b.WriteString("Flow Dashboard Help\n\n")
	for i, group := range m.keys.FullHelp() {
		if i < len(titles) {
			b.WriteString(titles[i] + ":\n")
		}
		for _, binding := range group {
			h := binding.Help()
			b.WriteString("  " + pad(h.Key, 15) + "- " + h.Desc + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(`NOTES:
  Selection is kept across filters and refreshes, including flows that
  are currently hidden or no longer reported by the backend.
  Generation uses every selected flow. Generated files are downloaded
  into the configured download directory.
`)
	return b.String()
}
