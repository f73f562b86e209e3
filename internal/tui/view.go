package tui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight     = 1
	filterBarHeight  = 1
	statusLineHeight = 1
	tableHeadHeight  = 1
	// chartBlockHeight includes the chart border.
	chartBlockHeight = 8
	// minChartHeight is the terminal height below which the chart is hidden.
	minChartHeight = 24
)

// showChart reports whether the status chart fits on screen.
func (m *DashboardModel) showChart() bool {
	return m.height >= minChartHeight
}

// layoutHeights computes the vertical sections so rendering and cursor
// math agree on where the table starts and how many rows it has.
func (m *DashboardModel) layoutHeights() (chartHeight, bannerHeight, tableHeight int) {
	if m.showChart() {
		chartHeight = chartBlockHeight
	}
	if !m.notification.Empty() {
		bannerHeight = 1
	}
	tableHeight = m.height - headerHeight - chartHeight - filterBarHeight - bannerHeight - statusLineHeight
	if tableHeight < 0 {
		tableHeight = 0
	}
	return chartHeight, bannerHeight, tableHeight
}

// tableRows is the number of flow rows that fit below the table header.
func (m *DashboardModel) tableRows() int {
	_, _, tableHeight := m.layoutHeights()
	return max(0, tableHeight-tableHeadHeight)
}

// tableTop is the screen row of the first flow row.
func (m *DashboardModel) tableTop() int {
	chartHeight, _, _ := m.layoutHeights()
	return headerHeight + chartHeight + filterBarHeight + tableHeadHeight
}

// rowAt maps a screen row to an index into the visible flows.
func (m *DashboardModel) rowAt(y int) (int, bool) {
	rel := y - m.tableTop()
	if rel < 0 || rel >= m.tableRows() {
		return 0, false
	}
	idx := m.offset + rel
	if idx >= len(m.visible) {
		return 0, false
	}
	return idx, true
}

// View renders the dashboard
func (m *DashboardModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing dashboard..."
	}

	if modal := m.TopModal(); modal != nil {
		return modal.View(m.width, m.height)
	}

	return m.renderDashboard()
}

// renderDashboard renders the main dashboard layout
func (m *DashboardModel) renderDashboard() string {
	if m.height < 12 || m.width < 60 {
		return "Terminal too small. Resize to at least 60x12."
	}

	chartHeight, bannerHeight, tableHeight := m.layoutHeights()

	sections := []string{m.renderHeader(m.width)}
	if chartHeight > 0 {
		sections = append(sections, m.renderStatusChart(m.width, chartHeight))
	}
	sections = append(sections, m.renderFilterBar(m.width))
	sections = append(sections, m.renderTable(m.width, tableHeight))
	if bannerHeight > 0 {
		sections = append(sections, m.renderBanner(m.width))
	}
	sections = append(sections, m.renderStatusLine())

	return lipgloss.NewStyle().
		MaxWidth(m.width).
		MaxHeight(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
