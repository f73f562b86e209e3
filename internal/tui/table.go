package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

const (
	colCursor = 2
	colCheck  = 4
	colMethod = 8
	colStatus = 7
	colTime   = 20
)

// renderTable renders the flow table: a header row and up to height-1 rows
// starting at the scroll offset.
func (m *DashboardModel) renderTable(width, height int) string {
	if height <= 0 {
		return ""
	}

	showTime := width >= 110
	urlWidth := width - colCursor - colCheck - colMethod - colStatus
	if showTime {
		urlWidth -= colTime
	}
	urlWidth = max(10, urlWidth)

	head := pad("", colCursor) + pad("SEL", colCheck) + pad("METHOD", colMethod) + pad("STATUS", colStatus) + pad("URL", urlWidth)
	if showTime {
		head += pad("TIME", colTime)
	}
	lines := []string{tableHeaderStyle.Render(truncate(head, width))}

	rows := height - tableHeadHeight
	if len(m.visible) == 0 {
		lines = append(lines, helpStyle.Render("  "+m.emptyTableText()))
		return padLines(lines, height)
	}

	offset := m.offset
	if m.cursor >= offset+rows {
		offset = m.cursor - rows + 1
	}
	offset = max(0, min(offset, len(m.visible)-rows))
	end := min(len(m.visible), offset+rows)
	for i := offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.visible[i], i == m.cursor, urlWidth, showTime, width))
	}
	return padLines(lines, height)
}

func (m *DashboardModel) emptyTableText() string {
	switch {
	case len(m.flows) == 0 && m.fetch.LastSuccess.IsZero():
		return "Waiting for the capture backend..."
	case len(m.flows) == 0:
		return "No flows captured yet."
	}
	return "No flows match the current filters. Press F to reset."
}

func (m *DashboardModel) renderRow(f model.Flow, atCursor bool, urlWidth int, showTime bool, width int) string {
	marker := "  "
	if atCursor {
		marker = "▶ "
	}

	check := "[ ] "
	if m.selection.IsSelected(f.ID) {
		check = selectedMarkStyle.Render("[x]") + " "
	}

	method := lipgloss.NewStyle().Foreground(methodColor(f.Method)).Render(pad(truncate(f.Method, colMethod-1), colMethod))
	status := lipgloss.NewStyle().Foreground(statusColor(f.Status)).Render(pad(f.StatusText(), colStatus))
	row := marker + check + method + status + pad(truncate(f.URL, urlWidth-1), urlWidth)
	if showTime {
		row += helpStyle.Render(pad(truncate(f.Timestamp, colTime-1), colTime))
	}

	if atCursor {
		return cursorRowStyle.Width(width).Render(row)
	}
	return row
}

// pad right-pads plain text to width cells.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func padLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

// rowLabel describes a flow in one line for status messages.
func rowLabel(f model.Flow) string {
	return fmt.Sprintf("%s %s", f.Method, f.URL)
}
