package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tinytelemetry/flowdeck/internal/filter"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

// renderBranding renders "flowdeck" with a blue to green gradient.
func renderBranding() string {
	colors := []string{"#00A6FB", "#00B4E6", "#00C2D1", "#00CFBB", "#00D9A0", "#21D955", "#35DD2F", "#49E209"}
	chars := []rune("flowdeck")

	var b strings.Builder
	for i, ch := range chars {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(colors[i%len(colors)])).
			Bold(true).
			Render(string(ch)))
	}
	return b.String()
}

// renderHeader renders counts and fetch freshness.
func (m *DashboardModel) renderHeader(width int) string {
	left := renderBranding()
	if m.baseURL != "" {
		left += helpStyle.Render(" " + m.baseURL)
	}

	counts := fmt.Sprintf("%s flows • %s shown • %s selected",
		humanize.Comma(int64(len(m.flows))),
		humanize.Comma(int64(len(m.visible))),
		humanize.Comma(int64(m.selection.Size())))
	right := headerStyle.Render(counts) + "  " + m.renderFreshness()

	return joinEnds(left, right, width)
}

// renderFreshness describes the last fetch: in flight, failed, or how long
// ago it succeeded.
func (m *DashboardModel) renderFreshness() string {
	switch {
	case m.fetch.InFlight:
		return helpStyle.Render("⟳ fetching")
	case m.fetch.LastError != nil:
		text := "⚠ backend unreachable"
		if m.pollFailures > 1 {
			text = fmt.Sprintf("%s (%d×)", text, m.pollFailures)
		}
		return errorTextStyle.Render(text)
	case m.fetch.LastSuccess.IsZero():
		return helpStyle.Render("never updated")
	}
	return helpStyle.Render("updated " + m.relTime(m.fetch.LastSuccess))
}

func (m *DashboardModel) relTime(t time.Time) string {
	now := m.now()
	if now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// renderFilterBar renders the search input and the method and status filters.
func (m *DashboardModel) renderFilterBar(width int) string {
	var search string
	if m.searchActive {
		search = m.searchInput.View()
	} else if m.criteria.Search != "" {
		search = filterLabelStyle.Render("/ ") + filterValueStyle.Render(m.criteria.Search)
	} else {
		search = filterLabelStyle.Render("/ search url")
	}

	method := m.criteria.Method
	if method == "" {
		method = filter.AllMethods
	}
	right := filterLabelStyle.Render("method ") + filterValueStyle.Render(method) +
		filterLabelStyle.Render("  status ") + filterValueStyle.Render(m.criteria.Status.Label())

	return joinEnds(search, right, width)
}

// renderBanner renders the generation outcome until it is dismissed.
func (m *DashboardModel) renderBanner(width int) string {
	style := bannerOKStyle
	icon := "✔"
	if m.notification.Kind == model.NotifyError {
		style = bannerErrorStyle
		icon = "✖"
	}
	text := fmt.Sprintf("%s %s", icon, m.notification.Text)
	hint := helpStyle.Render("  x: dismiss")
	avail := width - lipgloss.Width(hint) - 2
	return style.Render(truncate(text, avail)) + hint
}

// renderStatusLine renders the status/help line at the bottom of the screen
func (m *DashboardModel) renderStatusLine() string {
	baseStyle := lipgloss.NewStyle().
		Background(ColorNavy).
		Foreground(ColorWhite)

	w := m.width
	veryNarrow := w < 70
	narrow := w < 100
	medium := w < 140

	var statusText string
	switch {
	case m.statusMsg != "":
		statusText = m.statusMsg
	case m.searchActive:
		if narrow {
			statusText = "Enter: Keep • ESC: Clear"
		} else {
			statusText = "Type to filter by URL • Enter: Keep • ESC: Clear"
		}
	case veryNarrow:
		statusText = "? • Space • o/g • q"
	case narrow:
		statusText = "?: Help • Space: Select • /: Search • o/g: Generate • q: Quit"
	case medium:
		statusText = "?: Help • Space: Select • a: Visible • /: Search • m/s: Filters • r: Refresh • o/g: Generate • q: Quit"
	default:
		statusText = "?: Help • ↑↓: Move • Space: Select • a: Visible • c: Clear • /: Search • m/s: Filters • r: Refresh • p: Auto • o: OpenAPI • g: Postman • q: Quit"
	}

	right := m.renderPollingIndicator()
	if m.generating {
		right = "⚙ generating • " + right
	}

	avail := w - lipgloss.Width(right) - 2
	left := truncate(" "+statusText, max(0, avail))
	pad := max(1, w-lipgloss.Width(left)-lipgloss.Width(right))

	return baseStyle.Width(w).Render(left + strings.Repeat(" ", pad) + right)
}

func (m *DashboardModel) renderPollingIndicator() string {
	if m.poller == nil {
		return "offline "
	}
	if !m.poller.Enabled() {
		return "⏸ auto-refresh off "
	}
	return fmt.Sprintf("● every %s ", formatInterval(m.poller.Interval()))
}

func formatInterval(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}

// joinEnds places left and right at opposite ends of a line of width.
func joinEnds(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = lipgloss.NewStyle().MaxWidth(max(0, width-lipgloss.Width(right)-1)).Render(left)
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

// truncate shortens plain text to width cells, marking the cut with "…".
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
