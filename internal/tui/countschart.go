package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type bucketBar struct {
	name  string
	count int
	color lipgloss.Color
}

// statusBars lists the status buckets of the current snapshot in display
// order.
func (m *DashboardModel) statusBars() []bucketBar {
	c := m.counts
	return []bucketBar{
		{"1xx", c.Informational, ColorWhite},
		{"2xx", c.Success, ColorGreen},
		{"3xx", c.Redirect, ColorBlue},
		{"4xx", c.ClientError, ColorOrange},
		{"5xx", c.ServerError, ColorRed},
		{"none", c.NoStatus, ColorGray},
	}
}

// renderStatusChart renders the status bucket distribution of all flows as
// a bar chart with a legend.
func (m *DashboardModel) renderStatusChart(width, height int) string {
	style := sectionStyle.Width(width - 2).Height(height - 2)
	innerHeight := height - 2

	title := chartTitleStyle.Render("Status codes")
	if m.counts.Total() == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No data available"))
		return style.Render(content)
	}

	chartHeight := innerHeight - 1
	legendWidth := 18
	chartWidth := max(20, width-4-legendWidth-2)

	bars := m.statusBars()
	barWidth := max(1, (chartWidth-len(bars)+1)/len(bars)-1)
	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)
	for _, b := range bars {
		bc.Push(barchart.BarData{
			Label: b.name,
			Values: []barchart.BarValue{{
				Name:  b.name,
				Value: float64(b.count),
				Style: lipgloss.NewStyle().Foreground(b.color).Background(b.color),
			}},
		})
	}
	bc.Draw()

	legendLines := make([]string, 0, len(bars)+1)
	for _, b := range bars {
		label := fmt.Sprintf("%-5s %8s", b.name, humanize.Comma(int64(b.count)))
		legendLines = append(legendLines, lipgloss.NewStyle().Foreground(b.color).Render(label))
	}
	legendLines = append(legendLines, fmt.Sprintf("%-5s %8s", "TOTAL", humanize.Comma(int64(m.counts.Total()))))

	chartLines := strings.Split(bc.View(), "\n")
	var combined []string
	for i := 0; i < chartHeight; i++ {
		chartLine, legendLine := "", ""
		if i < len(chartLines) {
			chartLine = chartLines[i]
		}
		if i < len(legendLines) {
			legendLine = legendLines[i]
		}
		if w := lipgloss.Width(chartLine); w < chartWidth {
			chartLine += strings.Repeat(" ", chartWidth-w)
		}
		combined = append(combined, chartLine+"  "+legendLine)
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(combined, "\n")))
}
