package tui

import "github.com/charmbracelet/lipgloss"

// Palette. ANSI-256 codes so the dashboard works on most terminals.
var (
	ColorNavy   = lipgloss.Color("17")
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("76")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorPurple = lipgloss.Color("141")
	ColorGray   = lipgloss.Color("244")
	ColorWhite  = lipgloss.Color("255")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	headerStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Bold(true)

	cursorRowStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Bold(true)

	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	filterLabelStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	filterValueStyle = lipgloss.NewStyle().
				Foreground(ColorPurple).
				Bold(true)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	bannerOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(ColorGreen).
			Padding(0, 1)

	bannerErrorStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Background(ColorRed).
				Padding(0, 1)
)

// statusColor returns the display color for an HTTP status.
func statusColor(status *int) lipgloss.Color {
	switch {
	case status == nil:
		return ColorGray
	case *status >= 500:
		return ColorRed
	case *status >= 400:
		return ColorOrange
	case *status >= 300:
		return ColorBlue
	case *status >= 200:
		return ColorGreen
	}
	return ColorWhite
}

// methodColor returns the display color for an HTTP method.
func methodColor(method string) lipgloss.Color {
	switch method {
	case "GET":
		return ColorBlue
	case "POST":
		return ColorGreen
	case "PUT", "PATCH":
		return ColorOrange
	case "DELETE":
		return ColorRed
	}
	return ColorPurple
}
