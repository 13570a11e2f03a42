package ui

import "github.com/charmbracelet/lipgloss"

var (
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	blue   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	purple = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold   = lipgloss.NewStyle().Bold(true)
)

// Success returns green text
func Success(text string) string {
	return green.Render(text)
}

// Error returns red text
func Error(text string) string {
	return red.Render(text)
}

// Warning returns yellow text
func Warning(text string) string {
	return yellow.Render(text)
}

// Info returns blue text
func Info(text string) string {
	return blue.Render(text)
}
