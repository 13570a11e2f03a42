package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dangerBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("1")).
			Padding(0, 1)
	noticeBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("3")).
			Padding(0, 1)
)

// Banner renders a boxed warning to the diagnostics writer. Danger banners
// are used for production writes.
func Banner(danger bool, title string, lines ...string) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	body := strings.Join(append([]string{title}, lines...), "\n")
	if !defaultLogger.useColor {
		rule := strings.Repeat("=", 60)
		fmt.Fprintf(defaultLogger.out, "\n%s\n%s\n%s\n", rule, body, rule)
		return
	}

	box := noticeBox
	titleStyle := yellow.Bold(true)
	if danger {
		box = dangerBox
		titleStyle = red.Bold(true)
	}
	body = strings.Join(append([]string{titleStyle.Render(title)}, lines...), "\n")
	fmt.Fprintf(defaultLogger.out, "\n%s\n", box.Render(body))
}
