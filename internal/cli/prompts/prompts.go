package prompts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// Text prompts for text input with an optional default value
func Text(title string, defaultVal string) (string, error) {
	var value string
	if defaultVal != "" {
		value = defaultVal
	}

	err := huh.NewInput().
		Title(title).
		Value(&value).
		Run()

	if err != nil {
		return defaultVal, err
	}

	if value == "" {
		return defaultVal, nil
	}

	return value, nil
}

// Confirm prompts for yes/no confirmation
func Confirm(title string, defaultVal bool) (bool, error) {
	value := defaultVal

	err := huh.NewConfirm().
		Title(title).
		Value(&value).
		Run()

	if err != nil {
		return defaultVal, err
	}

	return value, nil
}

// MultiSelect prompts user to select multiple options
// Use Space to toggle, Enter to confirm
func MultiSelect(title string, options []string) ([]string, error) {
	var values []string

	// Build options
	opts := make([]huh.Option[string], len(options))
	for i, opt := range options {
		opts[i] = huh.NewOption(opt, opt)
	}

	err := huh.NewMultiSelect[string]().
		Title(title).
		Description("Use ↑/↓ to navigate, Space to select, Enter to confirm").
		Options(opts...).
		Value(&values).
		Run()

	if err != nil {
		return nil, err
	}

	return values, nil
}

// Password prompts for a value without echoing it
func Password(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	return value, err
}

// Environment asks which environment to use. Production entries are marked.
func Environment(allowed []environment.Environment, policy environment.Policy) (environment.Environment, error) {
	opts := make([]huh.Option[string], len(allowed))
	for i, e := range allowed {
		label := e.String()
		if policy.IsProduction(e) {
			label += " (CAUTION: production)"
		}
		opts[i] = huh.NewOption(label, e.String())
	}

	var value string
	if len(allowed) > 0 {
		value = allowed[0].String()
	}
	err := huh.NewSelect[string]().
		Title("Select environment").
		Options(opts...).
		Value(&value).
		Run()
	if err != nil {
		return environment.None, err
	}
	return environment.Environment(value), nil
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Console reads confirmation answers line by line and shows prompts on the
// diagnostics writer. It implements safety.InputSource.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole reads from in and writes prompts to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Reader exposes the buffered input so multi-line reads share it.
func (c *Console) Reader() *bufio.Reader {
	return c.in
}

func (c *Console) Ask(p safety.Prompt) (string, error) {
	lines := []string{fmt.Sprintf("Environment: %s", p.Environment)}
	if p.Summary != "" {
		lines = append(lines, "Operation:   "+p.Summary)
	}
	if p.Production {
		lines = append(lines, "", "This will modify the PRODUCTION environment.")
	}
	ui.Banner(p.Production, p.Title, lines...)

	fmt.Fprintf(c.out, "%s ", p.Question)
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(c.out)
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
