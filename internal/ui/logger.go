package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// successLevel is rendered as "OK" and ranks between info and warn.
const successLevel = log.InfoLevel + 1

// Logger writes leveled diagnostics to stderr so stdout only carries results.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	verbose  bool
	useColor bool
	log      *log.Logger
}

var defaultLogger = newLogger(os.Stderr)

func newLogger(w io.Writer) *Logger {
	l := &Logger{out: w, useColor: isTerminal(w)}
	l.log = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.InfoLevel,
	})
	l.log.SetStyles(levelStyles())
	return l
}

func levelStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("DEBUG").Foreground(lipgloss.Color("6"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INFO").Foreground(lipgloss.Color("4"))
	styles.Levels[successLevel] = lipgloss.NewStyle().SetString("OK").Bold(true).Foreground(lipgloss.Color("2"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(lipgloss.Color("3"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("1"))
	return styles
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetVerbose enables or disables verbose (debug) output
func SetVerbose(v bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.verbose = v
	if v {
		defaultLogger.log.SetLevel(log.DebugLevel)
	} else {
		defaultLogger.log.SetLevel(log.InfoLevel)
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.verbose
}

// SetOutput redirects all diagnostics, mainly for tests.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.out = w
	defaultLogger.useColor = isTerminal(w)
	defaultLogger.log.SetOutput(w)
}

// SetColor enables or disables colored step output
func SetColor(c bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.useColor = c
}

// ColorEnabled reports whether diagnostics go to a color terminal.
func ColorEnabled() bool {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.useColor
}

// Writer returns the diagnostics writer.
func Writer() io.Writer {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.out
}

func format(f string, args []any) string {
	if len(args) > 0 {
		return fmt.Sprintf(f, args...)
	}
	return f
}

// Debug logs a debug message (only shown with --verbose)
func Debug(f string, args ...any) {
	defaultLogger.log.Debug(format(f, args))
}

// Infof logs an informational message
func Infof(f string, args ...any) {
	defaultLogger.log.Info(format(f, args))
}

// Successf logs a success message
func Successf(f string, args ...any) {
	defaultLogger.log.Log(successLevel, format(f, args))
}

// Warnf logs a warning message
func Warnf(f string, args ...any) {
	defaultLogger.log.Warn(format(f, args))
}

// Errorf logs an error message
func Errorf(f string, args ...any) {
	defaultLogger.log.Error(format(f, args))
}

// Step logs a step in a process with an arrow prefix
func Step(f string, args ...any) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	arrow := "→"
	if defaultLogger.useColor {
		arrow = cyan.Render(arrow)
	}
	fmt.Fprintf(defaultLogger.out, "  %s %s\n", arrow, format(f, args))
}

// SubStep logs a sub-step with indentation
func SubStep(f string, args ...any) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	bullet := "•"
	if defaultLogger.useColor {
		bullet = purple.Render(bullet)
	}
	fmt.Fprintf(defaultLogger.out, "    %s %s\n", bullet, format(f, args))
}

// Header logs a section header
func Header(f string, args ...any) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	msg := format(f, args)
	rule := strings.Repeat("─", 40)
	if defaultLogger.useColor {
		msg = bold.Render(msg)
		rule = purple.Render(rule)
	}
	fmt.Fprintf(defaultLogger.out, "\n%s\n%s\n", msg, rule)
}

// StatusLine logs one "● name status" row, green when ok.
func StatusLine(name, status string, ok bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	icon := "●"
	if defaultLogger.useColor {
		style := green
		if !ok {
			style = yellow
		}
		icon = style.Render(icon)
		status = style.Render(status)
	}
	fmt.Fprintf(defaultLogger.out, "  %s %-20s %s\n", icon, name, status)
}

// KV adapts the logger to libraries that log a message followed by
// key/value pairs, such as go-retryablehttp. Library info and error lines
// are demoted to debug because the caller reports the final error.
type KV struct{}

func (KV) Debug(msg string, kv ...any) { defaultLogger.log.Debug(msg, kv...) }
func (KV) Info(msg string, kv ...any)  { defaultLogger.log.Debug(msg, kv...) }
func (KV) Warn(msg string, kv ...any)  { defaultLogger.log.Warn(msg, kv...) }
func (KV) Error(msg string, kv ...any) { defaultLogger.log.Debug(msg, kv...) }
