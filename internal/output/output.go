// Package output renders command results as text, markdown, JSON or CSV and
// sends them to stdout or a file.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// Format selects how a Result is printed.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	JSON     Format = "json"
	CSV      Format = "csv"
	Env      Format = "env"
	Raw      Format = "raw"
)

// ParseFormat validates s against allowed. "table" is accepted for text and
// "md" for markdown.
func ParseFormat(s string, allowed ...Format) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "table":
		f = Text
	case "md":
		f = Markdown
	}
	if !slices.Contains(allowed, f) {
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		return "", errUtils.WithHints(
			fmt.Errorf("%w: %q", errUtils.ErrInvalidFormat, s),
			"supported formats: "+strings.Join(names, ", "),
		)
	}
	return f, nil
}

// Table is a rectangular result such as SQL rows.
type Table struct {
	Columns []string
	Rows    [][]string
	// MaxWidth truncates markdown cells longer than this with "...".
	MaxWidth int
}

// Field is one labelled value.
type Field struct {
	Key   string
	Value string
}

// Result is what an operation hands back for printing. The first non-empty
// of Table, Fields, List and Text is rendered.
type Result struct {
	Table  *Table
	Fields []Field
	List   []string
	Text   string
	// Data replaces the derived JSON document when set.
	Data any
	// Footer is printed after text and markdown output, e.g. "(3 rows)".
	Footer string
}

// Message builds a plain text result.
func Message(format string, args ...any) *Result {
	return &Result{Text: fmt.Sprintf(format, args...)}
}

// Render writes r to w in format f.
func Render(w io.Writer, r *Result, f Format) error {
	if r == nil {
		return nil
	}
	switch f {
	case JSON:
		return renderJSON(w, r)
	case CSV:
		return renderCSV(w, r)
	case Markdown:
		return renderTextual(w, r, true)
	case Env:
		return renderEnv(w, r)
	case Raw:
		return renderRaw(w, r)
	default:
		return renderTextual(w, r, false)
	}
}

func newTable(columns []string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)
	return t
}

func appendRows(t table.Writer, rows [][]string, maxWidth int) {
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = Truncate(cell, maxWidth)
		}
		t.AppendRow(r)
	}
}

// Truncate shortens s to max runes ending in "...". max <= 0 disables it.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func renderTextual(w io.Writer, r *Result, markdown bool) error {
	var body string
	switch {
	case r.Table != nil:
		if len(r.Table.Columns) == 0 {
			break
		}
		t := newTable(r.Table.Columns)
		if markdown {
			appendRows(t, r.Table.Rows, r.Table.MaxWidth)
			body = t.RenderMarkdown()
		} else {
			appendRows(t, r.Table.Rows, 0)
			body = t.Render()
		}
	case len(r.Fields) > 0:
		if markdown {
			t := newTable([]string{"Key", "Value"})
			for _, f := range r.Fields {
				t.AppendRow(table.Row{f.Key, f.Value})
			}
			body = t.RenderMarkdown()
		} else {
			width := 0
			for _, f := range r.Fields {
				width = max(width, len(f.Key))
			}
			lines := make([]string, len(r.Fields))
			for i, f := range r.Fields {
				lines[i] = fmt.Sprintf("%-*s  %s", width+1, f.Key+":", f.Value)
			}
			body = strings.Join(lines, "\n")
		}
	case len(r.List) > 0:
		body = strings.Join(r.List, "\n")
	default:
		body = r.Text
	}

	if body != "" {
		if _, err := fmt.Fprintln(w, strings.TrimRight(body, "\n")); err != nil {
			return err
		}
	}
	if r.Footer != "" {
		if body != "" {
			fmt.Fprintln(w)
		}
		if _, err := fmt.Fprintln(w, r.Footer); err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, r *Result) error {
	var doc any
	switch {
	case r.Data != nil:
		doc = r.Data
	case r.Table != nil:
		rows := make([]map[string]string, 0, len(r.Table.Rows))
		for _, row := range r.Table.Rows {
			m := make(map[string]string, len(r.Table.Columns))
			for i, c := range r.Table.Columns {
				if i < len(row) {
					m[c] = row[i]
				}
			}
			rows = append(rows, m)
		}
		doc = rows
	case len(r.Fields) > 0:
		m := make(map[string]string, len(r.Fields))
		for _, f := range r.Fields {
			m[f.Key] = f.Value
		}
		doc = m
	case r.List != nil:
		doc = r.List
	default:
		doc = map[string]string{"message": r.Text}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func renderCSV(w io.Writer, r *Result) error {
	cw := csv.NewWriter(w)
	switch {
	case r.Table != nil:
		cw.Write(r.Table.Columns)
		for _, row := range r.Table.Rows {
			cw.Write(row)
		}
	case len(r.Fields) > 0:
		cw.Write([]string{"key", "value"})
		for _, f := range r.Fields {
			cw.Write([]string{f.Key, f.Value})
		}
	case len(r.List) > 0:
		cw.Write([]string{"value"})
		for _, v := range r.List {
			cw.Write([]string{v})
		}
	default:
		cw.Write([]string{r.Text})
	}
	cw.Flush()
	return cw.Error()
}

func renderEnv(w io.Writer, r *Result) error {
	for _, f := range r.Fields {
		if _, err := fmt.Fprintf(w, "export %s=%q\n", EnvName(f.Key), f.Value); err != nil {
			return err
		}
	}
	return nil
}

func renderRaw(w io.Writer, r *Result) error {
	if len(r.Fields) == 0 {
		return renderTextual(w, r, false)
	}
	for _, f := range r.Fields {
		if _, err := fmt.Fprintln(w, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// EnvName upper-cases key and replaces characters not allowed in shell
// variable names with underscores.
func EnvName(key string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(key) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Emitter sends rendered results to stdout or to a file.
type Emitter struct {
	Format Format
	Path   string
	Stdout io.Writer
}

// Emit renders r. With Path set the result goes to that file instead.
func (e *Emitter) Emit(r *Result) error {
	if e.Path == "" {
		out := e.Stdout
		if out == nil {
			out = os.Stdout
		}
		return Render(out, r, e.Format)
	}

	f, err := os.OpenFile(e.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	if err := Render(f, r, e.Format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	ui.Successf("Output written to %s", e.Path)
	return nil
}
