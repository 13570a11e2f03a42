package credfile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	templateExport = regexp.MustCompile(`^export\s+([A-Z_][A-Z0-9_]*)\s*=\s*"([^"]*)"`)
	commentExport  = regexp.MustCompile(`^#\s*export\s+([A-Z_][A-Z0-9_]*)\s*=\s*"([^"]*)"`)
	anyExport      = regexp.MustCompile(`^(#\s*)?export\s+([A-Z_][A-Z0-9_]*)\s*=\s*"([^"]*)"`)
)

var sensitiveWords = []string{"PASSWORD", "TOKEN", "SECRET", "KEY", "CREDENTIALS"}

// TemplateEntry is one variable declared by a .credentials.example file.
type TemplateEntry struct {
	Variable    string
	Placeholder string
	Context     string
	Required    bool
	Line        int
}

// Sensitive reports whether the value should be read without echo.
func (e TemplateEntry) Sensitive() bool {
	return IsSensitive(e.Variable)
}

// IsSensitive reports whether name looks like it holds a secret.
func IsSensitive(name string) bool {
	upper := strings.ToUpper(name)
	for _, w := range sensitiveWords {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

// Template is a parsed .credentials.example file.
type Template struct {
	Lines   []string
	Entries []TemplateEntry
}

// Required returns the active exports.
func (t *Template) Required() []TemplateEntry {
	return t.filter(true)
}

// Optional returns the commented-out exports.
func (t *Template) Optional() []TemplateEntry {
	return t.filter(false)
}

func (t *Template) filter(required bool) []TemplateEntry {
	var out []TemplateEntry
	for _, e := range t.Entries {
		if e.Required == required {
			out = append(out, e)
		}
	}
	return out
}

// ParseTemplate reads a template. Comment lines directly above an export
// become its context; a blank line resets the context.
func ParseTemplate(r io.Reader) (*Template, error) {
	t := &Template{}
	var context []string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		t.Lines = append(t.Lines, line)
		stripped := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(stripped, "#"):
			if m := commentExport.FindStringSubmatch(stripped); m != nil {
				t.Entries = append(t.Entries, TemplateEntry{
					Variable:    m[1],
					Placeholder: m[2],
					Context:     strings.Join(context, " "),
					Line:        lineNum,
				})
				context = nil
				continue
			}
			text := strings.TrimSpace(strings.TrimLeft(stripped, "#"))
			if text != "" && !strings.HasPrefix(text, "=") {
				context = append(context, text)
			}
		case templateExport.MatchString(stripped):
			m := templateExport.FindStringSubmatch(stripped)
			t.Entries = append(t.Entries, TemplateEntry{
				Variable:    m[1],
				Placeholder: m[2],
				Context:     strings.Join(context, " "),
				Required:    true,
				Line:        lineNum,
			})
			context = nil
		case stripped == "":
			context = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return t, nil
}

// ErrUnsafeValue is returned for values a credentials file cannot hold.
var ErrUnsafeValue = errors.New("value cannot be stored in a credentials file")

// ValidateValue rejects values that would not read back unchanged from an
// export NAME="value" line.
func ValidateValue(v string) error {
	switch {
	case strings.Contains(v, `"`):
		return fmt.Errorf("%w: it contains a double quote", ErrUnsafeValue)
	case strings.ContainsAny(v, "\r\n"):
		return fmt.Errorf("%w: it spans more than one line", ErrUnsafeValue)
	}
	return nil
}

// Render produces the credentials file content: the template with every
// provided variable turned into an active export and the rest left as is.
// Values must pass ValidateValue.
func (t *Template) Render(values map[string]string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Credentials File\n")
	fmt.Fprintf(&b, "# Created: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("# DO NOT commit this file - it's in .gitignore\n\n")

	for i, line := range t.Lines {
		stripped := strings.TrimSpace(line)
		if i < 4 && strings.HasPrefix(stripped, "#") && isTemplateBanner(stripped) {
			continue
		}
		if m := anyExport.FindStringSubmatch(stripped); m != nil {
			if v, ok := values[m[2]]; ok {
				fmt.Fprintf(&b, "export %s=\"%s\"\n", m[2], v)
				continue
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func isTemplateBanner(line string) bool {
	return strings.Contains(line, "SECURITY") ||
		strings.Contains(line, "Copy") ||
		strings.Contains(line, "DO NOT commit")
}
