package credfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/vivekkundariya/opskit/internal/application/ports"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// exportLine matches `export NAME="value"`. Nothing else in a credentials
// file is interpreted, so the file is never sourced or evaluated.
var exportLine = regexp.MustCompile(`^export\s+([A-Za-z_][A-Za-z0-9_]*)="([^"]*)"`)

// Reader loads credentials files from disk.
type Reader struct{}

// NewReader creates a credentials file reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses the file at path. A missing file returns an error satisfying
// os.IsNotExist.
func (r *Reader) Read(path string) (*ports.CredentialFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	ui.Debug("Loaded %d keys from %s", len(values), path)
	return &ports.CredentialFile{Path: path, Values: values}, nil
}

// Parse extracts every export line from r. Later lines win.
func Parse(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := exportLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		values[m[1]] = m[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
