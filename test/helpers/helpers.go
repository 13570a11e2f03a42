package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/infrastructure/credfile"
)

// CreateTempDir creates a temporary directory for tests
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "opskit-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// IsolateHome points OPSKIT_HOME at a fresh directory and clears the
// session defaults so tests never read the developer's real config.
func IsolateHome(t *testing.T) string {
	t.Helper()
	home := CreateTempDir(t)
	t.Setenv("OPSKIT_HOME", home)
	t.Setenv("OPSKIT_ENV", "")
	t.Setenv("OPSKIT_FORMAT", "")
	return home
}

// CredentialsContent renders values as export NAME="value" lines in
// name order.
func CredentialsContent(values map[string]string) string {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("# test credentials\n")
	for _, n := range names {
		fmt.Fprintf(&b, "export %s=\"%s\"\n", n, values[n])
	}
	return b.String()
}

// WriteCredentialsFile writes values to the location `credentials init`
// uses for backend under home and returns the path.
func WriteCredentialsFile(t *testing.T, home, backend string, env environment.Environment, values map[string]string) string {
	t.Helper()
	path := credfile.LocalPath(home, backend, env, env.IsSet())
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("failed to create credentials dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(CredentialsContent(values)), 0o600); err != nil {
		t.Fatalf("failed to write credentials file: %v", err)
	}
	return path
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertContains fails the test if s does not contain sub
func AssertContains(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("expected %q to contain %q", s, sub)
	}
}
