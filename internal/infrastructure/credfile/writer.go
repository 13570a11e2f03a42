package credfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Placeholder is one key `credentials init` adds to a file.
type Placeholder struct {
	Name        string
	Description string
	Optional    bool
}

// AppendPlaceholders adds `export NAME=""` lines for names not already in
// the file at path. The file and its directory are created when missing,
// with the file restricted to its owner. It returns how many lines it added.
func AppendPlaceholders(path string, placeholders []Placeholder) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return 0, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	present, err := Parse(strings.NewReader(existing))
	if err != nil {
		return 0, err
	}

	var lines []string
	for _, p := range placeholders {
		if _, ok := present[p.Name]; ok {
			continue
		}
		comment := p.Description
		if p.Optional {
			comment = strings.TrimSpace(comment + " (optional)")
		}
		line := fmt.Sprintf("export %s=\"\"", p.Name)
		if comment != "" {
			line += "  # " + comment
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return 0, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if existing == "" {
		w.WriteString("# opskit credentials - fill in the values below\n")
		w.WriteString("# Only lines of the form export NAME=\"value\" are read\n\n")
	} else if !strings.HasSuffix(existing, "\n") {
		w.WriteString("\n")
	}
	for _, l := range lines {
		w.WriteString(l + "\n")
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write credentials file: %w", err)
	}
	return len(lines), nil
}

// WriteSecure writes content to path with mode 0600.
func WriteSecure(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0o600)
}

// Backup copies path next to itself as .credentials.backup.<timestamp>.
func Backup(path string, now time.Time) (string, error) {
	dst := filepath.Join(filepath.Dir(path), BaseName+".backup."+now.Format("20060102_150405"))

	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("failed to copy backup: %w", err)
	}
	return dst, nil
}

// Permissions returns the file mode bits of path.
func Permissions(path string) (os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Mode().Perm(), nil
}

// GitignoreStatus describes whether credentials files are ignored by git.
type GitignoreStatus struct {
	RepoRoot string
	Path     string
	Ignored  bool
}

// CheckGitignore walks up from path's directory to the first .git and
// reports whether its .gitignore mentions .credentials. RepoRoot is empty
// outside a repository.
func CheckGitignore(path string) (GitignoreStatus, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return GitignoreStatus{}, err
	}

	dir := filepath.Dir(abs)
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return GitignoreStatus{}, nil
		}
		dir = parent
	}

	status := GitignoreStatus{RepoRoot: dir, Path: filepath.Join(dir, ".gitignore")}
	data, err := os.ReadFile(status.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return status, nil
		}
		return status, err
	}
	status.Ignored = strings.Contains(string(data), BaseName)
	return status, nil
}
