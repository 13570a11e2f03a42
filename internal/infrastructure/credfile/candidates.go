package credfile

import (
	"path/filepath"
	"strings"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
)

// BaseName is the file name shared by every credentials file.
const BaseName = credential.FileBaseName

// Search describes where to look for a backend's credentials file.
type Search struct {
	Explicit string // --credentials-file
	Home     string // credentials directory, normally ~/.opskit
	WorkDir  string
	Backend  string
	Profile  environment.Environment
}

// Candidates lists credentials file paths in lookup order. The resolver
// uses the first one that exists.
func Candidates(s Search) []string {
	var paths []string
	if s.Explicit != "" {
		paths = append(paths, s.Explicit)
	}

	names := []string{BaseName}
	if s.Profile.IsSet() {
		names = []string{credential.ProfileFileName(s.Profile), BaseName}
	}

	var dirs []string
	if s.Home != "" && s.Backend != "" {
		dirs = append(dirs, filepath.Join(s.Home, strings.ToLower(s.Backend), "references"))
	}
	wd := s.WorkDir
	if wd == "" {
		wd = "."
	}
	dirs = append(dirs, filepath.Join(wd, "references"), wd)

	for _, dir := range dirs {
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// LocalPath is where `credentials init` writes placeholders for a backend.
// Backends that keep one file per environment get ".credentials.<env>".
func LocalPath(home, backend string, env environment.Environment, perProfile bool) string {
	name := BaseName
	if perProfile && env.IsSet() {
		name = credential.ProfileFileName(env)
	}
	return filepath.Join(home, strings.ToLower(backend), "references", name)
}
