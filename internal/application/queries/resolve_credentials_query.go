package queries

import (
	"fmt"
	"os"
	"strings"

	"github.com/vivekkundariya/opskit/internal/application/ports"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// ResolveCredentialsQuery asks for the values of every key in Request.
type ResolveCredentialsQuery struct {
	Request credential.Request
	// Overrides come from the command line, keyed by field name (HOST) or
	// by full variable name (REDIS_DEV_HOST).
	Overrides map[string]string
	// FileCandidates are searched in order; the first existing file is used.
	FileCandidates []string
}

// ResolveCredentialsQueryHandler resolves credentials with the precedence
// command line > process environment > credentials file.
type ResolveCredentialsQueryHandler struct {
	files ports.CredentialFileReader
	env   ports.EnvironmentReader
}

// NewResolveCredentialsQueryHandler creates a new resolver.
func NewResolveCredentialsQueryHandler(files ports.CredentialFileReader, env ports.EnvironmentReader) *ResolveCredentialsQueryHandler {
	return &ResolveCredentialsQueryHandler{
		files: files,
		env:   env,
	}
}

// Handle resolves every key. It never fails on missing keys: required keys
// without a value are listed in Unresolved.
func (h *ResolveCredentialsQueryHandler) Handle(query ResolveCredentialsQuery) *credential.Resolved {
	req := query.Request
	result := credential.NewResolved(req)

	var file *ports.CredentialFile
	fileLoaded := false
	loadFile := func() *ports.CredentialFile {
		if !fileLoaded {
			file = h.findFile(query.FileCandidates, result)
			fileLoaded = true
		}
		return file
	}

	for _, key := range req.Keys() {
		if v := override(query.Overrides, req, key); v != "" {
			result.Set(key.Field, v, credential.SourceCLI)
			continue
		}

		if v, ok := h.env.Lookup(req.EnvName(key)); ok && v != "" {
			result.Set(key.Field, v, credential.SourceEnv)
			continue
		}

		if f := loadFile(); f != nil {
			profileFile := credential.IsProfileFile(f.Path, req.Profile())
			if v := lookupFile(f, req.FileNames(key, profileFile)); v != "" {
				result.Set(key.Field, v, credential.SourceFile)
				continue
			}
		}

		if key.Optional {
			result.Set(key.Field, "", credential.SourceNone)
			continue
		}
		result.MarkUnresolved(key.Field)
	}

	if !result.Complete() {
		loadFile()
		if result.File() == "" && len(query.FileCandidates) > 0 {
			result.AddHint("no credentials file found; searched " + strings.Join(query.FileCandidates, ", "))
		}
	}

	return result
}

func (h *ResolveCredentialsQueryHandler) findFile(candidates []string, result *credential.Resolved) *ports.CredentialFile {
	for _, path := range candidates {
		f, err := h.files.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			result.SetFile(path)
			result.AddHint(fmt.Sprintf("credentials file %s could not be read: %v", path, err))
			return nil
		}

		result.SetFile(f.Path)
		if len(f.Values) == 0 {
			result.AddHint(fmt.Sprintf("credentials file %s contains no export NAME=\"value\" lines", f.Path))
		}
		ui.Debug("Using credentials file %s", f.Path)
		return f
	}
	return nil
}

func override(overrides map[string]string, req credential.Request, key credential.KeySpec) string {
	if v := overrides[key.Field]; v != "" {
		return v
	}
	return overrides[req.EnvName(key)]
}

func lookupFile(f *ports.CredentialFile, names []string) string {
	for _, name := range names {
		if v := f.Values[name]; v != "" {
			return v
		}
	}
	return ""
}
