package awssso

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ini "gopkg.in/ini.v1"

	"github.com/vivekkundariya/opskit/internal/ui"
)

// ProfileStore edits SSO profiles in the shared AWS config file.
type ProfileStore struct {
	path string
}

func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Path returns the config file location.
func (p *ProfileStore) Path() string {
	return p.path
}

func sectionName(profile string) string {
	return "profile " + profile
}

func (p *ProfileStore) load() (*ini.File, error) {
	if _, err := os.Stat(p.path); errors.Is(err, fs.ErrNotExist) {
		return ini.Empty(), nil
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: false}, p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config %s: %w", p.path, err)
	}
	return cfg, nil
}

// Exists reports whether the profile section is present.
func (p *ProfileStore) Exists(profile string) (bool, error) {
	cfg, err := p.load()
	if err != nil {
		return false, err
	}
	return cfg.HasSection(sectionName(profile)), nil
}

// Ensure adds the SSO profile for t when it is missing. Existing profiles
// are left untouched. It reports whether a profile was written.
func (p *ProfileStore) Ensure(s Settings, t Target) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	if err := t.validate(); err != nil {
		return false, err
	}

	cfg, err := p.load()
	if err != nil {
		return false, err
	}
	name := sectionName(t.Profile())
	if cfg.HasSection(name) {
		ui.Debug("AWS profile %s already exists in %s", t.Profile(), p.path)
		return false, nil
	}

	ui.Infof("Creating AWS profile: %s", t.Profile())
	section, err := cfg.NewSection(name)
	if err != nil {
		return false, fmt.Errorf("failed to create profile section: %w", err)
	}
	section.Key("sso_start_url").SetValue(s.StartURL)
	section.Key("sso_region").SetValue(s.Region)
	section.Key("sso_account_id").SetValue(t.AccountID)
	section.Key("sso_role_name").SetValue(t.RoleName)
	section.Key("region").SetValue(t.Region)

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cfg.SaveTo(p.path); err != nil {
		return false, fmt.Errorf("failed to write AWS config %s: %w", p.path, err)
	}
	if err := os.Chmod(p.path, 0o600); err != nil {
		return false, fmt.Errorf("failed to set AWS config permissions: %w", err)
	}
	ui.Successf("Profile '%s' created in %s", t.Profile(), p.path)
	return true, nil
}
