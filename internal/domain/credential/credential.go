package credential

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vivekkundariya/opskit/internal/domain/environment"
)

// Source identifies where a resolved value came from.
type Source string

const (
	SourceNone Source = ""
	SourceCLI  Source = "cli"
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// KeySpec describes one credential field a backend needs.
type KeySpec struct {
	Field       string
	Optional    bool
	Secret      bool
	Shared      bool // never scoped by environment, e.g. AWS_SSO_START_URL
	Description string
}

// Request is an immutable description of which keys to resolve for one
// backend and profile.
type Request struct {
	prefix  string
	profile environment.Environment
	keys    []KeySpec
}

// NewRequest copies keys so later changes by the caller do not leak in.
func NewRequest(prefix string, profile environment.Environment, keys ...KeySpec) Request {
	return Request{
		prefix:  strings.ToUpper(prefix),
		profile: profile,
		keys:    slices.Clone(keys),
	}
}

func (r Request) Prefix() string                   { return r.prefix }
func (r Request) Profile() environment.Environment { return r.profile }

// Keys returns a copy of the key specs in request order.
func (r Request) Keys() []KeySpec {
	return slices.Clone(r.keys)
}

// Key looks up a spec by field name.
func (r Request) Key(field string) (KeySpec, bool) {
	for _, k := range r.keys {
		if k.Field == field {
			return k, true
		}
	}
	return KeySpec{}, false
}

func (r Request) scoped(k KeySpec) bool {
	return r.profile.IsSet() && !k.Shared
}

// EnvName is the process environment variable consulted for k.
func (r Request) EnvName(k KeySpec) string {
	if r.scoped(k) {
		return fmt.Sprintf("%s_%s_%s", r.prefix, r.profile, k.Field)
	}
	return fmt.Sprintf("%s_%s", r.prefix, k.Field)
}

// UnscopedName is the variable name without the environment segment.
func (r Request) UnscopedName(k KeySpec) string {
	return fmt.Sprintf("%s_%s", r.prefix, k.Field)
}

// FileNames lists the variable names looked up in a credentials file, in
// order. The unscoped name is only accepted from a per-profile file.
func (r Request) FileNames(k KeySpec, profileFile bool) []string {
	if !r.scoped(k) {
		return []string{r.UnscopedName(k)}
	}
	names := []string{
		r.EnvName(k),
		fmt.Sprintf("%s_%s_%s", r.prefix, k.Field, r.profile),
	}
	if profileFile {
		names = append(names, r.UnscopedName(k))
	}
	return names
}

// Resolved holds the outcome of resolving a Request.
type Resolved struct {
	request    Request
	values     map[string]string
	sources    map[string]Source
	unresolved []string
	hints      []string
	file       string
}

// NewResolved starts an empty result for req.
func NewResolved(req Request) *Resolved {
	return &Resolved{
		request: req,
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}
}

// Set records the winning value for field.
func (r *Resolved) Set(field, value string, src Source) {
	r.values[field] = value
	r.sources[field] = src
}

// MarkUnresolved records a required field no source provided.
func (r *Resolved) MarkUnresolved(field string) {
	r.unresolved = append(r.unresolved, field)
}

func (r *Resolved) AddHint(h string)     { r.hints = append(r.hints, h) }
func (r *Resolved) SetFile(path string)  { r.file = path }
func (r *Resolved) Request() Request     { return r.request }
func (r *Resolved) File() string         { return r.file }
func (r *Resolved) Hints() []string      { return slices.Clone(r.hints) }
func (r *Resolved) Unresolved() []string { return slices.Clone(r.unresolved) }

// Complete reports whether every required key has a value.
func (r *Resolved) Complete() bool {
	return len(r.unresolved) == 0
}

// Get returns the value for field, or "" when absent.
func (r *Resolved) Get(field string) string {
	return r.values[field]
}

// GetOr returns the value for field or def when it resolved empty.
func (r *Resolved) GetOr(field, def string) string {
	if v := r.values[field]; v != "" {
		return v
	}
	return def
}

// Source returns where field's value came from.
func (r *Resolved) Source(field string) Source {
	return r.sources[field]
}

// Display returns field's value for printing, masking secret keys.
func (r *Resolved) Display(field string) string {
	v := r.values[field]
	if k, ok := r.request.Key(field); ok && k.Secret && v != "" {
		return Mask(v)
	}
	return v
}

// Mask hides all but the first and last two characters of value.
func Mask(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

// FileBaseName is the name every credentials file starts with.
const FileBaseName = ".credentials"

// ProfileFileName returns ".credentials.<env>".
func ProfileFileName(env environment.Environment) string {
	return FileBaseName + "." + env.Lower()
}

// IsProfileFile reports whether path is the per-profile file for env. Only
// such files may satisfy a key through its unscoped name.
func IsProfileFile(path string, env environment.Environment) bool {
	return env.IsSet() && filepath.Base(path) == ProfileFileName(env)
}
