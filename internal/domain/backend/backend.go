// Package backend declares, for every supported system, the credential keys
// it needs, its variable prefix and how its verbs are classified.
package backend

import (
	"sort"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
)

// Backend is the static description of one target system.
type Backend struct {
	Name   string
	Prefix string
	// Environments is nil for single-profile backends.
	Environments []environment.Environment
	// OptionalEnvironment backends accept --env only to pick a per-profile
	// credentials file.
	OptionalEnvironment bool
	Keys                []credential.KeySpec
	Classifier          *safety.Classifier
}

// MultiEnvironment reports whether the backend needs --env.
func (b Backend) MultiEnvironment() bool {
	return len(b.Environments) > 0 && !b.OptionalEnvironment
}

// Request builds the credential request for env.
func (b Backend) Request(env environment.Environment) credential.Request {
	return credential.NewRequest(b.Prefix, env, b.Keys...)
}

var registry = map[string]Backend{}

func register(b Backend) Backend {
	registry[b.Name] = b
	return b
}

// Lookup finds a backend by name.
func Lookup(name string) (Backend, bool) {
	b, ok := registry[name]
	return b, ok
}

// Names lists registered backends alphabetically.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// verbs is shorthand for a verb table.
func verbs(list ...string) []string {
	return list
}
