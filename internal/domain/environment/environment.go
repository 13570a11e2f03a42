package environment

import (
	"fmt"
	"slices"
	"strings"
)

// Environment names one deployment profile a credential set belongs to.
type Environment string

const (
	None  Environment = ""
	Local Environment = "LOCAL"
	Dev   Environment = "DEV"
	QA    Environment = "QA"
	UAT   Environment = "UAT"
	Prod  Environment = "PROD"
)

// Standard is the environment set most backends accept.
var Standard = []Environment{Dev, QA, UAT, Prod}

// WithLocal extends Standard with LOCAL for backends that have a local broker.
var WithLocal = []Environment{Local, Dev, QA, UAT, Prod}

// Parse normalizes s and checks it against allowed. An empty allowed list
// accepts any non-empty name.
func Parse(s string, allowed []Environment) (Environment, error) {
	e := Environment(strings.ToUpper(strings.TrimSpace(s)))
	if e == None {
		return None, fmt.Errorf("environment must not be empty")
	}
	if len(allowed) > 0 && !slices.Contains(allowed, e) {
		return None, fmt.Errorf("environment %q is not one of %s", s, Join(allowed))
	}
	return e, nil
}

// String returns the canonical upper-case name.
func (e Environment) String() string {
	return string(e)
}

// Lower returns the lower-case name used in file names and AWS profile names.
func (e Environment) Lower() string {
	return strings.ToLower(string(e))
}

// IsSet reports whether a profile was selected.
func (e Environment) IsSet() bool {
	return e != None
}

// Policy decides which environments require the production confirmation.
type Policy struct {
	production []Environment
}

// NewPolicy builds a policy from configured names. With no names only PROD
// is treated as production.
func NewPolicy(names ...string) Policy {
	var p Policy
	for _, n := range names {
		e := Environment(strings.ToUpper(strings.TrimSpace(n)))
		if e != None && !slices.Contains(p.production, e) {
			p.production = append(p.production, e)
		}
	}
	if len(p.production) == 0 {
		p.production = []Environment{Prod}
	}
	return p
}

// IsProduction reports whether e requires the production confirmation.
func (p Policy) IsProduction(e Environment) bool {
	if len(p.production) == 0 {
		return e == Prod
	}
	return slices.Contains(p.production, e)
}

// Join renders a list as "DEV, QA, UAT, PROD".
func Join(envs []Environment) string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}
