package safety

import (
	"strings"
)

// Classification says whether an operation can change remote state.
type Classification int

const (
	Mutating Classification = iota
	ReadOnly
)

func (c Classification) String() string {
	if c == ReadOnly {
		return "read-only"
	}
	return "mutating"
}

// Label is the short tag printed in dry-run previews.
func (c Classification) Label() string {
	if c == ReadOnly {
		return "READ"
	}
	return "WRITE"
}

// Classifier maps the leading verb of a command to a Classification.
// Anything it does not list as read-only is mutating.
type Classifier struct {
	backend  string
	readOnly map[string]struct{}
	mutating map[string]struct{}
	verbOf   func(string) string
}

// NewClassifier builds a table classifier for subcommand-style backends.
func NewClassifier(backend string, readOnly, mutating []string) *Classifier {
	return &Classifier{
		backend:  backend,
		readOnly: toSet(readOnly),
		mutating: toSet(mutating),
		verbOf:   FirstWord,
	}
}

// NewSQLClassifier builds a classifier that skips leading SQL comments.
func NewSQLClassifier(backend string, readOnly, mutating []string) *Classifier {
	c := NewClassifier(backend, readOnly, mutating)
	c.verbOf = SQLVerb
	return c
}

// NewCompoundClassifier builds a table classifier where the verbs in
// compound are classified together with their first subcommand, so that
// "auth can-i" and "auth reconcile" can land in different tables.
func NewCompoundClassifier(backend string, compound, readOnly, mutating []string) *Classifier {
	c := NewClassifier(backend, readOnly, mutating)
	groups := toSet(compound)
	c.verbOf = func(command string) string {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		verb := strings.ToUpper(fields[0])
		if _, ok := groups[verb]; ok && len(fields) > 1 {
			verb += " " + strings.ToUpper(fields[1])
		}
		return verb
	}
	return c
}

func toSet(verbs []string) map[string]struct{} {
	s := make(map[string]struct{}, len(verbs))
	for _, v := range verbs {
		s[strings.ToUpper(v)] = struct{}{}
	}
	return s
}

// Backend names the backend this classifier belongs to.
func (c *Classifier) Backend() string { return c.backend }

// Verb extracts the canonical upper-case verb from command.
func (c *Classifier) Verb(command string) string {
	return c.verbOf(command)
}

// Classify returns ReadOnly only for verbs on the read-only list.
func (c *Classifier) Classify(command string) Classification {
	if _, ok := c.readOnly[c.Verb(command)]; ok {
		return ReadOnly
	}
	return Mutating
}

// Known reports whether verb appears in either table.
func (c *Classifier) Known(command string) bool {
	v := c.Verb(command)
	_, ro := c.readOnly[v]
	_, mu := c.mutating[v]
	return ro || mu
}

// FirstWord upper-cases the first whitespace-separated token.
func FirstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// SQLVerb returns the first keyword of a statement after any leading
// "--" line comments and "/* */" block comments.
func SQLVerb(query string) string {
	verb := FirstWord(StripLeadingComments(query))
	if i := strings.IndexAny(verb, "(*;"); i >= 0 {
		verb = verb[:i]
	}
	return verb
}

// StripLeadingComments removes comments that precede the first keyword.
func StripLeadingComments(query string) string {
	s := strings.TrimSpace(query)
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = strings.TrimSpace(s[nl+1:])
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return ""
			}
			s = strings.TrimSpace(s[end+2:])
		default:
			return s
		}
	}
}
