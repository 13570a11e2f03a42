package safety

import (
	"strings"

	"github.com/vivekkundariya/opskit/internal/domain/environment"
)

// State is where an operation stands with respect to confirmation.
type State int

const (
	NotRequired State = iota
	Pending
	Confirmed
	Aborted
	Preview
)

func (s State) String() string {
	switch s {
	case NotRequired:
		return "not-required"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Aborted:
		return "aborted"
	case Preview:
		return "preview"
	}
	return "unknown"
}

// Proceed reports whether the operation may run.
func (s State) Proceed() bool {
	return s == NotRequired || s == Confirmed
}

// ProductionToken is the literal answer a production mutation requires.
const ProductionToken = "PROD"

// Prompt is what an InputSource shows before reading one answer.
type Prompt struct {
	Environment environment.Environment
	Production  bool
	Title       string
	Summary     string
	Question    string
}

// InputSource reads one answer for a prompt. io.EOF and any other error
// are treated as a refusal.
type InputSource interface {
	Ask(p Prompt) (string, error)
}

// Options carries the invocation flags the guard honours.
type Options struct {
	DryRun      bool
	SkipConfirm bool
}

// Guard gates mutating operations behind an explicit confirmation.
type Guard struct {
	input  InputSource
	policy environment.Policy
}

// NewGuard creates a guard reading answers from input.
func NewGuard(input InputSource, policy environment.Policy) *Guard {
	return &Guard{input: input, policy: policy}
}

// Check decides the confirmation state for one operation. summary describes
// the operation in the prompt. SkipConfirm has no effect here: --yes only
// applies to advisory prompts.
func (g *Guard) Check(c Classification, env environment.Environment, opts Options, summary string) State {
	if opts.DryRun {
		return Preview
	}
	if c == ReadOnly {
		return NotRequired
	}

	state := Pending
	if g.policy.IsProduction(env) {
		answer, err := g.input.Ask(Prompt{
			Environment: env,
			Production:  true,
			Title:       "PRODUCTION WRITE DETECTED",
			Summary:     summary,
			Question:    `Type "PROD" to confirm, or anything else to cancel:`,
		})
		if err == nil && strings.TrimSpace(answer) == ProductionToken {
			state = Confirmed
		} else {
			state = Aborted
		}
		return state
	}

	answer, err := g.input.Ask(Prompt{
		Environment: env,
		Title:       "Write operation",
		Summary:     summary,
		Question:    "Proceed? [y/N]:",
	})
	if err == nil && IsYes(answer) {
		state = Confirmed
	} else {
		state = Aborted
	}
	return state
}

// Advise asks a non-binding y/N question unless skip is set.
func Advise(input InputSource, env environment.Environment, summary, question string, skip bool) State {
	if skip {
		return Confirmed
	}
	answer, err := input.Ask(Prompt{
		Environment: env,
		Title:       "Warning",
		Summary:     summary,
		Question:    question,
	})
	if err == nil && IsYes(answer) {
		return Confirmed
	}
	return Aborted
}

// IsYes accepts "y" and "yes" in any case.
func IsYes(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}
