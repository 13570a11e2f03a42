package safety

import (
	"io"
	"testing"

	"github.com/vivekkundariya/opskit/internal/domain/environment"
)

type scriptedInput struct {
	answers []string
	err     error
	asked   []Prompt
}

func (s *scriptedInput) Ask(p Prompt) (string, error) {
	s.asked = append(s.asked, p)
	if s.err != nil {
		return "", s.err
	}
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

var redisVerbs = NewClassifier("redis",
	[]string{"get", "keys", "ttl", "ping"},
	[]string{"set", "del", "flushdb"},
)

var sqlVerbs = NewSQLClassifier("mysql",
	[]string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "USE"},
	[]string{"INSERT", "UPDATE", "DELETE", "DROP"},
)

func TestClassifier_Table(t *testing.T) {
	tests := []struct {
		command string
		want    Classification
	}{
		{"get user:1", ReadOnly},
		{"GET user:1", ReadOnly},
		{"set k v", Mutating},
		{"flushdb", Mutating},
		{"frobnicate", Mutating},
		{"", Mutating},
	}
	for _, tt := range tests {
		if got := redisVerbs.Classify(tt.command); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
}

func TestClassifier_SQLComments(t *testing.T) {
	tests := []struct {
		query string
		verb  string
		want  Classification
	}{
		{"SELECT * FROM users", "SELECT", ReadOnly},
		{"  select 1", "SELECT", ReadOnly},
		{"-- cleanup\nDELETE FROM users", "DELETE", Mutating},
		{"/* report */ SELECT 1", "SELECT", ReadOnly},
		{"/* a */ -- b\n /* c */ UPDATE t SET x = 1", "UPDATE", Mutating},
		{"SELECT*FROM t", "SELECT", ReadOnly},
		{"-- only a comment", "", Mutating},
		{"MERGE INTO t USING s ON (1=1)", "MERGE", Mutating},
	}
	for _, tt := range tests {
		if got := sqlVerbs.Verb(tt.query); got != tt.verb {
			t.Errorf("Verb(%q) = %q, want %q", tt.query, got, tt.verb)
		}
		if got := sqlVerbs.Classify(tt.query); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestClassifier_Known(t *testing.T) {
	if !redisVerbs.Known("del x") || !redisVerbs.Known("ping") {
		t.Error("listed verbs should be known")
	}
	if redisVerbs.Known("frobnicate") {
		t.Error("unlisted verb should be unknown")
	}
}

func TestGuard_ReadOnlyNeverReadsInput(t *testing.T) {
	for _, env := range []environment.Environment{environment.Dev, environment.Prod} {
		in := &scriptedInput{answers: []string{"PROD"}}
		g := NewGuard(in, environment.NewPolicy())

		if got := g.Check(ReadOnly, env, Options{}, "GET k"); got != NotRequired {
			t.Errorf("%s: Check() = %v, want not-required", env, got)
		}
		if len(in.asked) != 0 {
			t.Errorf("%s: input was read %d times", env, len(in.asked))
		}
	}
}

func TestGuard_DryRunNeverReadsInput(t *testing.T) {
	for _, c := range []Classification{ReadOnly, Mutating} {
		in := &scriptedInput{answers: []string{"y"}}
		g := NewGuard(in, environment.NewPolicy())

		if got := g.Check(c, environment.Prod, Options{DryRun: true}, "DEL k"); got != Preview {
			t.Errorf("%v: Check() = %v, want preview", c, got)
		}
		if len(in.asked) != 0 {
			t.Errorf("%v: input was read", c)
		}
	}
}

func TestGuard_NonProduction(t *testing.T) {
	tests := []struct {
		answer string
		want   State
	}{
		{"y", Confirmed},
		{"Y", Confirmed},
		{"yes", Confirmed},
		{"  YeS \n", Confirmed},
		{"n", Aborted},
		{"", Aborted},
		{"yep", Aborted},
		{"PROD", Aborted},
	}
	for _, tt := range tests {
		in := &scriptedInput{answers: []string{tt.answer}}
		g := NewGuard(in, environment.NewPolicy())

		if got := g.Check(Mutating, environment.Dev, Options{}, "DEL k"); got != tt.want {
			t.Errorf("answer %q: Check() = %v, want %v", tt.answer, got, tt.want)
		}
		if len(in.asked) != 1 {
			t.Errorf("answer %q: asked %d times, want 1", tt.answer, len(in.asked))
		}
		if in.asked[0].Production {
			t.Errorf("answer %q: non-production prompt marked production", tt.answer)
		}
	}
}

func TestGuard_Production(t *testing.T) {
	tests := []struct {
		answer string
		want   State
	}{
		{"PROD", Confirmed},
		{"  PROD\n", Confirmed},
		{"prod", Aborted},
		{"y", Aborted},
		{"yes", Aborted},
		{"PRODUCTION", Aborted},
		{"Prod", Aborted},
		{"PROD x", Aborted},
		{"", Aborted},
	}
	for _, tt := range tests {
		in := &scriptedInput{answers: []string{tt.answer}}
		g := NewGuard(in, environment.NewPolicy())

		if got := g.Check(Mutating, environment.Prod, Options{}, "DELETE FROM orders"); got != tt.want {
			t.Errorf("answer %q: Check() = %v, want %v", tt.answer, got, tt.want)
		}
		if !in.asked[0].Production {
			t.Errorf("answer %q: production prompt not marked", tt.answer)
		}
	}
}

func TestGuard_SkipConfirmDoesNotBypass(t *testing.T) {
	in := &scriptedInput{answers: []string{"n"}}
	g := NewGuard(in, environment.NewPolicy())

	if got := g.Check(Mutating, environment.QA, Options{SkipConfirm: true}, "SET k v"); got != Aborted {
		t.Errorf("Check() = %v, want aborted", got)
	}
	if len(in.asked) != 1 {
		t.Error("--yes must not skip the mutation prompt")
	}
}

func TestGuard_EOFAborts(t *testing.T) {
	in := &scriptedInput{err: io.EOF}
	g := NewGuard(in, environment.NewPolicy())

	if got := g.Check(Mutating, environment.Prod, Options{}, "DEL k"); got != Aborted {
		t.Errorf("Check() = %v, want aborted", got)
	}
}

func TestGuard_ConfiguredProductionEnvironment(t *testing.T) {
	in := &scriptedInput{answers: []string{"y"}}
	g := NewGuard(in, environment.NewPolicy("PROD", "UAT"))

	if got := g.Check(Mutating, environment.UAT, Options{}, "DEL k"); got != Aborted {
		t.Errorf("Check() = %v, want aborted for y on a production environment", got)
	}
}

// A DELETE against PROD answered with "yes" is cancelled.
func TestGuard_ProductionDeleteAnsweredYes(t *testing.T) {
	in := &scriptedInput{answers: []string{"yes"}}
	g := NewGuard(in, environment.NewPolicy())

	c := sqlVerbs.Classify("DELETE FROM orders WHERE id = 7")
	if c != Mutating {
		t.Fatalf("Classify() = %v, want mutating", c)
	}
	state := g.Check(c, environment.Prod, Options{}, "DELETE FROM orders WHERE id = 7")
	if state != Aborted {
		t.Fatalf("Check() = %v, want aborted", state)
	}
	if state.Proceed() {
		t.Error("aborted must not proceed")
	}
}

func TestAdvise(t *testing.T) {
	in := &scriptedInput{}
	if got := Advise(in, environment.Dev, "SELECT * FROM t", "Continue? [y/N]:", true); got != Confirmed {
		t.Errorf("Advise(skip) = %v", got)
	}
	if len(in.asked) != 0 {
		t.Error("skip must not read input")
	}

	in = &scriptedInput{answers: []string{"no"}}
	if got := Advise(in, environment.Dev, "SELECT * FROM t", "Continue? [y/N]:", false); got != Aborted {
		t.Errorf("Advise(no) = %v", got)
	}
}

func TestState_Proceed(t *testing.T) {
	want := map[State]bool{
		NotRequired: true,
		Confirmed:   true,
		Pending:     false,
		Aborted:     false,
		Preview:     false,
	}
	for s, ok := range want {
		if s.Proceed() != ok {
			t.Errorf("%v.Proceed() = %v", s, s.Proceed())
		}
	}
}

func TestGuard_ProductionDeleteConfirmed(t *testing.T) {
	in := &scriptedInput{answers: []string{"PROD"}}
	g := NewGuard(in, environment.NewPolicy())

	c := sqlVerbs.Classify("DELETE FROM sessions")
	if c != Mutating {
		t.Fatalf("Classify() = %v, want mutating", c)
	}
	if got := g.Check(c, environment.Prod, Options{}, "DELETE FROM sessions"); got != Confirmed {
		t.Errorf("Check() = %v, want confirmed", got)
	}
}

func TestGuard_SelectNeedsNoInput(t *testing.T) {
	in := &scriptedInput{}
	g := NewGuard(in, environment.NewPolicy())

	c := sqlVerbs.Classify("SELECT 1")
	if c != ReadOnly {
		t.Fatalf("Classify() = %v, want read-only", c)
	}
	if got := g.Check(c, environment.Prod, Options{}, "SELECT 1"); got != NotRequired {
		t.Errorf("Check() = %v, want not-required", got)
	}
	if len(in.asked) != 0 {
		t.Error("input must not be read")
	}
}

func TestCompoundClassifier(t *testing.T) {
	c := NewCompoundClassifier("kubectl",
		[]string{"auth"},
		[]string{"get", "auth can-i"},
		[]string{"delete", "auth reconcile"},
	)
	tests := []struct {
		command string
		verb    string
		want    Classification
	}{
		{"get pods", "GET", ReadOnly},
		{"auth can-i list pods", "AUTH CAN-I", ReadOnly},
		{"Auth Reconcile -f rbac.yaml", "AUTH RECONCILE", Mutating},
		{"auth", "AUTH", Mutating},
		{"get auth", "GET", ReadOnly},
	}
	for _, tt := range tests {
		if got := c.Verb(tt.command); got != tt.verb {
			t.Errorf("Verb(%q) = %q, want %q", tt.command, got, tt.verb)
		}
		if got := c.Classify(tt.command); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
	if !c.Known("auth reconcile") || c.Known("auth frobnicate") {
		t.Error("Known() should only match listed compound verbs")
	}
}
