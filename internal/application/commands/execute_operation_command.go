package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/vivekkundariya/opskit/internal/application/queries"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// Operation performs the side-effecting call once the guard allows it.
type Operation func(ctx context.Context, creds *credential.Resolved) (*output.Result, error)

// ExecuteOperationCommand describes one backend invocation.
type ExecuteOperationCommand struct {
	Backend     backend.Backend
	Environment environment.Environment
	// Verb is classified; for SQL it is the whole statement.
	Verb string
	// Classifier overrides Backend.Classifier, e.g. for kubectl passthrough.
	Classifier *safety.Classifier
	// Summary describes the operation in prompts and previews. Describe,
	// when set, replaces it once credentials are known.
	Summary        string
	Describe       func(creds *credential.Resolved) string
	Overrides      map[string]string
	FileCandidates []string
	Options        safety.Options
	Run            Operation
}

// Outcome reports how far an invocation got.
type Outcome struct {
	State          safety.State
	Classification safety.Classification
	Credentials    *credential.Resolved
	Summary        string
	Result         *output.Result
}

// ExecuteOperationHandler runs the shared resolve, classify, guard and run
// sequence every backend command goes through.
type ExecuteOperationHandler struct {
	resolver *queries.ResolveCredentialsQueryHandler
	guard    *safety.Guard
}

// NewExecuteOperationHandler creates a new handler
func NewExecuteOperationHandler(resolver *queries.ResolveCredentialsQueryHandler, guard *safety.Guard) *ExecuteOperationHandler {
	return &ExecuteOperationHandler{
		resolver: resolver,
		guard:    guard,
	}
}

// Handle executes the operation. A declined confirmation and a dry run are
// not errors: the returned Outcome carries the Aborted or Preview state.
func (h *ExecuteOperationHandler) Handle(ctx context.Context, cmd ExecuteOperationCommand) (Outcome, error) {
	req := cmd.Backend.Request(cmd.Environment)
	creds := h.resolver.Handle(queries.ResolveCredentialsQuery{
		Request:        req,
		Overrides:      cmd.Overrides,
		FileCandidates: cmd.FileCandidates,
	})

	outcome := Outcome{State: safety.Pending, Credentials: creds}
	if !creds.Complete() {
		return outcome, UnresolvedError(cmd.Backend, creds)
	}

	classifier := cmd.Classifier
	if classifier == nil {
		classifier = cmd.Backend.Classifier
	}
	outcome.Classification = classifier.Classify(cmd.Verb)
	ui.Debug("%s: %q classified as %s", cmd.Backend.Name, classifier.Verb(cmd.Verb), outcome.Classification)

	if cmd.Describe != nil {
		cmd.Summary = cmd.Describe(creds)
	}
	outcome.Summary = cmd.Summary
	outcome.State = h.guard.Check(outcome.Classification, cmd.Environment, cmd.Options, cmd.Summary)
	if !outcome.State.Proceed() {
		return outcome, nil
	}

	result, err := cmd.Run(ctx, creds)
	if err != nil {
		return outcome, err
	}
	outcome.Result = result
	return outcome, nil
}

// UnresolvedError names every missing key together with the variables that
// would satisfy it.
func UnresolvedError(b backend.Backend, creds *credential.Resolved) error {
	req := creds.Request()
	missing := creds.Unresolved()

	scope := b.Name
	if req.Profile().IsSet() {
		scope = fmt.Sprintf("%s (%s)", b.Name, req.Profile())
	}
	err := fmt.Errorf("%w for %s: %s", errUtils.ErrUnresolvedCredentials, scope, strings.Join(missing, ", "))

	var hints []string
	for _, field := range missing {
		key, _ := req.Key(field)
		hints = append(hints, fmt.Sprintf("%s: set %s or add export %s=\"...\" to a credentials file",
			field, req.EnvName(key), strings.Join(req.FileNames(key, false), "/")))
	}
	hints = append(hints, creds.Hints()...)
	hints = append(hints, fmt.Sprintf("run 'opskit credentials init %s' to create a template", b.Name))
	return errUtils.WithHints(err, hints...)
}
