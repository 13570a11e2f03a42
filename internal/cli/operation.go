package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/application/commands"
	"github.com/vivekkundariya/opskit/internal/application/queries"
	"github.com/vivekkundariya/opskit/internal/cli/prompts"
	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/config"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/credfile"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// operation is one backend invocation as the commands describe it.
type operation struct {
	backend backend.Backend
	// verb is what gets classified: the subcommand, or the SQL statement.
	verb       string
	classifier *safety.Classifier
	summary    string
	describe   func(creds *credential.Resolved) string
	format     output.Format
	// keepOutput leaves --output to the operation, e.g. as a download
	// destination, instead of writing the rendered result there.
	keepOutput bool
	run        commands.Operation
}

// runOperation resolves the environment and credentials, passes the guard
// and prints the result.
func runOperation(cmd *cobra.Command, op operation) error {
	env, err := resolveEnvironment(op.backend)
	if err != nil {
		return err
	}
	candidates := credentialCandidates(op.backend, env)

	if flags.showConfig {
		return showConfig(cmd, op.backend, env, candidates)
	}

	summary := op.summary
	if summary == "" {
		summary = op.verb
	}
	outcome, err := shared.Container.ExecuteOperationHandler.Handle(cmd.Context(), commands.ExecuteOperationCommand{
		Backend:        op.backend,
		Environment:    env,
		Verb:           op.verb,
		Classifier:     op.classifier,
		Summary:        summary,
		Describe:       op.describe,
		Overrides:      flags.creds,
		FileCandidates: candidates,
		Options: safety.Options{
			DryRun:      flags.dryRun,
			SkipConfirm: flags.yes,
		},
		Run: op.run,
	})
	if err != nil {
		return err
	}

	switch outcome.State {
	case safety.Preview:
		ui.Infof("[DRY RUN] Would execute on %s: %s", envLabel(op.backend, env), outcome.Summary)
		ui.SubStep("Type: %s", outcome.Classification.Label())
		return nil
	case safety.Aborted:
		ui.Warnf("Operation cancelled.")
		return nil
	}

	if outcome.Result == nil {
		return nil
	}
	path := flags.output
	if op.keepOutput {
		path = ""
	}
	emitter := output.Emitter{Format: op.format, Path: path, Stdout: cmd.OutOrStdout()}
	return emitter.Emit(outcome.Result)
}

// resolveEnvironment picks the profile for b: --env, then OPSKIT_ENV and the
// global default, then an interactive prompt.
func resolveEnvironment(b backend.Backend) (environment.Environment, error) {
	if len(b.Environments) == 0 {
		if flags.env != "" {
			ui.Debug("%s has a single credential set; ignoring --env %s", b.Name, flags.env)
		}
		return environment.None, nil
	}
	if b.OptionalEnvironment {
		if flags.env == "" {
			return environment.None, nil
		}
		return parseEnvironment(b, flags.env)
	}

	name, source := shared.ConfigResolver.ResolveEnvironment(flags.env)
	if name != "" {
		if source != config.SourceFlag {
			ui.Debug("Using environment %s from %s", name, source)
		}
		return parseEnvironment(b, name)
	}

	if prompts.IsInteractive() {
		return prompts.Environment(b.Environments, shared.Container.Policy)
	}
	return environment.None, errUtils.WithHints(
		fmt.Errorf("%w for %s", errUtils.ErrEnvironmentRequired, b.Name),
		fmt.Sprintf("pass --env with one of %s, or set %s", environment.Join(b.Environments), config.EnvDefaultEnv),
	)
}

func parseEnvironment(b backend.Backend, name string) (environment.Environment, error) {
	env, err := environment.Parse(name, b.Environments)
	if err != nil {
		return environment.None, fmt.Errorf("%w: %v", errUtils.ErrInvalidEnvironment, err)
	}
	return env, nil
}

func envLabel(b backend.Backend, env environment.Environment) string {
	if env.IsSet() {
		return env.String()
	}
	return b.Name
}

// credentialCandidates lists the credentials files searched for b.
func credentialCandidates(b backend.Backend, env environment.Environment) []string {
	wd, _ := os.Getwd()
	return credfile.Candidates(credfile.Search{
		Explicit: flags.credentialsFile,
		Home:     shared.ConfigResolver.CredentialsDir(),
		WorkDir:  wd,
		Backend:  b.Name,
		Profile:  env,
	})
}

// resolveCredentials resolves b's keys without running anything.
func resolveCredentials(b backend.Backend, env environment.Environment) *credential.Resolved {
	return shared.Container.ResolveCredentialsQueryHandler.Handle(queries.ResolveCredentialsQuery{
		Request:        b.Request(env),
		Overrides:      flags.creds,
		FileCandidates: credentialCandidates(b, env),
	})
}

// credentialTable lists every key with its variable name, masked value and
// source.
func credentialTable(creds *credential.Resolved) *output.Result {
	req := creds.Request()
	t := &output.Table{Columns: []string{"Key", "Variable", "Value", "Source"}}
	missing := map[string]bool{}
	for _, f := range creds.Unresolved() {
		missing[f] = true
	}

	for _, k := range req.Keys() {
		value := creds.Display(k.Field)
		source := string(creds.Source(k.Field))
		switch {
		case missing[k.Field]:
			value, source = "(missing)", "-"
		case value == "":
			value, source = "(not set)", "-"
		}
		t.Rows = append(t.Rows, []string{k.Field, req.EnvName(k), value, source})
	}

	r := &output.Result{Table: t}
	if creds.File() != "" {
		r.Footer = "Credentials file: " + creds.File()
	}
	return r
}

func showConfig(cmd *cobra.Command, b backend.Backend, env environment.Environment, candidates []string) error {
	creds := shared.Container.ResolveCredentialsQueryHandler.Handle(queries.ResolveCredentialsQuery{
		Request:        b.Request(env),
		Overrides:      flags.creds,
		FileCandidates: candidates,
	})

	ui.Header("%s configuration (%s)", b.Name, envLabel(b, env))
	if err := output.Render(cmd.OutOrStdout(), credentialTable(creds), output.Text); err != nil {
		return err
	}
	if !creds.Complete() {
		return commands.UnresolvedError(b, creds)
	}
	return nil
}

// outputFormat resolves --format against the formats a command supports.
// A configured default the command cannot print falls back to def.
func outputFormat(def output.Format, allowed ...output.Format) (output.Format, error) {
	name, source := shared.ConfigResolver.ResolveFormat(flags.format, string(def))
	f, err := output.ParseFormat(name, allowed...)
	if err != nil && source != config.SourceFlag {
		ui.Debug("Format %q from %s not supported here; using %s", name, source, def)
		return def, nil
	}
	return f, err
}

// firstWord is the verb of a cobra Use line.
func firstWord(use string) string {
	if f := strings.Fields(use); len(f) > 0 {
		return f[0]
	}
	return use
}
