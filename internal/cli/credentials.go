package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/application/commands"
	"github.com/vivekkundariya/opskit/internal/cli/prompts"
	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/credfile"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Check and create backend credentials files",
	Long: `Inspect where a backend's credentials come from and create credentials
files.

Credentials files contain lines of the form export NAME="value" and are read
literally, never sourced. Keep them at mode 0600 and out of git.`,
}

var setupFlags struct {
	example string
	backup  bool
}

func init() {
	check := &cobra.Command{
		Use:       "check <backend>",
		Short:     "Show every credential key, its source and status",
		Args:      cobra.ExactArgs(1),
		ValidArgs: backend.Names(),
		RunE:      runCredentialsCheck,
	}

	initCmd := &cobra.Command{
		Use:       "init <backend>",
		Short:     "Add empty placeholders for missing keys to the backend's credentials file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: backend.Names(),
		RunE:      runCredentialsInit,
	}

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Create a credentials file interactively from a .credentials.example template",
		Long: `Prompt for every variable in a .credentials.example template and write
the result with mode 0600 to --output (default: the template path without
.example).

Active "export NAME=..." lines are required, commented "# export" lines are
optional. Values for names containing PASSWORD, TOKEN, SECRET, KEY or
CREDENTIALS are read without echo.`,
		Example: `  opskit credentials setup --example references/.credentials.example
  opskit credentials setup --example .credentials.example -o .credentials.qa --backup`,
		Args: cobra.NoArgs,
		RunE: runCredentialsSetup,
	}
	setup.Flags().StringVar(&setupFlags.example, "example", ".credentials.example", "Template file")
	setup.Flags().BoolVar(&setupFlags.backup, "backup", false, "Back up an existing file before overwriting it")

	credentialsCmd.AddCommand(check, initCmd, setup)
}

func lookupBackend(name string) (backend.Backend, error) {
	b, ok := backend.Lookup(strings.ToLower(name))
	if !ok {
		return backend.Backend{}, errUtils.WithHints(
			fmt.Errorf("%w: %s", errUtils.ErrUnknownBackend, name),
			"available backends: "+strings.Join(backend.Names(), ", "),
		)
	}
	return b, nil
}

func runCredentialsCheck(cmd *cobra.Command, args []string) error {
	b, err := lookupBackend(args[0])
	if err != nil {
		return err
	}
	env, err := resolveEnvironment(b)
	if err != nil {
		return err
	}
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	creds := resolveCredentials(b, env)
	ui.Header("%s credentials (%s)", b.Name, envLabel(b, env))

	emitter := output.Emitter{Format: format, Path: flags.output, Stdout: cmd.OutOrStdout()}
	if err := emitter.Emit(checkTable(creds)); err != nil {
		return err
	}

	if path := creds.File(); path != "" {
		if mode, err := credfile.Permissions(path); err == nil && mode != 0o600 {
			ui.Warnf("%s has mode %04o; run: chmod 600 %s", path, mode, path)
		}
	}

	if !creds.Complete() {
		return commands.UnresolvedError(b, creds)
	}
	ui.Successf("All required %s credentials found", b.Name)
	return nil
}

// checkTable reports, per key, the names consulted and the status.
func checkTable(creds *credential.Resolved) *output.Result {
	req := creds.Request()
	profileFile := credential.IsProfileFile(creds.File(), req.Profile())
	missing := map[string]bool{}
	for _, f := range creds.Unresolved() {
		missing[f] = true
	}

	type row struct {
		Key       string   `json:"key"`
		Variables []string `json:"variables"`
		Source    string   `json:"source"`
		Status    string   `json:"status"`
		Value     string   `json:"value"`
	}
	var (
		rows [][]string
		data []row
	)
	for _, k := range req.Keys() {
		names := append([]string{req.EnvName(k)}, req.FileNames(k, profileFile)...)
		names = unique(names)

		status := "found"
		switch {
		case missing[k.Field]:
			status = "missing"
		case creds.Source(k.Field) == credential.SourceNone:
			status = "optional"
		}
		source := string(creds.Source(k.Field))
		if source == "" {
			source = "-"
		}

		r := row{Key: k.Field, Variables: names, Source: source, Status: status, Value: creds.Display(k.Field)}
		data = append(data, r)
		rows = append(rows, []string{r.Key, strings.Join(r.Variables, ", "), r.Source, r.Status, r.Value})
	}

	res := &output.Result{
		Table: &output.Table{Columns: []string{"Key", "Variables", "Source", "Status", "Value"}, Rows: rows},
		Data:  data,
	}
	if creds.File() != "" {
		res.Footer = "Credentials file: " + creds.File()
	} else {
		res.Footer = "No credentials file found"
	}
	return res
}

func unique(names []string) []string {
	seen := map[string]bool{}
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func runCredentialsInit(cmd *cobra.Command, args []string) error {
	b, err := lookupBackend(args[0])
	if err != nil {
		return err
	}
	env, err := resolveEnvironment(b)
	if err != nil {
		return err
	}

	perProfile := b.OptionalEnvironment
	path := credfile.LocalPath(shared.ConfigResolver.CredentialsDir(), b.Name, env, perProfile)
	req := b.Request(env)

	var placeholders []credfile.Placeholder
	for _, k := range req.Keys() {
		name := req.EnvName(k)
		if perProfile && env.IsSet() {
			name = req.UnscopedName(k)
		}
		placeholders = append(placeholders, credfile.Placeholder{
			Name:        name,
			Description: k.Description,
			Optional:    k.Optional,
		})
	}

	if flags.dryRun {
		ui.Infof("[DRY RUN] Would add %d placeholders to %s", len(placeholders), path)
		return nil
	}

	added, err := credfile.AppendPlaceholders(path, placeholders)
	if err != nil {
		return err
	}
	if added == 0 {
		ui.Infof("%s already lists every %s key", path, b.Name)
		return nil
	}
	ui.Successf("Added %d placeholders to %s", added, path)
	ui.SubStep("Fill in the values, then run: opskit credentials check %s", b.Name)
	return nil
}

func runCredentialsSetup(cmd *cobra.Command, args []string) error {
	f, err := os.Open(setupFlags.example)
	if err != nil {
		return errUtils.WithHints(
			fmt.Errorf("%w: cannot open template: %v", errUtils.ErrInvalidArgument, err),
			"pass --example with the path to a .credentials.example file",
		)
	}
	tmpl, err := credfile.ParseTemplate(f)
	f.Close()
	if err != nil {
		return err
	}

	dest := flags.output
	if dest == "" {
		dest = strings.TrimSuffix(setupFlags.example, ".example")
		if dest == setupFlags.example {
			dest += ".local"
		}
	}

	required, optional := tmpl.Required(), tmpl.Optional()
	ui.Header("Credentials setup: %s", setupFlags.example)
	ui.Infof("%d required, %d optional variables", len(required), len(optional))

	if flags.dryRun {
		for _, e := range required {
			ui.SubStep("%s (required)", e.Variable)
		}
		for _, e := range optional {
			ui.SubStep("%s (optional)", e.Variable)
		}
		ui.Infof("[DRY RUN] Would write %s", dest)
		return nil
	}
	if !prompts.IsInteractive() {
		return fmt.Errorf("%w: credentials setup needs an interactive terminal", errUtils.ErrInvalidArgument)
	}

	values := map[string]string{}
	ask := func(e credfile.TemplateEntry, label string) error {
		title := fmt.Sprintf("%s%s", e.Variable, label)
		if e.Context != "" {
			title += " - " + e.Context
		}
		var v string
		for {
			var err error
			if e.Sensitive() {
				v, err = prompts.Password(title)
			} else {
				v, err = prompts.Text(title, "")
			}
			if err != nil {
				return err
			}
			v = strings.TrimSpace(v)
			if err := credfile.ValidateValue(v); err != nil {
				ui.Warnf("%s: %v; enter it again", e.Variable, err)
				continue
			}
			break
		}
		if v != "" {
			values[e.Variable] = v
		} else if e.Required {
			ui.Warnf("%s left empty", e.Variable)
		}
		return nil
	}
	for _, e := range required {
		if err := ask(e, ""); err != nil {
			return err
		}
	}
	for _, e := range optional {
		if err := ask(e, " (optional)"); err != nil {
			return err
		}
	}

	now := time.Now()
	if _, err := os.Stat(dest); err == nil {
		if setupFlags.backup {
			backup, err := credfile.Backup(dest, now)
			if err != nil {
				return err
			}
			ui.Infof("Backed up %s to %s", dest, backup)
		} else {
			ok, err := prompts.Confirm(fmt.Sprintf("%s exists. Overwrite?", dest), false)
			if err != nil {
				return err
			}
			if !ok {
				ui.Warnf("Operation cancelled.")
				return nil
			}
		}
	}

	if err := credfile.WriteSecure(dest, tmpl.Render(values, now)); err != nil {
		return err
	}
	ui.Successf("Wrote %s (mode 0600) with %d values", dest, len(values))

	gi, err := credfile.CheckGitignore(dest)
	switch {
	case err != nil:
		ui.Debug("gitignore check failed: %v", err)
	case gi.RepoRoot != "" && !gi.Ignored:
		ui.Warnf("%s does not ignore %s files; add '%s*' to it", gi.Path, credfile.BaseName, credfile.BaseName)
	}
	return nil
}
