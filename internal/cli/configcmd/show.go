package configcmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/config"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show opskit configuration",
	Long: `Show the global configuration, the effective defaults and where each
backend looks for its credentials file.

Example:
  opskit config show`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSetupInfo(cmd.OutOrStdout())
	},
}

func init() {
	Cmd.AddCommand(showCmd)
}

func showSetupInfo(w io.Writer) error {
	configResolver := shared.ConfigResolver
	if configResolver == nil {
		return fmt.Errorf("config not initialized")
	}

	globalConfigPath, _ := config.GetGlobalConfigPath()
	status := "not found (run 'opskit config init')"
	if config.GlobalConfigExists() {
		status = "found"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  opskit Configuration")
	fmt.Fprintln(w, "  "+strings.Repeat("─", 40))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Global config:   %s (%s)\n", globalConfigPath, status)
	fmt.Fprintf(w, "  Credentials dir: %s\n", configResolver.CredentialsDir())
	fmt.Fprintf(w, "  AWS config:      %s\n", configResolver.AWSConfigFile())
	fmt.Fprintln(w)

	env, envSource := configResolver.ResolveEnvironment("")
	if env == "" {
		env = "(ask)"
	}
	format, formatSource := configResolver.ResolveFormat("", "text")

	fmt.Fprintln(w, "  Global Settings")
	fmt.Fprintln(w, "  "+strings.Repeat("─", 40))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Setting", "Value", "Source"})
	t.AppendRow(table.Row{"default_env", env, sourceLabel(envSource)})
	t.AppendRow(table.Row{"default_format", format, sourceLabel(formatSource)})
	t.AppendRow(table.Row{"production_envs", strings.Join(configResolver.ProductionEnvs(), ", "), ""})
	t.AppendRow(table.Row{"datadog.site", configResolver.DatadogSite(), ""})
	t.Render()
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Backends")
	fmt.Fprintln(w, "  "+strings.Repeat("─", 40))

	bt := table.NewWriter()
	bt.SetOutputMirror(w)
	bt.SetStyle(table.StyleRounded)
	bt.AppendHeader(table.Row{"Backend", "Prefix", "Environments", "Credentials dir"})
	for _, name := range backend.Names() {
		b, _ := backend.Lookup(name)
		envs := "-"
		if len(b.Environments) > 0 {
			envs = joinEnvs(b)
		}
		dir := filepath.Join(configResolver.CredentialsDir(), name, "references")
		bt.AppendRow(table.Row{name, b.Prefix, envs, dir})
	}
	bt.Render()
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Use 'opskit credentials check <backend>' to see resolved credentials")
	fmt.Fprintln(w)
	return nil
}

func joinEnvs(b backend.Backend) string {
	names := make([]string, len(b.Environments))
	for i, e := range b.Environments {
		names[i] = e.String()
	}
	s := strings.Join(names, ", ")
	if b.OptionalEnvironment {
		s += " (optional)"
	}
	return s
}

func sourceLabel(s config.Source) string {
	if s == config.SourceUnset {
		return "-"
	}
	return string(s)
}
