package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/cli/prompts"
	"github.com/vivekkundariya/opskit/internal/cli/skills"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Install the opskit skill for AI coding assistants",
	Long: `Install, remove or inspect the using-opskit skill for Claude Code and
Cursor. The skill teaches the assistant the opskit commands and the
confirmation rules for writes.`,
	Example: `  opskit skills install
  opskit skills install claude
  opskit skills uninstall cursor
  opskit skills status`,
}

func init() {
	install := &cobra.Command{
		Use:       "install [assistant]...",
		Short:     "Install the skill",
		ValidArgs: []string{"claude", "cursor"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkills(args, "install", skills.Install)
		},
	}
	uninstall := &cobra.Command{
		Use:       "uninstall [assistant]...",
		Short:     "Remove the skill",
		ValidArgs: []string{"claude", "cursor"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkills(args, "uninstall", skills.Uninstall)
		},
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show where the skill is installed",
		Args:  cobra.NoArgs,
		RunE:  runSkillsStatus,
	}
	skillsCmd.AddCommand(install, uninstall, status)
}

// selectAssistants takes assistants from args, asks on a terminal, and
// falls back to every assistant otherwise.
func selectAssistants(args []string, verb string) ([]skills.AIAssistant, error) {
	var names []string
	switch {
	case len(args) > 0:
		names = args
	case prompts.IsInteractive():
		picked, err := prompts.MultiSelect(fmt.Sprintf("Which assistants should opskit %s the skill for?", verb),
			[]string{"claude", "cursor"})
		if err != nil {
			return nil, err
		}
		names = picked
	default:
		return skills.AllAssistants(), nil
	}

	assistants := make([]skills.AIAssistant, 0, len(names))
	for _, n := range names {
		a, err := skills.ParseAssistant(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUtils.ErrInvalidArgument, err)
		}
		assistants = append(assistants, a)
	}
	return assistants, nil
}

func runSkills(args []string, verb string, apply func(skills.AIAssistant) error) error {
	assistants, err := selectAssistants(args, verb)
	if err != nil {
		return err
	}
	if len(assistants) == 0 {
		ui.Warnf("No assistant selected")
		return nil
	}

	for _, a := range assistants {
		path, err := skills.SkillPaths(a)
		if err != nil {
			return err
		}
		if flags.dryRun {
			ui.Infof("[DRY RUN] Would %s %s skill at %s", verb, skills.AssistantName(a), path)
			continue
		}
		if err := apply(a); err != nil {
			return err
		}
		ui.Successf("%s: %sed %s", skills.AssistantName(a), verb, path)
	}
	return nil
}

func runSkillsStatus(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	type row struct {
		Assistant string `json:"assistant"`
		Path      string `json:"path"`
		Installed bool   `json:"installed"`
	}
	var (
		rows [][]string
		data []row
	)
	for _, a := range skills.AllAssistants() {
		path, err := skills.SkillPaths(a)
		if err != nil {
			return err
		}
		r := row{Assistant: skills.AssistantName(a), Path: path, Installed: skills.IsInstalled(a)}
		state := "no"
		if r.Installed {
			state = "yes"
		}
		data = append(data, r)
		rows = append(rows, []string{r.Assistant, r.Path, state})
	}

	emitter := output.Emitter{Format: format, Path: flags.output, Stdout: cmd.OutOrStdout()}
	return emitter.Emit(&output.Result{
		Table: &output.Table{Columns: []string{"Assistant", "Path", "Installed"}, Rows: rows},
		Data:  data,
	})
}
