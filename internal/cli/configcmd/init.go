package configcmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/config"
	"github.com/vivekkundariya/opskit/internal/ui"
)

var force bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize global opskit configuration",
	Long: `Initialize the global opskit configuration at ~/.opskit/config.yaml.

This is a one-time setup for your machine. It creates a default configuration
file that you can customize with a default environment, output format,
production environments and the credentials directory.

For backend credentials use 'opskit credentials init <backend>' instead.

Example:
  opskit config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout(), force)
	},
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config with the defaults")
	Cmd.AddCommand(initCmd)
}

// RunInit writes the default global config. An existing file is kept
// unless overwrite is set.
func RunInit(w io.Writer, overwrite bool) error {
	configPath, err := config.GetGlobalConfigPath()
	if err != nil {
		return err
	}

	if overwrite {
		if err := config.ForceInitGlobalConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
	} else {
		created, err := config.InitGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if !created {
			ui.Infof("Global config already exists at %s (use --force to overwrite)", configPath)
			return nil
		}
	}

	ui.Successf("Global config initialized at: %s", configPath)
	fmt.Fprintln(w, "\nYou can customize this file to set default_env, default_format and production_envs.")
	return nil
}
