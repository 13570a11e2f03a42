package configcmd

import "github.com/spf13/cobra"

// Cmd is the parent command for configuration management
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage opskit configuration",
	Long: `Commands for managing the global opskit configuration.

Examples:
  opskit config init           Initialize global config (~/.opskit/config.yaml)
  opskit config init --force   Overwrite it with the defaults
  opskit config show           Show global configuration`,
}
