package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/application/wiring"
	"github.com/vivekkundariya/opskit/internal/cli/configcmd"
	"github.com/vivekkundariya/opskit/internal/cli/prompts"
	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/config"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// Global flags shared by every backend command.
type globalFlags struct {
	env             string
	format          string
	output          string
	dryRun          bool
	yes             bool
	showConfig      bool
	credentialsFile string
	creds           map[string]string
	verbose         bool
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "opskit",
	Short: "opskit - Safe access to Redis, databases, storage and ops APIs",
	Long: `opskit runs one-shot operations against Redis, MySQL, Oracle, S3, SFTP,
RabbitMQ, Datadog, Vault, AWS SSO/EKS and the VPN with shared credential
resolution and confirmation for anything that changes state.

Credentials (highest priority first):
  1. --cred FIELD=value
  2. Environment variables such as REDIS_DEV_HOST
  3. The first credentials file found:
     --credentials-file, ~/.opskit/<backend>/references/.credentials[.<env>],
     ./references/.credentials[.<env>], ./.credentials[.<env>]

Examples:
  opskit redis get user:1 --env dev
  opskit mysql -e qa -q "SELECT * FROM users LIMIT 10"
  opskit s3 ls s3://my-bucket/logs/
  opskit aws kubectl -e prod -- get pods
  opskit credentials check vault --env uat`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetVerbose(flags.verbose)

		// Skip initialization for help, version and completion commands
		switch cmd.Name() {
		case "help", "version", "completion":
			return nil
		}

		var err error
		shared.ConfigResolver, err = config.NewConfigResolver()
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		ui.Debug("Credentials directory: %s", shared.ConfigResolver.CredentialsDir())

		shared.Console = prompts.NewConsole(os.Stdin, ui.Writer())
		shared.Container = wiring.NewContainer(shared.ConfigResolver, shared.Console)
		return nil
	},
}

// Execute runs the root command with Ctrl-C cancelling the context and
// prints the error and its hints.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errUtils.IsSilent(err) {
		ui.Errorf("%v", err)
		for _, h := range errUtils.Hints(err) {
			ui.SubStep("%s", h)
		}
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.env, "env", "e", "", "Target environment (DEV, QA, UAT, PROD; LOCAL for rabbitmq)")
	pf.StringVarP(&flags.format, "format", "f", "", "Output format (backend dependent: table, markdown, json, csv, env, raw)")
	pf.StringVarP(&flags.output, "output", "o", "", "Write the result to a file (download destination for get)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Show what would run without connecting")
	pf.BoolVarP(&flags.yes, "yes", "y", false, "Skip advisory prompts (never skips write confirmation)")
	pf.BoolVar(&flags.showConfig, "show-config", false, "Print the resolved configuration with secrets masked and exit")
	pf.StringVar(&flags.credentialsFile, "credentials-file", "", "Credentials file to read before the default locations")
	pf.StringToStringVar(&flags.creds, "cred", nil, "Override a credential, e.g. --cred HOST=10.0.0.5 (repeatable)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(redisCmd)
	rootCmd.AddCommand(mysqlCmd)
	rootCmd.AddCommand(oracleCmd)
	rootCmd.AddCommand(s3Cmd)
	rootCmd.AddCommand(sftpCmd)
	rootCmd.AddCommand(rabbitmqCmd)
	rootCmd.AddCommand(datadogCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(awsCmd)
	rootCmd.AddCommand(vpnCmd)
	rootCmd.AddCommand(credentialsCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(newSetupCmd())
}

// newSetupCmd creates the setup subcommand for global configuration
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Initialize global opskit configuration",
		Long: `Initialize the global opskit configuration at ~/.opskit/config.yaml.

This is a one-time setup for your machine. It is the same as 'opskit config init'.
For backend credentials use 'opskit credentials init <backend>'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configcmd.RunInit(cmd.OutOrStdout(), false)
		},
	}
}
