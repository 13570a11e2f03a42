package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/awssso"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

var awsCmd = &cobra.Command{
	Use:   "aws",
	Short: "Switch AWS SSO environments and run kubectl on EKS",
	Long: `Manage AWS SSO sessions and EKS kubectl contexts per environment.

Profiles named <env>-sso are added to ~/.aws/config on first use and the
kubectl context <env>-<cluster> is created with aws eks update-kubeconfig.
kubectl write verbs (delete, apply, scale, exec, ...) ask for confirmation.

Credentials: AWS_SSO_START_URL, AWS_SSO_REGION, and per environment
AWS_<ENV>_SSO_ACCOUNT_ID, AWS_<ENV>_SSO_ROLE_NAME, AWS_<ENV>_EKS_CLUSTER,
AWS_<ENV>_EKS_REGION, AWS_<ENV>_NAMESPACE`,
	Example: `  opskit aws status
  opskit aws switch -e qa
  opskit aws kubectl -e prod -- get pods
  opskit aws kubectl -- logs deploy/api --tail 50
  opskit aws current`,
}

func init() {
	status := &cobra.Command{
		Use:   "status",
		Short: "Show SSO session status for every environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAWSOverview(cmd, func(ctx context.Context, s *awssso.Switcher, targets []awssso.Target) *output.Result {
				return s.Status(ctx, targets)
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAWSOverview(cmd, func(_ context.Context, _ *awssso.Switcher, targets []awssso.Target) *output.Result {
				return awssso.List(targets)
			})
		},
	}

	current := &cobra.Command{
		Use:   "current",
		Short: "Show which environment the current kubectl context belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAWSOverview(cmd, func(ctx context.Context, s *awssso.Switcher, targets []awssso.Target) *output.Result {
				return s.Current(ctx, targets)
			})
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch",
		Short: "Log in if needed and switch kubectl to an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAWS(cmd, "switch", func(ctx context.Context, s *awssso.Switcher, t awssso.Target) (*output.Result, error) {
				return s.Switch(ctx, t)
			})
		},
	}

	login := &cobra.Command{
		Use:   "login",
		Short: "Start an SSO session for an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAWS(cmd, "login", func(ctx context.Context, s *awssso.Switcher, t awssso.Target) (*output.Result, error) {
				return s.Login(ctx, t)
			})
		},
	}

	update := &cobra.Command{
		Use:   "update-kubeconfig",
		Short: "Write the kubectl context for an environment's cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAWS(cmd, "update-kubeconfig", func(ctx context.Context, s *awssso.Switcher, t awssso.Target) (*output.Result, error) {
				return s.UpdateKubeconfig(ctx, t)
			})
		},
	}

	kubectl := &cobra.Command{
		Use:   "kubectl -- <args>...",
		Short: "Run kubectl against an environment's cluster",
		Long: `Run kubectl with --context and the default namespace of the environment.

Without --env the environment is taken from the current kubectl context.
Pass kubectl arguments after "--".`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAWSKubectl,
	}

	awsCmd.AddCommand(status, list, current, switchCmd, login, update, kubectl)
}

func newSwitcher(settings awssso.Settings) *awssso.Switcher {
	configFile := shared.ConfigResolver.AWSConfigFile()
	sdk := awssso.SDK{ConfigFile: configFile}
	return awssso.NewSwitcher(settings, awssso.NewProfileStore(configFile), sdk, sdk, shared.Container.Runner)
}

// awsTargets resolves every environment's AWS keys.
func awsTargets() (awssso.Settings, []awssso.Target) {
	var settings awssso.Settings
	targets := make([]awssso.Target, 0, len(backend.AWS.Environments))
	for _, env := range backend.AWS.Environments {
		s, t := awssso.FromCredentials(resolveCredentials(backend.AWS, env))
		if settings.StartURL == "" {
			settings = s
		}
		targets = append(targets, t)
	}
	return settings, targets
}

// runAWSOverview runs the read-only commands that look at every
// environment at once.
func runAWSOverview(cmd *cobra.Command, show func(ctx context.Context, s *awssso.Switcher, targets []awssso.Target) *output.Result) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}
	settings, targets := awsTargets()
	var res *output.Result
	ui.Spin("Checking AWS environments", func() {
		res = show(cmd.Context(), newSwitcher(settings), targets)
	})

	emitter := output.Emitter{Format: format, Path: flags.output, Stdout: cmd.OutOrStdout()}
	return emitter.Emit(res)
}

type awsCall func(ctx context.Context, s *awssso.Switcher, t awssso.Target) (*output.Result, error)

func runAWS(cmd *cobra.Command, verb string, call awsCall) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	return runOperation(cmd, operation{
		backend: backend.AWS,
		verb:    verb,
		format:  format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			settings, target := awssso.FromCredentials(creds)
			return call(ctx, newSwitcher(settings), target)
		},
	})
}

func runAWSKubectl(cmd *cobra.Command, args []string) error {
	if flags.env == "" {
		if name, _ := shared.ConfigResolver.ResolveEnvironment(""); name == "" {
			settings, targets := awsTargets()
			current := newSwitcher(settings).CurrentContext(cmd.Context())
			if t, ok := awssso.Detect(current, targets); ok {
				ui.Infof("Using %s from kubectl context %s", t.Env, current)
				flags.env = t.Env.String()
			}
		}
	}

	command := strings.Join(args, " ")
	return runOperation(cmd, operation{
		backend:    backend.AWS,
		verb:       command,
		classifier: backend.Kubectl,
		summary:    "kubectl " + command,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			settings, target := awssso.FromCredentials(creds)
			return nil, newSwitcher(settings).Kubectl(ctx, target, args)
		},
	})
}
