package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/vpn"
	"github.com/vivekkundariya/opskit/internal/output"
)

var vpnQuiet bool

var vpnCmd = &cobra.Command{
	Use:   "vpn",
	Short: "Check VPN connectivity",
}

var vpnCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that an internal host resolves",
	Long: `Check VPN connectivity by resolving a host that only exists on the VPN.

Exit codes: 0 connected, 1 not connected, 2 configuration error.

Credentials: VPN_CHECK_HOST, and optionally VPN_CHECK_EXPECTED_IP,
VPN_CHECK_TIMEOUT (seconds), VPN_CHECK_FALLBACK_HOSTS (comma-separated)`,
	Example: `  opskit vpn check
  opskit vpn check --quiet && opskit mysql -e qa -q "SELECT 1"
  opskit vpn check -f json`,
	Args: cobra.NoArgs,
	RunE: runVPNCheck,
}

func init() {
	vpnCheckCmd.Flags().BoolVarP(&vpnQuiet, "quiet", "q", false, "Print nothing; report through the exit code only")
	vpnCmd.AddCommand(vpnCheckCmd)
}

func runVPNCheck(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(output.Text, output.Text, output.JSON)
	if err != nil {
		return vpn.ConfigError(err)
	}

	err = runOperation(cmd, operation{
		backend: backend.VPN,
		verb:    "check",
		format:  format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			cfg, err := vpn.ConfigFromCredentials(creds)
			if err != nil {
				return nil, err
			}
			st := vpn.NewChecker(nil).Check(ctx, cfg)
			if vpnQuiet {
				return nil, errUtils.Silence(st.Err())
			}

			emitter := output.Emitter{Format: format, Path: flags.output, Stdout: cmd.OutOrStdout()}
			if err := emitter.Emit(st.Result()); err != nil {
				return nil, err
			}
			return nil, st.Err()
		},
	})

	if errUtils.Is(err, errUtils.ErrUnresolvedCredentials) {
		err = vpn.ConfigError(err)
	}
	if vpnQuiet {
		err = errUtils.Silence(err)
	}
	return err
}
