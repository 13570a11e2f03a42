package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/vaultkv"
	"github.com/vivekkundariya/opskit/internal/output"
)

var vaultFlags struct {
	key       string
	show      bool
	kvVersion string
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Read secrets from HashiCorp Vault",
	Long: `Read-only access to Vault KV secrets.

Values are masked unless --show is given; --format raw prints a single
value unmasked for use in scripts. KV v2 is tried first with a fallback
to v1 unless --kv-version or VAULT_KV_VERSION pins one.

--env selects per-environment credentials (.credentials.<env> or
VAULT_<ENV>_ADDR); without it VAULT_ADDR and friends are used.

Credentials: VAULT_ADDR, and VAULT_TOKEN or VAULT_ROLE_ID with
VAULT_ROLE_SECRET; optional VAULT_NAMESPACE, VAULT_SKIP_VERIFY`,
	Example: `  opskit vault get secret/myapp/database
  opskit vault get secret/myapp/database --key password --show
  opskit vault get secret/myapp/database --key password -f raw
  opskit vault get secret/myapp/config -f env > .env
  opskit vault list secret/myapp -e uat
  opskit vault status`,
}

func init() {
	get := &cobra.Command{
		Use:   "get <path>",
		Short: "Read a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(output.Text, output.Text, output.JSON, output.Env, output.Raw)
			if err != nil {
				return err
			}
			return runVault(cmd, "get", format, func(ctx context.Context, c *vaultkv.Client, v vaultkv.KVVersion) (*output.Result, error) {
				secret, err := c.Get(ctx, args[0], vaultFlags.key, v)
				if err != nil {
					return nil, err
				}
				return secret.Result(vaultFlags.show, format)
			})
		},
	}
	get.Flags().StringVar(&vaultFlags.key, "key", "", "Only this key of the secret")
	get.Flags().BoolVar(&vaultFlags.show, "show", false, "Print values unmasked")

	list := &cobra.Command{
		Use:   "list <path>",
		Short: "List secrets under a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(output.Text, output.Text, output.JSON)
			if err != nil {
				return err
			}
			return runVault(cmd, "list", format, func(ctx context.Context, c *vaultkv.Client, v vaultkv.KVVersion) (*output.Result, error) {
				return c.List(ctx, args[0], v)
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show seal status and token details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(output.Text, output.Text, output.JSON)
			if err != nil {
				return err
			}
			return runVault(cmd, "status", format, func(ctx context.Context, c *vaultkv.Client, _ vaultkv.KVVersion) (*output.Result, error) {
				return c.Status(ctx)
			})
		},
	}

	vaultCmd.PersistentFlags().StringVar(&vaultFlags.kvVersion, "kv-version", "", "KV engine version: 1, 2 or auto")
	vaultCmd.AddCommand(get, list, status)
}

type vaultCall func(ctx context.Context, c *vaultkv.Client, v vaultkv.KVVersion) (*output.Result, error)

func runVault(cmd *cobra.Command, verb string, format output.Format, call vaultCall) error {
	v, err := vaultkv.ParseKVVersion(vaultFlags.kvVersion)
	if err != nil {
		return err
	}

	return runOperation(cmd, operation{
		backend: backend.Vault,
		verb:    verb,
		format:  format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			cfg, err := vaultkv.ConfigFromCredentials(creds)
			if err != nil {
				return nil, err
			}
			client, err := vaultkv.NewClient(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return call(ctx, client, v)
		},
	})
}
