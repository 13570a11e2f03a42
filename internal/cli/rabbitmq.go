package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/rabbitmq"
	"github.com/vivekkundariya/opskit/internal/output"
)

var rabbitFlags struct {
	filter  string
	backlog bool
	vhost   string
	rates   bool
}

var rabbitmqCmd = &cobra.Command{
	Use:   "rabbitmq",
	Short: "Inspect RabbitMQ through the management API",
	Long: `Read-only monitoring of a RabbitMQ broker through its management API.

Environments: LOCAL, DEV, QA, UAT, PROD. LOCAL defaults to guest/guest on
localhost:15672.

Credentials: RABBITMQ_<ENV>_HOST, RABBITMQ_<ENV>_PORT, RABBITMQ_<ENV>_USERNAME,
RABBITMQ_<ENV>_PASSWORD, RABBITMQ_<ENV>_VHOST, RABBITMQ_<ENV>_SSL`,
	Example: `  opskit rabbitmq overview -e local
  opskit rabbitmq queues -e dev --filter order --backlog
  opskit rabbitmq queue orders.created -e qa --rates
  opskit rabbitmq bindings orders.created -e qa -f json`,
}

type rabbitCall func(ctx context.Context, c *rabbitmq.Client, args []string) (*output.Result, error)

// vhost is --vhost, falling back to the configured virtual host.
func vhost(c *rabbitmq.Client) string {
	if rabbitFlags.vhost != "" {
		return rabbitFlags.vhost
	}
	return c.Config().VHost
}

func init() {
	add := func(use, short string, args cobra.PositionalArgs, call rabbitCall) *cobra.Command {
		verb := firstWord(use)
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, a []string) error {
				return runRabbit(cmd, verb, a, call)
			},
		}
		rabbitmqCmd.AddCommand(cmd)
		return cmd
	}

	add("overview", "Show cluster overview", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Overview(ctx)
		})
	add("nodes", "Show node status", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Nodes(ctx)
		})
	add("health", "Run the broker health checks", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Health(ctx)
		})

	queues := add("queues", "List queues, largest backlog first", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Queues(ctx, rabbitmq.QueueFilter{
				VHost:   rabbitFlags.vhost,
				Name:    rabbitFlags.filter,
				Backlog: rabbitFlags.backlog,
			})
		})
	queues.Flags().StringVar(&rabbitFlags.filter, "filter", "", "Only queues whose name contains this text")
	queues.Flags().BoolVar(&rabbitFlags.backlog, "backlog", false, "Only queues with pending messages")

	queue := add("queue <name>", "Show one queue", cobra.ExactArgs(1),
		func(ctx context.Context, c *rabbitmq.Client, a []string) (*output.Result, error) {
			return c.Queue(ctx, vhost(c), a[0], rabbitFlags.rates)
		})
	queue.Flags().BoolVar(&rabbitFlags.rates, "rates", false, "Include message rates")

	add("connections", "List client connections", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Connections(ctx)
		})
	add("channels", "List channels", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Channels(ctx)
		})
	add("consumers", "List consumers", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Consumers(ctx)
		})
	add("exchanges", "List exchanges", cobra.NoArgs,
		func(ctx context.Context, c *rabbitmq.Client, _ []string) (*output.Result, error) {
			return c.Exchanges(ctx, rabbitFlags.vhost)
		})
	add("bindings <queue>", "List the bindings of a queue", cobra.ExactArgs(1),
		func(ctx context.Context, c *rabbitmq.Client, a []string) (*output.Result, error) {
			return c.Bindings(ctx, vhost(c), a[0])
		})

	rabbitmqCmd.PersistentFlags().StringVar(&rabbitFlags.vhost, "vhost", "", "Virtual host (default: all for listings, RABBITMQ_<ENV>_VHOST otherwise)")
}

func runRabbit(cmd *cobra.Command, verb string, args []string, call rabbitCall) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	return runOperation(cmd, operation{
		backend: backend.RabbitMQ,
		verb:    verb,
		format:  format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			cfg, err := rabbitmq.ConfigFromCredentials(creds)
			if err != nil {
				return nil, err
			}
			return call(ctx, rabbitmq.NewClient(cfg), args)
		},
	})
}
