package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/datadog"
	"github.com/vivekkundariya/opskit/internal/output"
)

var ddFlags struct {
	status    string
	monTags   []string
	metric    string
	hours     int
	scopeTags string
	priority  string
	filter    string
}

var datadogCmd = &cobra.Command{
	Use:     "datadog",
	Aliases: []string{"dd"},
	Short:   "Query Datadog monitors, metrics, dashboards and events",
	Long: `Read-only access to the Datadog API.

The site comes from DD_SITE, then datadog.site in ~/.opskit/config.yaml,
then datadoghq.com. Rate-limited requests are retried.

Credentials: DD_API_KEY, DD_APP_KEY, DD_SITE`,
	Example: `  opskit datadog monitors --status alert --tag team:payments
  opskit datadog monitor 1234567 -f json
  opskit datadog query --metric system.cpu.user --from 4 --tags host:web-01
  opskit datadog events --from 12 --priority normal
  opskit datadog validate`,
}

type ddCall func(ctx context.Context, c *datadog.Client, args []string) (*output.Result, error)

func init() {
	add := func(use, short string, args cobra.PositionalArgs, call ddCall) *cobra.Command {
		verb := firstWord(use)
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, a []string) error {
				return runDatadog(cmd, verb, a, call)
			},
		}
		datadogCmd.AddCommand(cmd)
		return cmd
	}

	monitors := add("monitors", "List monitors", cobra.NoArgs,
		func(ctx context.Context, c *datadog.Client, _ []string) (*output.Result, error) {
			return c.Monitors(ctx, ddFlags.status, ddFlags.monTags)
		})
	monitors.Flags().StringVar(&ddFlags.status, "status", "", "Only monitors in this state (alert, warn, no data, ok)")
	monitors.Flags().StringSliceVar(&ddFlags.monTags, "tag", nil, "Monitor tag filter (repeatable)")

	add("monitor <id>", "Show one monitor", cobra.ExactArgs(1),
		func(ctx context.Context, c *datadog.Client, a []string) (*output.Result, error) {
			return c.Monitor(ctx, a[0])
		})

	query := add("query", "Summarise a metric over recent hours", cobra.NoArgs,
		func(ctx context.Context, c *datadog.Client, _ []string) (*output.Result, error) {
			return c.Query(ctx, datadog.MetricQuery{
				Metric: ddFlags.metric,
				Hours:  ddFlags.hours,
				Tags:   ddFlags.scopeTags,
			})
		})
	query.Flags().StringVar(&ddFlags.metric, "metric", "", "Metric name, e.g. system.cpu.user")
	query.Flags().IntVar(&ddFlags.hours, "from", 1, "Hours to look back")
	query.Flags().StringVar(&ddFlags.scopeTags, "tags", "", "Scope, e.g. host:web-01,env:prod")

	dashboards := add("dashboards", "List dashboards", cobra.NoArgs,
		func(ctx context.Context, c *datadog.Client, _ []string) (*output.Result, error) {
			return c.Dashboards(ctx, ddFlags.filter)
		})
	dashboards.Flags().StringVar(&ddFlags.filter, "filter", "", "Only dashboards whose title contains this text")

	add("dashboard <id>", "Show one dashboard definition", cobra.ExactArgs(1),
		func(ctx context.Context, c *datadog.Client, a []string) (*output.Result, error) {
			return c.Dashboard(ctx, a[0])
		})

	events := add("events", "List recent events", cobra.NoArgs,
		func(ctx context.Context, c *datadog.Client, _ []string) (*output.Result, error) {
			return c.Events(ctx, datadog.EventQuery{
				Hours:    ddFlags.hours,
				Tags:     ddFlags.scopeTags,
				Priority: ddFlags.priority,
			})
		})
	events.Flags().IntVar(&ddFlags.hours, "from", 24, "Hours to look back")
	events.Flags().StringVar(&ddFlags.scopeTags, "tags", "", "Event tag filter")
	events.Flags().StringVar(&ddFlags.priority, "priority", "", "normal or low")

	add("validate", "Check the API and application keys", cobra.NoArgs,
		func(ctx context.Context, c *datadog.Client, _ []string) (*output.Result, error) {
			return c.ValidateResult(ctx)
		})
}

func runDatadog(cmd *cobra.Command, verb string, args []string, call ddCall) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	return runOperation(cmd, operation{
		backend: backend.Datadog,
		verb:    verb,
		format:  format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			cfg := datadog.ConfigFromCredentials(creds, shared.ConfigResolver.DatadogSite())
			return call(ctx, datadog.NewClient(cfg), args)
		},
	})
}
