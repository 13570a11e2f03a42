package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/redisdb"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

var redisFlags struct {
	ttl        int
	withScores bool
	section    string
}

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Run Redis commands",
	Long: `Run a single Redis command against DEV, QA, UAT or PROD.

Write commands (set, del, expire, flushdb, ...) ask for confirmation;
on production environments you must type PROD.

Credentials: REDIS_<ENV>_HOST, REDIS_<ENV>_PORT, REDIS_<ENV>_PASSWORD,
REDIS_<ENV>_DB, REDIS_<ENV>_SSL`,
	Example: `  opskit redis get session:42 -e dev
  opskit redis set feature:x on --ttl 3600 -e qa
  opskit redis hgetall user:1 -e uat -f json
  opskit redis info --section memory -e prod`,
}

func init() {
	for _, c := range redisdb.Commands() {
		redisCmd.AddCommand(newRedisSubcommand(c))
	}
}

func newRedisSubcommand(c redisdb.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   c.Use,
		Short: c.Short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.CheckArgs(args); err != nil {
				return err
			}
			return runRedis(cmd, c, args)
		},
	}

	switch c.Name {
	case "set":
		cmd.Flags().IntVar(&redisFlags.ttl, "ttl", 0, "Expire the key after this many seconds")
	case "zrange":
		cmd.Flags().BoolVar(&redisFlags.withScores, "withscores", false, "Include scores")
	case "info":
		cmd.Flags().StringVar(&redisFlags.section, "section", "", "Only show one INFO section, e.g. memory")
	}
	return cmd
}

func runRedis(cmd *cobra.Command, c redisdb.Command, args []string) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	in := redisdb.Input{
		Args:       args,
		TTL:        time.Duration(redisFlags.ttl) * time.Second,
		WithScores: redisFlags.withScores,
		Section:    redisFlags.section,
	}

	return runOperation(cmd, operation{
		backend: backend.Redis,
		verb:    c.Name,
		summary: redisdb.Summary(c.Name, in, 0),
		describe: func(creds *credential.Resolved) string {
			cfg, err := redisdb.ConfigFromCredentials(creds)
			if err != nil {
				return redisdb.Summary(c.Name, in, 0)
			}
			return redisdb.Summary(c.Name, in, cfg.DB)
		},
		format: format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			cfg, err := redisdb.ConfigFromCredentials(creds)
			if err != nil {
				return nil, err
			}
			ui.Debug("Connecting to redis at %s (db %d)", cfg.Addr(), cfg.DB)

			client, err := redisdb.NewClient(ctx, cfg)
			if err != nil {
				return nil, err
			}
			defer client.Close()

			return c.Run(ctx, client, in)
		},
	})
}
