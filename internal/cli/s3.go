package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/s3store"
	"github.com/vivekkundariya/opskit/internal/output"
)

var s3Flags struct {
	recursive bool
	limit     int
}

var s3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Browse and transfer S3 objects",
	Long: `Browse, download and upload S3 objects.

Paths are written as s3://bucket/key or bucket/key. put, rm and cp ask for
confirmation.

Credentials (all optional, the default AWS chain is used otherwise):
AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN,
AWS_DEFAULT_REGION, AWS_PROFILE, AWS_ENDPOINT_URL`,
	Example: `  opskit s3 buckets
  opskit s3 ls s3://app-logs/2024/ --recursive --limit 50
  opskit s3 get s3://app-config/settings.json
  opskit s3 get s3://app-logs/today.log -o ./today.log
  opskit s3 put ./report.csv s3://reports/daily/report.csv`,
}

func init() {
	buckets := &cobra.Command{
		Use:   "buckets",
		Short: "List buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runS3(cmd, "buckets", "List buckets", func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				return c.Buckets(ctx)
			})
		},
	}

	ls := &cobra.Command{
		Use:   "ls [s3://bucket/prefix]",
		Short: "List objects, or buckets when no path is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runS3(cmd, "ls", "List buckets", func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
					return c.Buckets(ctx)
				})
			}
			opts := s3store.ListOptions{Recursive: s3Flags.recursive, Limit: s3Flags.limit}
			return runS3(cmd, "ls", "List "+args[0], func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				return c.List(ctx, args[0], opts)
			})
		},
	}
	ls.Flags().BoolVarP(&s3Flags.recursive, "recursive", "r", false, "List every object under the prefix")
	ls.Flags().IntVar(&s3Flags.limit, "limit", 1000, "Maximum number of objects to list")

	get := &cobra.Command{
		Use:   "get <s3://bucket/key>",
		Short: "Print an object, or download it with --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := flags.output
			return runS3Keep(cmd, "get", "Get "+args[0], func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				if dest != "" {
					return c.Download(ctx, args[0], dest)
				}
				return c.Show(ctx, args[0])
			})
		},
	}

	put := &cobra.Command{
		Use:   "put <local-file> <s3://bucket/key>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runS3(cmd, "put", fmt.Sprintf("Upload %s to %s", args[0], args[1]), func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				return c.Put(ctx, args[0], args[1])
			})
		},
	}

	info := &cobra.Command{
		Use:   "info <s3://bucket/key>",
		Short: "Show object metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runS3(cmd, "info", "Info "+args[0], func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				return c.Info(ctx, args[0])
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <s3://bucket/key>",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runS3(cmd, "rm", "Delete "+args[0], func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				return c.Remove(ctx, args[0])
			})
		},
	}

	cp := &cobra.Command{
		Use:   "cp <s3://bucket/key> <s3://bucket/key>",
		Short: "Copy an object within S3",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runS3(cmd, "cp", fmt.Sprintf("Copy %s to %s", args[0], args[1]), func(ctx context.Context, c *s3store.Client) (*output.Result, error) {
				return c.Copy(ctx, args[0], args[1])
			})
		},
	}

	s3Cmd.AddCommand(buckets, ls, get, put, info, rm, cp)
}

type s3Call func(ctx context.Context, c *s3store.Client) (*output.Result, error)

func runS3(cmd *cobra.Command, verb, summary string, call s3Call) error {
	return s3Operation(cmd, verb, summary, false, call)
}

// runS3Keep is runS3 for calls that use --output themselves.
func runS3Keep(cmd *cobra.Command, verb, summary string, call s3Call) error {
	return s3Operation(cmd, verb, summary, true, call)
}

func s3Operation(cmd *cobra.Command, verb, summary string, keepOutput bool, call s3Call) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}

	return runOperation(cmd, operation{
		backend:    backend.S3,
		verb:       verb,
		summary:    summary,
		format:     format,
		keepOutput: keepOutput,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			client, err := s3store.NewClient(ctx, s3store.ConfigFromCredentials(creds))
			if err != nil {
				return nil, err
			}
			return call(ctx, client)
		},
	})
}
