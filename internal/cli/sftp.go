package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/infrastructure/sftpfs"
	"github.com/vivekkundariya/opskit/internal/output"
)

var sftpCmd = &cobra.Command{
	Use:   "sftp",
	Short: "Browse and transfer files over SFTP",
	Long: `Browse, download and upload files on the SFTP server.

put, rm, mkdir and rmdir ask for confirmation. Host keys are checked
against SFTP_KNOWN_HOSTS (default ~/.ssh/known_hosts).

Credentials: SFTP_HOST, SFTP_PORT, SFTP_USERNAME, and SFTP_PASSWORD or
SFTP_KEY_FILE (with SFTP_KEY_PASSPHRASE)`,
	Example: `  opskit sftp ls /outgoing
  opskit sftp get /outgoing/batch.csv -o ./batch.csv
  opskit sftp put ./upload.csv /incoming/upload.csv
  opskit sftp info /outgoing/batch.csv -f json`,
}

type sftpVerb struct {
	name    string
	use     string
	short   string
	args    cobra.PositionalArgs
	summary func(args []string) string
	call    func(b *sftpfs.Browser, args []string, dest string) (*output.Result, error)
	keep    bool
}

var sftpVerbs = []sftpVerb{
	{
		name: "ls", use: "ls [path]", short: "List a directory",
		args:    cobra.MaximumNArgs(1),
		summary: func(args []string) string { return "List " + firstArg(args, ".") },
		call: func(b *sftpfs.Browser, args []string, _ string) (*output.Result, error) {
			return b.List(firstArg(args, "."))
		},
	},
	{
		name: "get", use: "get <path>", short: "Print a file, or download it with --output",
		args:    cobra.ExactArgs(1),
		summary: func(args []string) string { return "Get " + args[0] },
		call: func(b *sftpfs.Browser, args []string, dest string) (*output.Result, error) {
			if dest != "" {
				return b.Download(args[0], dest)
			}
			return b.Show(args[0])
		},
		keep: true,
	},
	{
		name: "put", use: "put <local-file> <remote-path>", short: "Upload a file",
		args:    cobra.ExactArgs(2),
		summary: func(args []string) string { return fmt.Sprintf("Upload %s to %s", args[0], args[1]) },
		call: func(b *sftpfs.Browser, args []string, _ string) (*output.Result, error) {
			return b.Put(args[0], args[1])
		},
	},
	{
		name: "info", use: "info <path>", short: "Show file details",
		args:    cobra.ExactArgs(1),
		summary: func(args []string) string { return "Info " + args[0] },
		call: func(b *sftpfs.Browser, args []string, _ string) (*output.Result, error) {
			return b.Info(args[0])
		},
	},
	{
		name: "rm", use: "rm <path>", short: "Delete a file",
		args:    cobra.ExactArgs(1),
		summary: func(args []string) string { return "Delete " + args[0] },
		call: func(b *sftpfs.Browser, args []string, _ string) (*output.Result, error) {
			return b.Remove(args[0])
		},
	},
	{
		name: "mkdir", use: "mkdir <path>", short: "Create a directory",
		args:    cobra.ExactArgs(1),
		summary: func(args []string) string { return "Create directory " + args[0] },
		call: func(b *sftpfs.Browser, args []string, _ string) (*output.Result, error) {
			return b.Mkdir(args[0])
		},
	},
	{
		name: "rmdir", use: "rmdir <path>", short: "Remove an empty directory",
		args:    cobra.ExactArgs(1),
		summary: func(args []string) string { return "Remove directory " + args[0] },
		call: func(b *sftpfs.Browser, args []string, _ string) (*output.Result, error) {
			return b.Rmdir(args[0])
		},
	},
}

func init() {
	for _, v := range sftpVerbs {
		sftpCmd.AddCommand(&cobra.Command{
			Use:   v.use,
			Short: v.short,
			Args:  v.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSFTP(cmd, v, args)
			},
		})
	}
}

func firstArg(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

func runSFTP(cmd *cobra.Command, v sftpVerb, args []string) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON)
	if err != nil {
		return err
	}
	dest := flags.output

	return runOperation(cmd, operation{
		backend:    backend.SFTP,
		verb:       v.name,
		summary:    v.summary(args),
		format:     format,
		keepOutput: v.keep,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			cfg, err := sftpfs.ConfigFromCredentials(creds, home)
			if err != nil {
				return nil, err
			}

			session, err := sftpfs.Dial(ctx, cfg)
			if err != nil {
				return nil, err
			}
			defer session.Close()

			return v.call(sftpfs.NewBrowser(session), args, dest)
		},
	})
}
