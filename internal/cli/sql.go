package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/domain/backend"
	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/sqldb"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

// sqlTarget ties a SQL backend to its dialect and connection setup.
type sqlTarget struct {
	backend backend.Backend
	dialect sqldb.Dialect
	config  func(creds *credential.Resolved) (sqldb.Config, error)
	open    func(cfg sqldb.Config) (*sql.DB, error)
}

var (
	mysqlTarget = sqlTarget{
		backend: backend.MySQL,
		dialect: sqldb.MySQL,
		config:  sqldb.MySQLConfig,
		open:    sqldb.OpenMySQL,
	}
	oracleTarget = sqlTarget{
		backend: backend.Oracle,
		dialect: sqldb.Oracle,
		config:  sqldb.OracleConfig,
		open:    sqldb.OpenOracle,
	}
)

var mysqlCmd = newSQLCmd(mysqlTarget, `  opskit mysql -e dev -q "SHOW TABLES"
  opskit mysql -e qa -q "SELECT id, email FROM users LIMIT 10" -f markdown
  opskit mysql -e uat -q "SELECT * FROM orders LIMIT 100" -f csv -o orders.csv
  echo "SELECT NOW();" | opskit mysql -e dev`)

var oracleCmd = newSQLCmd(oracleTarget, `  opskit oracle -e dev -q "SELECT table_name FROM user_tables"
  opskit oracle -e qa -q "SELECT * FROM orders WHERE ROWNUM <= 10" -f json
  opskit oracle -e prod -q "SELECT * FROM orders FETCH FIRST 5 ROWS ONLY"`)

func newSQLCmd(t sqlTarget, example string) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   t.backend.Name,
		Short: fmt.Sprintf("Run a SQL statement against %s", t.backend.Name),
		Long: fmt.Sprintf(`Run one SQL statement against DEV, QA, UAT or PROD.

Without --query the statement is read from stdin up to the first line ending
with ";". SELECT, SHOW, DESCRIBE, EXPLAIN and USE run without confirmation;
everything else asks first, and production requires typing PROD.

Credentials: %[1]s_<ENV>_HOST, %[1]s_<ENV>_PORT, %[1]s_<ENV>_USER,
%[1]s_<ENV>_PASSWORD, %[1]s_<ENV>_%[2]s`, t.backend.Prefix, sqlDatabaseKey(t)),
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, t, query)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "SQL statement to run")
	return cmd
}

func sqlDatabaseKey(t sqlTarget) string {
	if t.backend.Name == "oracle" {
		return "SERVICE"
	}
	return "DATABASE"
}

func runSQL(cmd *cobra.Command, t sqlTarget, query string) error {
	format, err := outputFormat(output.Text, output.Text, output.Markdown, output.JSON, output.CSV)
	if err != nil {
		return err
	}

	if query == "" {
		ui.Infof("Enter SQL, ending with ';':")
		query, err = sqldb.ReadQuery(shared.Console.Reader())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: no query given", errUtils.ErrInvalidArgument)
			}
			return fmt.Errorf("failed to read query: %w", err)
		}
	}
	query = sqldb.NormalizeQuery(query)
	if query == "" {
		return fmt.Errorf("%w: no query given", errUtils.ErrInvalidArgument)
	}

	return runOperation(cmd, operation{
		backend: t.backend,
		verb:    query,
		summary: output.Truncate(query, 200),
		format:  format,
		run: func(ctx context.Context, creds *credential.Resolved) (*output.Result, error) {
			env := creds.Request().Profile()

			if t.dialect.NeedsLimitAdvice(query) {
				state := safety.Advise(shared.Console, env, output.Truncate(query, 200),
					t.dialect.LimitAdvice+" Continue? [y/N]:", flags.yes)
				if !state.Proceed() {
					ui.Warnf("Operation cancelled.")
					return nil, nil
				}
			}

			cfg, err := t.config(creds)
			if err != nil {
				return nil, err
			}
			ui.Debug("Connecting to %s at %s", t.backend.Name, cfg.Addr())

			db, err := t.open(cfg)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			runner := &sqldb.Runner{DB: db, Dialect: t.dialect, Env: env.String()}
			return runner.Run(ctx, query)
		},
	})
}
