package sqldb

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/vivekkundariya/opskit/internal/domain/safety"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
)

// MaxCellWidth is where markdown cells are cut with "...".
const MaxCellWidth = 50

// Dialect captures what differs between MySQL and Oracle.
type Dialect struct {
	Name string
	// LimitMarkers are substrings whose presence means a SELECT bounds its
	// row count.
	LimitMarkers []string
	LimitAdvice  string
	// Hints maps a driver error to remediation lines.
	Hints func(err error, env string) []string
}

var MySQL = Dialect{
	Name:         "mysql",
	LimitMarkers: []string{"LIMIT"},
	LimitAdvice:  "Consider adding LIMIT to avoid fetching too many rows.",
	Hints:        mysqlHints,
}

var Oracle = Dialect{
	Name:         "oracle",
	LimitMarkers: []string{"ROWNUM", "FETCH FIRST", "FETCH NEXT", "SAMPLE("},
	LimitAdvice:  "Consider adding ROWNUM <= N or FETCH FIRST N ROWS to avoid fetching too many rows.",
	Hints:        oracleHints,
}

// HasLimit reports whether query contains one of the dialect's markers.
func (d Dialect) HasLimit(query string) bool {
	upper := strings.ToUpper(query)
	for _, m := range d.LimitMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

// NeedsLimitAdvice reports whether query is an unbounded SELECT.
func (d Dialect) NeedsLimitAdvice(query string) bool {
	return safety.SQLVerb(query) == "SELECT" && !d.HasLimit(query)
}

var connectHints = []string{
	"check that the VPN is connected (opskit vpn check)",
	"check the host and port",
	"the database server may be down",
}

func mysqlHints(err error, env string) []string {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1045 {
		return []string{fmt.Sprintf("check your MYSQL_%s_USER and MYSQL_%s_PASSWORD credentials", env, env)}
	}
	var ne net.Error
	if errors.As(err, &ne) || strings.Contains(err.Error(), "connection refused") {
		return connectHints
	}
	return nil
}

func oracleHints(err error, env string) []string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ORA-01017"):
		return []string{fmt.Sprintf("invalid username/password: check your ORACLE_%s_USER and ORACLE_%s_PASSWORD credentials", env, env)}
	case strings.Contains(msg, "ORA-12541"):
		return append([]string{"TNS listener not available"}, connectHints...)
	case strings.Contains(msg, "ORA-12514"):
		return []string{fmt.Sprintf("service name not found: check ORACLE_%s_SERVICE", env)}
	case strings.Contains(msg, "ORA-12154"):
		return []string{fmt.Sprintf("TNS could not resolve the connect identifier: check ORACLE_%s_SERVICE", env)}
	case strings.Contains(msg, "ORA-12170"):
		return []string{"connection timeout: check VPN connectivity and host/port"}
	case strings.Contains(msg, "ORA-28000"):
		return []string{fmt.Sprintf("account locked: ask a DBA to unlock the %s database account", env)}
	case strings.Contains(msg, "ORA-01034"):
		return []string{"Oracle not available: the database instance may be down"}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return connectHints
	}
	return nil
}

// NormalizeQuery trims whitespace and one trailing semicolon.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	q = strings.TrimSuffix(q, ";")
	return strings.TrimSpace(q)
}

// ReadQuery reads lines from r until one ends with ";". It never reads
// past that line, so answers piped after the statement stay in r.
func ReadQuery(r *bufio.Reader) (string, error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			lines = append(lines, line)
			if strings.HasSuffix(strings.TrimSpace(line), ";") {
				return strings.Join(lines, "\n"), nil
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	if len(lines) == 0 {
		return "", io.EOF
	}
	return strings.Join(lines, "\n"), nil
}

var rowVerbs = map[string]bool{
	"SELECT": true, "SHOW": true, "DESCRIBE": true, "DESC": true,
	"EXPLAIN": true, "WITH": true, "VALUES": true, "TABLE": true,
}

// ReturnsRows reports whether query should be run with Query rather than
// Exec.
func ReturnsRows(query string) bool {
	return rowVerbs[safety.SQLVerb(query)]
}

// Runner executes one statement on db.
type Runner struct {
	DB      *sql.DB
	Dialect Dialect
	Env     string
}

// Run executes query and returns a table for row-returning statements or
// an affected-rows message otherwise.
func (r *Runner) Run(ctx context.Context, query string) (*output.Result, error) {
	var (
		res *output.Result
		err error
	)
	if ReturnsRows(query) {
		res, err = r.query(ctx, query)
	} else {
		res, err = r.exec(ctx, query)
	}
	if err != nil {
		return nil, errUtils.WithHints(fmt.Errorf("%s error: %w", r.Dialect.Name, err), r.Dialect.Hints(err, r.Env)...)
	}
	return res, nil
}

func (r *Runner) query(ctx context.Context, query string) (*output.Result, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var (
		table [][]string
		data  = []map[string]any{}
	)
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(cols))
		doc := make(map[string]any, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
				doc[cols[i]] = c.String
			} else {
				row[i] = "NULL"
				doc[cols[i]] = nil
			}
		}
		table = append(table, row)
		data = append(data, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := &output.Result{
		Table:  &output.Table{Columns: cols, Rows: table, MaxWidth: MaxCellWidth},
		Data:   data,
		Footer: RowCount(len(table)),
	}
	if len(table) == 0 {
		res.Footer = "*No results*"
	}
	return res, nil
}

func (r *Runner) exec(ctx context.Context, query string) (*output.Result, error) {
	result, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	return &output.Result{
		Text: fmt.Sprintf("Query OK, %d %s affected.", n, plural(n, "row")),
		Data: map[string]int64{"rows_affected": n},
	}, nil
}

// RowCount formats "(N rows)".
func RowCount(n int) string {
	return fmt.Sprintf("(%d %s)", n, plural(int64(n), "row"))
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
