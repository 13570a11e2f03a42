// Package sqldb opens MySQL and Oracle connections and runs single
// statements against them.
package sqldb

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

const (
	DefaultMySQLPort  = 3306
	DefaultOraclePort = 1521
	ConnectTimeout    = 10 * time.Second
)

// Config holds connection settings for either dialect. Database is the
// schema for MySQL and the service name for Oracle.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func configFrom(creds *credential.Resolved, defPort int, dbField string) (Config, error) {
	cfg := Config{
		Host:     creds.Get("HOST"),
		Port:     defPort,
		User:     creds.Get("USER"),
		Password: creds.Get("PASSWORD"),
		Database: creds.Get(dbField),
	}
	if p := creds.Get("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("%w: PORT %q is not a number", errUtils.ErrInvalidConfig, p)
		}
		cfg.Port = port
	}
	return cfg, nil
}

// MySQLConfig reads MYSQL_* values, defaulting the port to 3306.
func MySQLConfig(creds *credential.Resolved) (Config, error) {
	return configFrom(creds, DefaultMySQLPort, "DATABASE")
}

// OracleConfig reads ORACLE_* values, defaulting the port to 1521.
func OracleConfig(creds *credential.Resolved) (Config, error) {
	return configFrom(creds, DefaultOraclePort, "SERVICE")
}

// MySQLDSN formats cfg for go-sql-driver/mysql.
func MySQLDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.Timeout = ConnectTimeout
	return mc.FormatDSN()
}

// OracleURL formats cfg for go-ora.
func OracleURL(cfg Config) string {
	return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, map[string]string{
		"CONNECTION TIMEOUT": strconv.Itoa(int(ConnectTimeout / time.Second)),
	})
}

// OpenMySQL returns a single-connection handle. No network traffic
// happens until the first statement.
func OpenMySQL(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", MySQLDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenOracle returns a single-connection handle.
func OpenOracle(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("oracle", OracleURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open oracle connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
