// Package redisdb runs single Redis commands through go-redis.
package redisdb

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 6379
)

// Config holds connection settings resolved from credentials.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	SSL      bool
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConfigFromCredentials applies defaults to the resolved REDIS_* values.
func ConfigFromCredentials(creds *credential.Resolved) (Config, error) {
	cfg := Config{
		Host:     creds.GetOr("HOST", DefaultHost),
		Port:     DefaultPort,
		Password: creds.Get("PASSWORD"),
	}

	if p := creds.Get("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("%w: PORT %q is not a number", errUtils.ErrInvalidConfig, p)
		}
		cfg.Port = port
	}
	if d := creds.Get("DB"); d != "" {
		db, err := strconv.Atoi(d)
		if err != nil {
			return Config{}, fmt.Errorf("%w: DB %q is not a number", errUtils.ErrInvalidConfig, d)
		}
		cfg.DB = db
	}
	cfg.SSL = parseBool(creds.Get("SSL"))
	return cfg, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// NewClient builds a client for cfg and checks it with PING.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if cfg.SSL {
		opts.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errUtils.WithHints(
			fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err),
			"check REDIS_HOST and REDIS_PORT, and whether the VPN is connected",
		)
	}
	return client, nil
}
