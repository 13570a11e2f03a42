// Package rabbitmq reads queue and cluster state from the RabbitMQ
// management HTTP API.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/httpapi"
)

const (
	DefaultHost  = "localhost"
	DefaultPort  = 15672
	DefaultUser  = "guest"
	DefaultVHost = "/"
)

// Config holds the resolved RABBITMQ_{ENV}_* settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	VHost    string
	SSL      bool
}

// ConfigFromCredentials applies the management plugin defaults.
func ConfigFromCredentials(creds *credential.Resolved) (Config, error) {
	cfg := Config{
		Host:     creds.GetOr("HOST", DefaultHost),
		Port:     DefaultPort,
		Username: creds.GetOr("USERNAME", DefaultUser),
		Password: creds.GetOr("PASSWORD", DefaultUser),
		VHost:    creds.GetOr("VHOST", DefaultVHost),
		SSL:      strings.EqualFold(creds.Get("SSL"), "true"),
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

// BaseURL is the management API root.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api", scheme, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

// Client wraps the management API.
type Client struct {
	http *httpapi.Client
	cfg  Config
}

// NewClient builds a client for cfg. Requests are retried by the shared
// HTTP client policy.
func NewClient(cfg Config) *Client {
	return &Client{
		http: httpapi.New(httpapi.Options{
			BaseURL:      cfg.BaseURL(),
			Username:     cfg.Username,
			Password:     cfg.Password,
			RetryMax:     2,
			RetryWaitMin: 200 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
		}),
		cfg: cfg,
	}
}

// Config returns the settings the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	err := c.http.Get(ctx, "/"+endpoint, nil, out)
	if err == nil {
		return nil
	}

	var se *httpapi.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusUnauthorized:
			return errUtils.WithHints(
				fmt.Errorf("%w: authentication failed", errUtils.ErrBackend),
				"check RABBITMQ_<ENV>_USERNAME and RABBITMQ_<ENV>_PASSWORD",
			)
		case http.StatusNotFound:
			return fmt.Errorf("%w: not found: %s", errUtils.ErrBackend, endpoint)
		}
		return fmt.Errorf("%w: %w", errUtils.ErrBackend, err)
	}
	return errUtils.WithHints(
		fmt.Errorf("failed to connect to RabbitMQ at %s:%d: %w", c.cfg.Host, c.cfg.Port, err),
		"check that the management plugin is enabled and the host is reachable",
	)
}

func escape(s string) string {
	return url.PathEscape(s)
}

// vhostPath returns "<prefix>/<vhost>" or prefix alone when vhost is empty.
func vhostPath(prefix, vhost string) string {
	if vhost == "" {
		return prefix
	}
	return prefix + "/" + escape(vhost)
}
