// Package datadog queries monitors, metrics, dashboards and events through
// the Datadog v1 REST API.
package datadog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/infrastructure/httpapi"
)

const (
	DefaultSite = "datadoghq.com"
	// MaxAttempts counts the first request.
	MaxAttempts = 3
	RetryDelay  = 2 * time.Second
)

var siteURLs = map[string]string{
	"datadoghq.com":     "https://api.datadoghq.com",
	"us3.datadoghq.com": "https://api.us3.datadoghq.com",
	"us5.datadoghq.com": "https://api.us5.datadoghq.com",
	"datadoghq.eu":      "https://api.datadoghq.eu",
	"ap1.datadoghq.com": "https://api.ap1.datadoghq.com",
	"ddog-gov.com":      "https://api.ddog-gov.com",
}

// APIURL maps a Datadog site to its API host.
func APIURL(site string) string {
	if u, ok := siteURLs[site]; ok {
		return u
	}
	return "https://api." + site
}

// Config holds the resolved DD_* settings.
type Config struct {
	APIKey string
	AppKey string
	Site   string
	// BaseURL overrides the site mapping.
	BaseURL string
}

// ConfigFromCredentials reads DD_API_KEY, DD_APP_KEY and DD_SITE. site is
// used when DD_SITE is unset and may come from the global config.
func ConfigFromCredentials(creds *credential.Resolved, site string) Config {
	if site == "" {
		site = DefaultSite
	}
	cfg := Config{
		APIKey: creds.Get("API_KEY"),
		AppKey: creds.Get("APP_KEY"),
		Site:   creds.GetOr("SITE", site),
	}
	cfg.BaseURL = APIURL(cfg.Site)
	return cfg
}

// Client talks to one Datadog site.
type Client struct {
	http *httpapi.Client
	cfg  Config
	now  func() time.Time
}

// NewClient builds a client that retries failed and rate limited requests.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = APIURL(cfg.Site)
	}
	return &Client{
		http: httpapi.New(httpapi.Options{
			BaseURL: cfg.BaseURL,
			Header: http.Header{
				"DD-API-KEY":         {cfg.APIKey},
				"DD-APPLICATION-KEY": {cfg.AppKey},
			},
			RetryMax:     MaxAttempts - 1,
			RetryWaitMin: RetryDelay,
			RetryWaitMax: RetryDelay,
			Backoff:      httpapi.RateLimitBackoff,
		}),
		cfg: cfg,
		now: time.Now,
	}
}

// Config returns the settings the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	err := c.http.Get(ctx, path, query, out)
	if err == nil {
		return nil
	}
	var se *httpapi.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusForbidden, http.StatusUnauthorized:
			return errUtils.WithHints(
				fmt.Errorf("%w: %w", errUtils.ErrBackend, err),
				"check DD_API_KEY and DD_APP_KEY",
				fmt.Sprintf("site %s uses API URL %s", c.cfg.Site, c.cfg.BaseURL),
			)
		case http.StatusNotFound:
			return fmt.Errorf("%w: not found: %s", errUtils.ErrBackend, path)
		}
		return fmt.Errorf("%w: %w", errUtils.ErrBackend, err)
	}
	return errUtils.WithHints(
		fmt.Errorf("unable to reach Datadog API at %s: %w", c.cfg.BaseURL, err),
		"check DD_SITE and your network connection",
	)
}

// Validate checks the API key.
func (c *Client) Validate(ctx context.Context) error {
	var body struct {
		Valid bool `json:"valid"`
	}
	if err := c.get(ctx, "/api/v1/validate", nil, &body); err != nil {
		return errUtils.WithHints(fmt.Errorf("invalid credentials or unable to reach Datadog API: %w", err),
			fmt.Sprintf("site: %s, API URL: %s", c.cfg.Site, c.cfg.BaseURL))
	}
	return nil
}
