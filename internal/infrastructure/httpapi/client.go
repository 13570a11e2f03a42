// Package httpapi is a small JSON-over-HTTP client with retries, shared by
// the REST backends.
package httpapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/vivekkundariya/opskit/internal/ui"
)

const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL            string
	Header             http.Header
	Username           string
	Password           string
	RetryMax           int
	RetryWaitMin       time.Duration
	RetryWaitMax       time.Duration
	Backoff            retryablehttp.Backoff
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client issues GET requests against one base URL and decodes JSON.
type Client struct {
	rc     *retryablehttp.Client
	base   string
	header http.Header
	user   string
	pass   string
}

// New builds a Client. Zero-valued options fall back to the
// go-retryablehttp defaults and a 30 second timeout.
func New(o Options) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = ui.KV{}
	rc.RetryMax = o.RetryMax
	if o.RetryWaitMin > 0 {
		rc.RetryWaitMin = o.RetryWaitMin
	}
	if o.RetryWaitMax > 0 {
		rc.RetryWaitMax = o.RetryWaitMax
	}
	if o.Backoff != nil {
		rc.Backoff = o.Backoff
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	timeout := o.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	rc.HTTPClient.Timeout = timeout
	if o.InsecureSkipVerify {
		if tr, ok := rc.HTTPClient.Transport.(*http.Transport); ok {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
	}

	return &Client{
		rc:     rc,
		base:   strings.TrimRight(o.BaseURL, "/"),
		header: o.Header,
		user:   o.Username,
		pass:   o.Password,
	}
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %s: %s", e.Status, body)
}

// Get requests path with query and decodes the JSON body into out. An
// empty body leaves out untouched.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" || c.pass != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	ui.Debug("GET %s", u)
	resp, err := c.rc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	if len(strings.TrimSpace(string(body))) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid JSON response from server: %w", err)
	}
	return nil
}

// RateLimitBackoff waits for the number of seconds in X-RateLimit-Reset on
// a 429 response and otherwise defers to the default exponential backoff.
func RateLimitBackoff(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if s := resp.Header.Get("X-RateLimit-Reset"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
				wait := time.Duration(secs) * time.Second
				ui.Warnf("Rate limited. Waiting %s...", wait)
				return wait
			}
		}
	}
	return retryablehttp.DefaultBackoff(min, max, attempt, resp)
}
