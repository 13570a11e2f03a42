// Package vpn infers VPN connectivity from whether an internal host name
// resolves.
package vpn

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
)

const (
	DefaultTimeout = 5 * time.Second

	ExitConnected    = 0
	ExitNotConnected = 1
	ExitConfig       = 2
)

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Config holds the resolved VPN_CHECK_* settings.
type Config struct {
	Host       string
	ExpectedIP string
	Timeout    time.Duration
	Fallbacks  []string
}

// ConfigFromCredentials validates the settings. Errors carry exit code 2.
func ConfigFromCredentials(creds *credential.Resolved) (Config, error) {
	cfg := Config{
		Host:       creds.Get("HOST"),
		ExpectedIP: creds.Get("EXPECTED_IP"),
		Timeout:    DefaultTimeout,
	}
	if cfg.Host == "" {
		return Config{}, ConfigError(fmt.Errorf("%w: VPN_CHECK_HOST not configured", errUtils.ErrInvalidConfig))
	}
	if s := creds.Get("TIMEOUT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Config{}, ConfigError(fmt.Errorf("%w: VPN_CHECK_TIMEOUT %q must be a positive number of seconds", errUtils.ErrInvalidConfig, s))
		}
		cfg.Timeout = time.Duration(n) * time.Second
	}
	for _, h := range strings.Split(creds.Get("FALLBACK_HOSTS"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			cfg.Fallbacks = append(cfg.Fallbacks, h)
		}
	}
	return cfg, nil
}

// ConfigError gives err the configuration exit code.
func ConfigError(err error) error {
	return errUtils.WithExitCode(err, ExitConfig)
}

// Status is the outcome of one check.
type Status struct {
	Connected bool   `json:"connected"`
	Host      string `json:"host"`
	IP        string `json:"ip,omitempty"`
	Expected  string `json:"expected_ip,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Checker resolves the configured hosts.
type Checker struct {
	resolver Resolver
}

// NewChecker uses net.DefaultResolver when r is nil.
func NewChecker(r Resolver) *Checker {
	if r == nil {
		r = net.DefaultResolver
	}
	return &Checker{resolver: r}
}

func (c *Checker) lookup(ctx context.Context, host string, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	addrs, err := c.resolver.LookupHost(ctx, host)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("DNS lookup timed out: %s", host)
		}
		return nil, fmt.Errorf("could not resolve: %s", host)
	}
	return addrs, nil
}

// preferred picks the first IPv4 address, else the first address.
func preferred(addrs []string) string {
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	return addrs[0]
}

// Check resolves Host, then each fallback. When ExpectedIP is set the
// primary host must resolve to it.
func (c *Checker) Check(ctx context.Context, cfg Config) Status {
	st := Status{Host: cfg.Host, Expected: cfg.ExpectedIP}
	addrs, err := c.lookup(ctx, cfg.Host, cfg.Timeout)
	if err == nil && len(addrs) > 0 {
		st.IP = preferred(addrs)
		if cfg.ExpectedIP != "" {
			if !slices.Contains(addrs, cfg.ExpectedIP) {
				st.Reason = "DNS resolved but to an unexpected IP; you may be connected to a different network"
				return st
			}
			st.IP = cfg.ExpectedIP
		}
		st.Connected = true
		return st
	}
	st.Reason = err.Error()

	for _, fb := range cfg.Fallbacks {
		addrs, err := c.lookup(ctx, fb, cfg.Timeout)
		if err != nil || len(addrs) == 0 {
			continue
		}
		return Status{Connected: true, Host: fb, IP: preferred(addrs), Fallback: true}
	}
	return st
}

// Result renders the status.
func (s Status) Result() *output.Result {
	var fields []output.Field
	switch {
	case s.Connected && s.Fallback:
		fields = append(fields, output.Field{Key: "VPN Status", Value: "Connected (via fallback)"})
	case s.Connected:
		fields = append(fields, output.Field{Key: "VPN Status", Value: "Connected"})
	case s.IP != "":
		fields = append(fields, output.Field{Key: "VPN Status", Value: "UNEXPECTED IP"})
	default:
		fields = append(fields, output.Field{Key: "VPN Status", Value: "Not Connected"})
	}
	fields = append(fields, output.Field{Key: "Host", Value: s.Host})
	if s.IP != "" {
		fields = append(fields, output.Field{Key: "IP", Value: s.IP})
	}
	if s.Expected != "" && !s.Connected {
		fields = append(fields, output.Field{Key: "Expected", Value: s.Expected})
	}
	if s.Reason != "" {
		fields = append(fields, output.Field{Key: "Detail", Value: s.Reason})
	}
	return &output.Result{Fields: fields, Data: s}
}

// Err is nil when connected and otherwise carries exit code 1.
func (s Status) Err() error {
	if s.Connected {
		return nil
	}
	return errUtils.WithExitCode(
		errUtils.WithHints(
			fmt.Errorf("%w: VPN check failed for %s", errUtils.ErrNotConnected, s.Host),
			"connect to your VPN and try again",
		),
		ExitNotConnected,
	)
}
