// Package vaultkv reads secrets from HashiCorp Vault KV engines.
package vaultkv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/ui"
)

const RequestTimeout = 10 * time.Second

// KVVersion selects the KV engine API.
type KVVersion string

const (
	KVAuto KVVersion = "auto"
	KV1    KVVersion = "1"
	KV2    KVVersion = "2"
)

// ParseKVVersion accepts "", auto, 1 and 2.
func ParseKVVersion(s string) (KVVersion, error) {
	switch v := KVVersion(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return KVAuto, nil
	case KVAuto, KV1, KV2:
		return v, nil
	}
	return "", fmt.Errorf("%w: KV version %q must be 1, 2 or auto", errUtils.ErrInvalidConfig, s)
}

// Config holds the resolved VAULT_* settings.
type Config struct {
	Addr       string
	Token      string
	RoleID     string
	RoleSecret string
	Namespace  string
	SkipVerify bool
	KVVersion  KVVersion
}

// ConfigFromCredentials validates that an address and either a token or an
// AppRole pair are present.
func ConfigFromCredentials(creds *credential.Resolved) (Config, error) {
	kv, err := ParseKVVersion(creds.Get("KV_VERSION"))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Addr:       strings.TrimRight(creds.Get("ADDR"), "/"),
		Token:      creds.Get("TOKEN"),
		RoleID:     creds.Get("ROLE_ID"),
		RoleSecret: creds.Get("ROLE_SECRET"),
		Namespace:  creds.Get("NAMESPACE"),
		SkipVerify: strings.EqualFold(creds.Get("SKIP_VERIFY"), "true"),
		KVVersion:  kv,
	}

	scope := ""
	if p := creds.Request().Profile(); p.IsSet() {
		scope = " for --env " + p.Lower()
	}
	if cfg.Token == "" && (cfg.RoleID == "" || cfg.RoleSecret == "") {
		return Config{}, errUtils.WithHints(
			fmt.Errorf("%w: no authentication configured%s", errUtils.ErrInvalidConfig, scope),
			"provide VAULT_TOKEN for token auth",
			"or VAULT_ROLE_ID and VAULT_ROLE_SECRET for AppRole auth",
		)
	}
	return cfg, nil
}

// Client reads from one Vault server.
type Client struct {
	api *vault.Client
	cfg Config
}

// NewClient configures the Vault API client and logs in with AppRole when
// no token is set.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	vc := vault.DefaultConfig()
	vc.Address = cfg.Addr
	vc.Timeout = RequestTimeout
	if cfg.SkipVerify {
		if err := vc.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	api, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	api.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}

	c := &Client{api: api, cfg: cfg}
	if cfg.Token == "" {
		if err := c.loginAppRole(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) loginAppRole(ctx context.Context) error {
	ui.Infof("Authenticating via AppRole...")
	auth, err := approle.NewAppRoleAuth(c.cfg.RoleID, &approle.SecretID{FromString: c.cfg.RoleSecret})
	if err != nil {
		return fmt.Errorf("%w: %w", errUtils.ErrInvalidConfig, err)
	}
	secret, err := c.api.Auth().Login(ctx, auth)
	if err != nil {
		return c.translate("AppRole login failed", err)
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return fmt.Errorf("%w: AppRole login returned no token", errUtils.ErrBackend)
	}
	return nil
}

// Token returns the token in use, after any AppRole login.
func (c *Client) Token() string {
	return c.api.Token()
}

func (c *Client) translate(op string, err error) error {
	var re *vault.ResponseError
	if errors.As(err, &re) {
		msg := strings.Join(re.Errors, "; ")
		if msg == "" {
			msg = http.StatusText(re.StatusCode)
		}
		e := fmt.Errorf("%w: %s: %s", errUtils.ErrBackend, op, msg)
		switch re.StatusCode {
		case http.StatusForbidden:
			return errUtils.WithHints(e, "check that your token has the required permissions on this path")
		case http.StatusNotFound:
			return errUtils.WithHints(e, "check that the path is correct")
		case http.StatusServiceUnavailable:
			return errUtils.WithHints(e, "Vault is sealed; an administrator needs to unseal it")
		case http.StatusInternalServerError:
			return errUtils.WithHints(e, "check the Vault server logs")
		}
		return e
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		hints := []string{
			"check that the VPN is connected (opskit vpn check)",
			"check VAULT_ADDR " + c.cfg.Addr,
		}
		if strings.Contains(err.Error(), "certificate") {
			hints = append(hints, "for self-signed certificates set VAULT_SKIP_VERIFY=true (not for production)")
		}
		return errUtils.WithHints(fmt.Errorf("%s: could not connect to %s: %w", op, c.cfg.Addr, err), hints...)
	}
	return fmt.Errorf("%s: %w", op, err)
}
