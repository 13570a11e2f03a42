package vaultkv

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/internal/ui"
)

var errNotFound = errors.New("secret not found")

// Secret is the key/value data read from one path.
type Secret struct {
	Path    string
	Version KVVersion
	Data    map[string]any
}

func splitMount(p string) (mount, rest string) {
	p = strings.Trim(p, "/")
	mount, rest, _ = strings.Cut(p, "/")
	return mount, rest
}

func (c *Client) version(v KVVersion) KVVersion {
	if v == "" || v == KVAuto {
		if c.cfg.KVVersion != "" {
			return c.cfg.KVVersion
		}
		return KVAuto
	}
	return v
}

// Get reads the secret at path, trying the KV v2 data endpoint first and
// falling back to a v1 read when v2 reports not found. A non-empty key
// narrows the result to that key.
func (c *Client) Get(ctx context.Context, path, key string, v KVVersion) (*Secret, error) {
	mount, rest := splitMount(path)
	if mount == "" || rest == "" {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: invalid secret path: %s", errUtils.ErrInvalidArgument, path),
			"path should be like secret/myapp/database",
		)
	}

	v = c.version(v)
	var (
		data  map[string]any
		found KVVersion
	)
	if v == KVAuto || v == KV2 {
		s, err := c.api.Logical().ReadWithContext(ctx, mount+"/data/"+rest)
		if err != nil {
			return nil, c.translate("read "+path, err)
		}
		if s != nil {
			if inner, ok := s.Data["data"].(map[string]any); ok {
				data, found = inner, KV2
			}
		}
	}
	if found == "" && (v == KVAuto || v == KV1) {
		ui.Debug("KV v2 read of %s found nothing, trying v1", path)
		s, err := c.api.Logical().ReadWithContext(ctx, mount+"/"+rest)
		if err != nil {
			return nil, c.translate("read "+path, err)
		}
		if s != nil {
			data, found = s.Data, KV1
		}
	}
	if found == "" || len(data) == 0 {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: %w: no data found at %s", errUtils.ErrBackend, errNotFound, path),
			"check that the path is correct",
		)
	}

	if key != "" {
		val, ok := data[key]
		if !ok {
			return nil, errUtils.WithHints(
				fmt.Errorf("%w: key %q not found in secret", errUtils.ErrInvalidArgument, key),
				"available keys: "+strings.Join(slices.Sorted(maps.Keys(data)), ", "),
			)
		}
		data = map[string]any{key: val}
	}
	return &Secret{Path: path, Version: found, Data: data}, nil
}

// Result renders the secret. Values are masked unless show is set; raw
// output prints a single value verbatim and needs exactly one key.
func (s *Secret) Result(show bool, f output.Format) (*output.Result, error) {
	keys := slices.Sorted(maps.Keys(s.Data))
	if f == output.Raw {
		if len(keys) != 1 {
			return nil, fmt.Errorf("%w: --format raw requires a single key (use --key)", errUtils.ErrInvalidArgument)
		}
		return &output.Result{Text: fmt.Sprint(s.Data[keys[0]])}, nil
	}

	fields := make([]output.Field, len(keys))
	for i, k := range keys {
		v := fmt.Sprint(s.Data[k])
		if !show {
			v = credential.Mask(v)
		}
		fields[i] = output.Field{Key: k, Value: v}
	}
	return &output.Result{Fields: fields}, nil
}

// List returns the keys under path. Entries ending in "/" are directories.
func (c *Client) List(ctx context.Context, path string, v KVVersion) (*output.Result, error) {
	mount, rest := splitMount(path)
	if mount == "" {
		return nil, fmt.Errorf("%w: a path is required", errUtils.ErrInvalidArgument)
	}

	v = c.version(v)
	var keys []string
	found := false
	if v == KVAuto || v == KV2 {
		p := strings.TrimRight(mount+"/metadata/"+rest, "/")
		s, err := c.api.Logical().ListWithContext(ctx, p)
		if err != nil {
			return nil, c.translate("list "+path, err)
		}
		keys, found = listKeys(s)
	}
	if !found && (v == KVAuto || v == KV1) {
		s, err := c.api.Logical().ListWithContext(ctx, strings.TrimRight(mount+"/"+rest, "/"))
		if err != nil {
			return nil, c.translate("list "+path, err)
		}
		keys, found = listKeys(s)
	}
	if len(keys) == 0 {
		return &output.Result{Text: "No secrets found at this path", Data: []string{}}, nil
	}

	slices.Sort(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		prefix := "      "
		if strings.HasSuffix(k, "/") {
			prefix = "[dir] "
		}
		lines[i] = prefix + k
	}
	return &output.Result{
		Text:   fmt.Sprintf("Secrets at %s:\n%s", path, strings.Join(lines, "\n")),
		Data:   keys,
		Footer: fmt.Sprintf("(%d items)", len(keys)),
	}, nil
}

func listKeys(s *vault.Secret) ([]string, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	raw, ok := s.Data["keys"].([]any)
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, fmt.Sprint(k))
	}
	return keys, true
}

// FormatTTL renders a token TTL as "2h 5m remaining" or "No expiration".
func FormatTTL(ttl time.Duration) string {
	if ttl <= 0 {
		return "No expiration"
	}
	h := int(ttl.Hours())
	m := int(ttl.Minutes()) % 60
	return fmt.Sprintf("%dh %dm remaining", h, m)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Status checks reachability, seal state and the token.
func (c *Client) Status(ctx context.Context) (*output.Result, error) {
	seal, err := c.api.Sys().SealStatusWithContext(ctx)
	if err != nil {
		return nil, c.translate("status", err)
	}
	fields := []output.Field{
		{Key: "Address", Value: c.cfg.Addr},
		{Key: "Connection", Value: "OK"},
		{Key: "Sealed", Value: yesNo(seal.Sealed)},
	}
	if seal.Sealed {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: Vault at %s is sealed", errUtils.ErrBackend, c.cfg.Addr),
			"contact an administrator to unseal it",
		)
	}

	tok, err := c.api.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil || tok == nil {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: authentication failed: token invalid or expired", errUtils.ErrBackend),
			"refresh VAULT_TOKEN or configure AppRole credentials",
		)
	}
	accessor, _ := tok.TokenAccessor()
	policies, _ := tok.TokenPolicies()
	ttl, _ := tok.TokenTTL()
	renewable, _ := tok.TokenIsRenewable()

	fields = append(fields,
		output.Field{Key: "Authentication", Value: "OK"},
		output.Field{Key: "Token Accessor", Value: accessor},
		output.Field{Key: "Policies", Value: strings.Join(policies, ", ")},
		output.Field{Key: "Token TTL", Value: FormatTTL(ttl)},
		output.Field{Key: "Renewable", Value: yesNo(renewable)},
	)
	return &output.Result{Fields: fields}, nil
}
