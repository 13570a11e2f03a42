// Package awssso manages AWS SSO profiles and EKS kubectl contexts per
// environment.
package awssso

import (
	"fmt"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

const (
	DefaultRegion    = "us-east-1"
	DefaultNamespace = "default"
)

// Settings are the SSO portal values shared by every environment.
type Settings struct {
	StartURL string
	Region   string
}

// Target is one environment's account, role and cluster.
type Target struct {
	Env       environment.Environment
	AccountID string
	RoleName  string
	Cluster   string
	Region    string
	Namespace string
}

// FromCredentials reads the shared settings and the environment target from
// resolved AWS keys. The cluster region falls back to the SSO region.
func FromCredentials(creds *credential.Resolved) (Settings, Target) {
	s := Settings{
		StartURL: creds.Get("SSO_START_URL"),
		Region:   creds.GetOr("SSO_REGION", DefaultRegion),
	}
	t := Target{
		Env:       creds.Request().Profile(),
		AccountID: creds.Get("SSO_ACCOUNT_ID"),
		RoleName:  creds.Get("SSO_ROLE_NAME"),
		Cluster:   creds.Get("EKS_CLUSTER"),
		Region:    creds.GetOr("EKS_REGION", s.Region),
		Namespace: creds.GetOr("NAMESPACE", DefaultNamespace),
	}
	return s, t
}

// ProfileName is the AWS CLI profile used for env, e.g. "dev-sso".
func ProfileName(env environment.Environment) string {
	return env.Lower() + "-sso"
}

// Configured reports whether the account and role are known.
func (t Target) Configured() bool {
	return t.AccountID != "" && t.RoleName != ""
}

func (t Target) Profile() string {
	return ProfileName(t.Env)
}

// Context is the kubeconfig alias "<env>-<cluster>", empty without a cluster.
func (t Target) Context() string {
	if t.Cluster == "" {
		return ""
	}
	return t.Env.Lower() + "-" + t.Cluster
}

func (s Settings) validate() error {
	if s.StartURL == "" {
		return errUtils.WithHints(
			fmt.Errorf("%w: AWS SSO not configured", errUtils.ErrInvalidConfig),
			`set AWS_SSO_START_URL, e.g. export AWS_SSO_START_URL="https://mycompany.awsapps.com/start"`,
			"optionally set AWS_SSO_REGION (default us-east-1)",
		)
	}
	return nil
}

func (t Target) validate() error {
	if !t.Configured() {
		env := t.Env.String()
		return errUtils.WithHints(
			fmt.Errorf("%w: environment %s not configured", errUtils.ErrInvalidConfig, env),
			fmt.Sprintf("set AWS_%s_SSO_ACCOUNT_ID and AWS_%s_SSO_ROLE_NAME", env, env),
		)
	}
	return nil
}
