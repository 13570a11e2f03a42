package awssso

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ini "gopkg.in/ini.v1"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

type fakeRunner struct {
	failures map[string]error
	outputs  map[string]string
	calls    []string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if err, ok := f.failures[line]; ok {
		return "", err
	}
	return f.outputs[line], nil
}

func (f *fakeRunner) Attach(_ context.Context, name string, args ...string) error {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, "attach "+line)
	return f.failures[line]
}

type fakeSessions struct {
	active map[string]bool
}

func (f *fakeSessions) CallerIdentity(_ context.Context, profile string) (*Identity, error) {
	if f.active[profile] {
		return &Identity{Account: "111111111111", ARN: "arn:aws:sts::111111111111:assumed-role/dev/me"}, nil
	}
	return nil, errors.New("token expired")
}

type fakeClusters struct {
	status string
}

func (f fakeClusters) DescribeCluster(_ context.Context, _, _, name string) (*Cluster, error) {
	return &Cluster{Name: name, Status: f.status}, nil
}

var testSettings = Settings{StartURL: "https://example.awsapps.com/start", Region: "us-east-1"}

func devTarget() Target {
	return Target{
		Env:       environment.Dev,
		AccountID: "111111111111",
		RoleName:  "Developer",
		Cluster:   "core",
		Region:    "eu-west-1",
		Namespace: "payments",
	}
}

func TestFromCredentials(t *testing.T) {
	r := credential.NewResolved(credential.NewRequest("AWS", environment.QA))
	r.Set("SSO_START_URL", "https://example.awsapps.com/start", credential.SourceFile)
	r.Set("SSO_REGION", "eu-central-1", credential.SourceFile)
	r.Set("SSO_ACCOUNT_ID", "222222222222", credential.SourceFile)
	r.Set("SSO_ROLE_NAME", "ReadOnly", credential.SourceFile)

	s, tgt := FromCredentials(r)
	assert.Equal(t, "eu-central-1", s.Region)
	assert.Equal(t, environment.QA, tgt.Env)
	assert.Equal(t, "eu-central-1", tgt.Region)
	assert.Equal(t, DefaultNamespace, tgt.Namespace)
	assert.Equal(t, "qa-sso", tgt.Profile())
	assert.Equal(t, "", tgt.Context())
	assert.True(t, tgt.Configured())

	tgt.Cluster = "main"
	assert.Equal(t, "qa-main", tgt.Context())
}

func TestProfileStoreEnsure(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".aws", "config")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("[profile other]\nregion = us-west-2\n"), 0o600))

	store := NewProfileStore(path)
	created, err := store.Ensure(testSettings, devTarget())
	require.NoError(t, err)
	assert.True(t, created)

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	sec := cfg.Section("profile dev-sso")
	assert.Equal(t, "https://example.awsapps.com/start", sec.Key("sso_start_url").String())
	assert.Equal(t, "111111111111", sec.Key("sso_account_id").String())
	assert.Equal(t, "Developer", sec.Key("sso_role_name").String())
	assert.Equal(t, "eu-west-1", sec.Key("region").String())
	assert.Equal(t, "us-west-2", cfg.Section("profile other").Key("region").String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	created, err = store.Ensure(testSettings, devTarget())
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := store.Exists("dev-sso")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProfileStoreCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config")
	created, err := NewProfileStore(path).Ensure(testSettings, devTarget())
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, path)
}

func TestProfileStoreValidation(t *testing.T) {
	store := NewProfileStore(filepath.Join(t.TempDir(), "config"))

	_, err := store.Ensure(Settings{}, devTarget())
	require.ErrorIs(t, err, errUtils.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "AWS SSO not configured")

	_, err = store.Ensure(testSettings, Target{Env: environment.UAT})
	require.ErrorIs(t, err, errUtils.ErrInvalidConfig)
	assert.Contains(t, errUtils.Hints(err)[0], "AWS_UAT_SSO_ACCOUNT_ID")
}

func newTestSwitcher(t *testing.T, run *fakeRunner, sessions *fakeSessions) *Switcher {
	t.Helper()
	store := NewProfileStore(filepath.Join(t.TempDir(), "config"))
	return NewSwitcher(testSettings, store, sessions, fakeClusters{status: "ACTIVE"}, run)
}

func TestSwitch(t *testing.T) {
	run := &fakeRunner{failures: map[string]error{
		"kubectl --context dev-core cluster-info": errors.New("connection refused"),
	}}
	s := newTestSwitcher(t, run, &fakeSessions{})

	res, err := s.Switch(context.Background(), devTarget())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"attach aws sso login --profile dev-sso",
		"aws eks update-kubeconfig --name core --region eu-west-1 --profile dev-sso --alias dev-core",
		"kubectl config use-context dev-core",
		"kubectl --context dev-core cluster-info",
	}, run.calls)
	assert.Equal(t, "Status", res.Fields[4].Key)
	assert.Equal(t, "Unverified", res.Fields[4].Value)
}

func TestSwitchWithoutCluster(t *testing.T) {
	run := &fakeRunner{}
	s := newTestSwitcher(t, run, &fakeSessions{active: map[string]bool{"dev-sso": true}})

	tgt := devTarget()
	tgt.Cluster = ""
	res, err := s.Switch(context.Background(), tgt)
	require.NoError(t, err)
	assert.Equal(t, "Switched to DEV (no EKS cluster configured)", res.Text)
	assert.Empty(t, run.calls)
}

func TestLoginFailure(t *testing.T) {
	run := &fakeRunner{failures: map[string]error{
		"aws sso login --profile dev-sso": errors.New("exit status 1"),
	}}
	s := newTestSwitcher(t, run, &fakeSessions{})

	_, err := s.Login(context.Background(), devTarget())
	require.ErrorIs(t, err, errUtils.ErrBackend)
	assert.Contains(t, err.Error(), "SSO login failed")
}

func TestKubectl(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{
		"kubectl config get-contexts -o name": "dev-core\n",
	}}
	s := newTestSwitcher(t, run, &fakeSessions{active: map[string]bool{"dev-sso": true}})

	require.NoError(t, s.Kubectl(context.Background(), devTarget(), []string{"get", "pods"}))
	assert.Equal(t, []string{
		"kubectl config get-contexts -o name",
		"kubectl config use-context dev-core",
		"attach kubectl --context dev-core -n payments get pods",
	}, run.calls)

	tgt := devTarget()
	tgt.Cluster = ""
	err := s.Kubectl(context.Background(), tgt, []string{"get", "pods"})
	assert.ErrorIs(t, err, errUtils.ErrInvalidConfig)

	err = s.Kubectl(context.Background(), devTarget(), nil)
	assert.ErrorIs(t, err, errUtils.ErrInvalidArgument)
}

func TestKubectlCreatesMissingContext(t *testing.T) {
	run := &fakeRunner{}
	s := newTestSwitcher(t, run, &fakeSessions{active: map[string]bool{"dev-sso": true}})

	require.NoError(t, s.Kubectl(context.Background(), devTarget(), []string{"get", "ns"}))
	assert.Contains(t, run.calls,
		"aws eks update-kubeconfig --name core --region eu-west-1 --profile dev-sso --alias dev-core")
}

func TestStatusAndList(t *testing.T) {
	qa := devTarget()
	qa.Env, qa.Cluster = environment.QA, ""
	uat := Target{Env: environment.UAT}
	targets := []Target{devTarget(), qa, uat}

	s := newTestSwitcher(t, &fakeRunner{}, &fakeSessions{active: map[string]bool{"dev-sso": true}})
	res := s.Status(context.Background(), targets)
	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, []string{"DEV", "[OK] Authenticated", "dev-sso", "core"}, res.Table.Rows[0])
	assert.Equal(t, []string{"QA", "[--] Not authenticated", "qa-sso", "Not configured"}, res.Table.Rows[1])
	assert.Contains(t, res.Footer, "https://example.awsapps.com/start")

	res = List(targets)
	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, "N/A", res.Table.Rows[1][3])

	res = List([]Target{uat})
	assert.Contains(t, res.Text, "No environments configured.")
}

func TestDetect(t *testing.T) {
	uat := devTarget()
	uat.Env = environment.UAT
	prod := devTarget()
	prod.Env = environment.Prod
	targets := []Target{devTarget(), uat, prod}

	got, ok := Detect("prod-core", targets)
	require.True(t, ok)
	assert.Equal(t, environment.Prod, got.Env)

	got, ok = Detect("arn:aws:eks:eu-west-1:1:cluster/uat-core", targets)
	require.True(t, ok)
	assert.Equal(t, environment.UAT, got.Env)

	_, ok = Detect("minikube", targets)
	assert.False(t, ok)
}

func TestCurrent(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{"kubectl config current-context": "dev-core"}}
	s := newTestSwitcher(t, run, &fakeSessions{})

	res := s.Current(context.Background(), []Target{devTarget()})
	assert.Equal(t, "dev-core", res.Fields[0].Value)
	assert.Equal(t, "DEV", res.Fields[1].Value)
	assert.Equal(t, "payments", res.Fields[4].Value)
}
