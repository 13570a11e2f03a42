package kube

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

// fakeRunner answers Output calls from a table keyed by the joined command.
type fakeRunner struct {
	outputs  map[string]string
	failures map[string]error
	calls    []string
	attached [][]string
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
	f.attached = append(f.attached, append([]string{name}, args...))
	return f.failures["attach"]
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		args      []string
		want      []string
	}{
		{"injects namespace", "payments", []string{"get", "pods"},
			[]string{"--context", "dev-core", "-n", "payments", "get", "pods"}},
		{"default namespace omitted", "default", []string{"get", "pods"},
			[]string{"--context", "dev-core", "get", "pods"}},
		{"explicit -n kept", "payments", []string{"get", "pods", "-n", "kube-system"},
			[]string{"--context", "dev-core", "get", "pods", "-n", "kube-system"}},
		{"explicit --namespace= kept", "payments", []string{"get", "pods", "--namespace=x"},
			[]string{"--context", "dev-core", "get", "pods", "--namespace=x"}},
		{"exec command args ignored", "payments", []string{"exec", "p", "--", "ls", "-n"},
			[]string{"--context", "dev-core", "-n", "payments", "exec", "p", "--", "ls", "-n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Args("dev-core", tt.namespace, tt.args))
		})
	}
}

func TestContexts(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"kubectl config get-contexts -o name": "dev-core\nqa-core\n",
		"kubectl config current-context":      "qa-core",
	}}
	k := NewKubectl(r)

	names, err := k.Contexts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-core", "qa-core"}, names)

	ok, err := k.HasContext(context.Background(), "prod-core")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "qa-core", k.CurrentContext(context.Background()))
	require.NoError(t, k.UseContext(context.Background(), "dev-core"))
	assert.Contains(t, r.calls, "kubectl config use-context dev-core")
}

func TestCurrentContextNone(t *testing.T) {
	r := &fakeRunner{failures: map[string]error{
		"kubectl config current-context": errors.New("current-context is not set"),
	}}
	assert.Equal(t, "none", NewKubectl(r).CurrentContext(context.Background()))
}

func TestRun(t *testing.T) {
	r := &fakeRunner{}
	require.NoError(t, NewKubectl(r).Run(context.Background(), "prod-core", "api", []string{"get", "svc"}))
	assert.Equal(t, [][]string{{"kubectl", "--context", "prod-core", "-n", "api", "get", "svc"}}, r.attached)
}

func TestToolError(t *testing.T) {
	err := ToolError("kubectl", &CommandError{Command: "kubectl", Err: exec.ErrNotFound})
	require.ErrorIs(t, err, errUtils.ErrInvalidConfig)
	assert.Contains(t, errUtils.Hints(err)[0], "install kubectl")

	err = ToolError("aws", &CommandError{Command: "aws sso login", Stderr: "denied", Err: errors.New("exit status 255")})
	require.ErrorIs(t, err, errUtils.ErrBackend)
	assert.Contains(t, err.Error(), "aws sso login: denied")
}

func TestExecRunnerOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := &ExecRunner{}
	out, err := r.Output(context.Background(), "sh", "-c", "echo ' hello '")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = r.Output(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "boom", ce.Stderr)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, 1, errUtils.GetExitCode(err))

	var stdout bytes.Buffer
	r = &ExecRunner{Stdout: &stdout}
	require.NoError(t, r.Attach(context.Background(), "sh", "-c", "echo attached"))
	assert.Equal(t, "attached\n", stdout.String())
}
