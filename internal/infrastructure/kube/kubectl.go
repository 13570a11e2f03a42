package kube

import (
	"context"
	"fmt"
	"slices"
	"strings"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

// Kubectl wraps the kubectl contexts used per environment.
type Kubectl struct {
	run Runner
}

func NewKubectl(r Runner) *Kubectl {
	return &Kubectl{run: r}
}

// Contexts lists the context names in the kubeconfig.
func (k *Kubectl) Contexts(ctx context.Context) ([]string, error) {
	out, err := k.run.Output(ctx, "kubectl", "config", "get-contexts", "-o", "name")
	if err != nil {
		return nil, ToolError("kubectl", err)
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// HasContext reports whether name is in the kubeconfig.
func (k *Kubectl) HasContext(ctx context.Context, name string) (bool, error) {
	names, err := k.Contexts(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func (k *Kubectl) UseContext(ctx context.Context, name string) error {
	if _, err := k.run.Output(ctx, "kubectl", "config", "use-context", name); err != nil {
		return ToolError("kubectl", err)
	}
	return nil
}

// CurrentContext returns "none" when no context is selected.
func (k *Kubectl) CurrentContext(ctx context.Context) string {
	out, err := k.run.Output(ctx, "kubectl", "config", "current-context")
	if err != nil || out == "" {
		return "none"
	}
	return out
}

// ClusterInfo verifies the API server behind kubeContext answers.
func (k *Kubectl) ClusterInfo(ctx context.Context, kubeContext string) error {
	_, err := k.run.Output(ctx, "kubectl", "--context", kubeContext, "cluster-info")
	return err
}

// Args builds the kubectl argument list for a passthrough run. The
// namespace is added unless args already name one or it is "default".
func Args(kubeContext, namespace string, args []string) []string {
	out := []string{"--context", kubeContext}
	if namespace != "" && namespace != "default" && !hasNamespace(args) {
		out = append(out, "-n", namespace)
	}
	return append(out, args...)
}

func hasNamespace(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-n" || a == "--namespace" || strings.HasPrefix(a, "--namespace=") || strings.HasPrefix(a, "-n=") {
			return true
		}
	}
	return false
}

// Run passes args through to kubectl with the terminal attached.
func (k *Kubectl) Run(ctx context.Context, kubeContext, namespace string, args []string) error {
	if err := k.run.Attach(ctx, "kubectl", Args(kubeContext, namespace, args)...); err != nil {
		return ToolError("kubectl", err)
	}
	return nil
}

// ToolError classifies a failed run of the named tool.
func ToolError(name string, err error) error {
	if IsNotInstalled(err) {
		return errUtils.WithHints(
			fmt.Errorf("%w: %s not found in PATH", errUtils.ErrInvalidConfig, name),
			installHint[name],
		)
	}
	return fmt.Errorf("%w: %w", errUtils.ErrBackend, err)
}

var installHint = map[string]string{
	"aws":     "install AWS CLI v2 from https://aws.amazon.com/cli/",
	"kubectl": "install kubectl from https://kubernetes.io/docs/tasks/tools/",
}
