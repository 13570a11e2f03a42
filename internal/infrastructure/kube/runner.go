// Package kube drives the aws and kubectl command line tools.
package kube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/vivekkundariya/opskit/internal/ui"
)

// Runner executes external tools.
type Runner interface {
	// Output runs name and returns its trimmed stdout. On failure the error
	// carries stderr.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Attach runs name with the terminal attached.
	Attach(ctx context.Context, name string, args ...string) error
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner attaches interactive runs to the process streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// CommandError reports a failed tool run.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Command, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	line := name + " " + strings.Join(args, " ")
	ui.Debug("Running: %s", line)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", &CommandError{Command: line, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *ExecRunner) Attach(ctx context.Context, name string, args ...string) error {
	ui.Debug("Running: %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{Command: name + " " + strings.Join(args, " "), Err: err}
	}
	return nil
}

// IsNotInstalled reports whether err means the tool is missing from PATH.
func IsNotInstalled(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
