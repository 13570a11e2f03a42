package errors

import "github.com/cockroachdb/errors"

// codedError carries the process exit status for err.
type codedError struct {
	error
	code int
}

func (e *codedError) Unwrap() error { return e.error }

// WithExitCode makes the process exit with code when err reaches main.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &codedError{error: err, code: code}
}

// GetExitCode maps err to a process exit status: 0 for nil, the code
// attached with WithExitCode, and 1 for everything else, including
// failures of child processes such as kubectl.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
