// Package errors holds the sentinel errors shared by every opskit command and
// the helpers that attach hints and exit codes to them.
package errors

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrUnresolvedCredentials = errors.New("unresolved credentials")
	ErrInvalidEnvironment    = errors.New("invalid environment")
	ErrEnvironmentRequired   = errors.New("environment required")
	ErrInvalidFormat         = errors.New("invalid output format")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrUnknownBackend        = errors.New("unknown backend")
	ErrBackend               = errors.New("backend error")
	ErrNotConnected          = errors.New("not connected")
)

var errSilent = errors.New("already reported")

// Silence marks err so the root command exits with its code without
// printing it.
func Silence(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errSilent)
}

// IsSilent reports whether err was marked by Silence.
func IsSilent(err error) bool {
	return errors.Is(err, errSilent)
}

// WithHints attaches user-facing remediation hints to err.
func WithHints(err error, hints ...string) error {
	if err == nil {
		return nil
	}
	for _, h := range hints {
		if h == "" {
			continue
		}
		err = errors.WithHint(err, h)
	}
	return err
}

// Hints returns every hint attached anywhere in the error chain.
func Hints(err error) []string {
	if err == nil {
		return nil
	}
	return errors.GetAllHints(err)
}

// Backend wraps a client library failure with the operation that produced it.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, "%s failed", op), ErrBackend)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
