package credfile

import "os"

// ProcessEnv reads the process environment.
type ProcessEnv struct{}

func (ProcessEnv) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}
