package main

import (
	"os"

	"github.com/vivekkundariya/opskit/internal/cli"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(errUtils.GetExitCode(err))
	}
}
