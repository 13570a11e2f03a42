package shared

import (
	"github.com/vivekkundariya/opskit/internal/application/wiring"
	"github.com/vivekkundariya/opskit/internal/cli/prompts"
	"github.com/vivekkundariya/opskit/internal/config"
)

var (
	// Container is the DI container initialized by root command
	Container *wiring.Container

	// ConfigResolver is the config resolver initialized by root command
	ConfigResolver *config.ConfigResolver

	// Console answers confirmation prompts and serves interactive stdin reads
	Console *prompts.Console
)
