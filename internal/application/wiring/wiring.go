package wiring

import (
	"github.com/vivekkundariya/opskit/internal/application/commands"
	"github.com/vivekkundariya/opskit/internal/application/ports"
	"github.com/vivekkundariya/opskit/internal/application/queries"
	"github.com/vivekkundariya/opskit/internal/config"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	"github.com/vivekkundariya/opskit/internal/domain/safety"
	"github.com/vivekkundariya/opskit/internal/infrastructure/credfile"
	"github.com/vivekkundariya/opskit/internal/infrastructure/kube"
)

// Container holds all dependencies (Dependency Injection Container)
// This follows the Dependency Inversion Principle
type Container struct {
	Config *config.ConfigResolver
	Policy environment.Policy

	// Adapters
	Files  ports.CredentialFileReader
	Env    ports.EnvironmentReader
	Input  safety.InputSource
	Runner kube.Runner

	Guard *safety.Guard

	// Command Handlers
	ExecuteOperationHandler *commands.ExecuteOperationHandler

	// Query Handlers
	ResolveCredentialsQueryHandler *queries.ResolveCredentialsQueryHandler
}

// NewContainer wires the process adapters around input, which answers the
// guard's confirmation prompts.
func NewContainer(cfg *config.ConfigResolver, input safety.InputSource) *Container {
	return NewContainerWith(cfg, input, credfile.NewReader(), credfile.ProcessEnv{}, kube.NewExecRunner())
}

// NewContainerWith lets tests substitute the credentials file reader, the
// environment and the tool runner.
func NewContainerWith(cfg *config.ConfigResolver, input safety.InputSource, files ports.CredentialFileReader, env ports.EnvironmentReader, runner kube.Runner) *Container {
	policy := environment.NewPolicy(cfg.ProductionEnvs()...)
	guard := safety.NewGuard(input, policy)

	resolveHandler := queries.NewResolveCredentialsQueryHandler(files, env)
	executeHandler := commands.NewExecuteOperationHandler(resolveHandler, guard)

	return &Container{
		Config:                         cfg,
		Policy:                         policy,
		Files:                          files,
		Env:                            env,
		Input:                          input,
		Runner:                         runner,
		Guard:                          guard,
		ExecuteOperationHandler:        executeHandler,
		ResolveCredentialsQueryHandler: resolveHandler,
	}
}
