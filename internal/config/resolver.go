package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source says which layer a setting came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceGlobal  Source = "config"
	SourceDefault Source = "default"
	SourceUnset   Source = ""
)

// ConfigResolver resolves invocation settings from multiple sources
// Priority order (highest to lowest):
// 1. CLI flag
// 2. Environment variable (OPSKIT_ENV, OPSKIT_FORMAT)
// 3. Global config: ~/.opskit/config.yaml
// 4. Built-in default
type ConfigResolver struct {
	GlobalConfig *GlobalConfig
	Home         string
}

// NewConfigResolver loads the global config and creates a resolver
func NewConfigResolver() (*ConfigResolver, error) {
	globalConfig, err := LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	home, err := GetOpskitHome()
	if err != nil {
		return nil, err
	}

	return &ConfigResolver{
		GlobalConfig: globalConfig,
		Home:         home,
	}, nil
}

// ResolveEnvironment picks the target environment name. An empty result
// means the caller has to ask.
func (r *ConfigResolver) ResolveEnvironment(flag string) (string, Source) {
	if flag != "" {
		return flag, SourceFlag
	}
	if v := os.Getenv(EnvDefaultEnv); v != "" {
		return v, SourceEnv
	}
	if r.GlobalConfig != nil && r.GlobalConfig.DefaultEnv != "" {
		return r.GlobalConfig.DefaultEnv, SourceGlobal
	}
	return "", SourceUnset
}

// ResolveFormat picks the output format, falling back to the command's own
// default.
func (r *ConfigResolver) ResolveFormat(flag, commandDefault string) (string, Source) {
	if flag != "" {
		return flag, SourceFlag
	}
	if v := os.Getenv(EnvDefaultFormat); v != "" {
		return v, SourceEnv
	}
	if r.GlobalConfig != nil && r.GlobalConfig.DefaultFormat != "" {
		return r.GlobalConfig.DefaultFormat, SourceGlobal
	}
	return commandDefault, SourceDefault
}

// CredentialsDir is where per-backend credentials files live.
func (r *ConfigResolver) CredentialsDir() string {
	if r.GlobalConfig != nil && r.GlobalConfig.CredentialsDir != "" {
		return expandHome(r.GlobalConfig.CredentialsDir)
	}
	return r.Home
}

// ProductionEnvs lists environments that need the PROD confirmation.
func (r *ConfigResolver) ProductionEnvs() []string {
	if r.GlobalConfig == nil {
		return DefaultGlobalConfig().ProductionEnvs
	}
	return r.GlobalConfig.ProductionEnvs
}

// AWSConfigFile is the shared AWS config file SSO profiles are kept in.
// Priority: aws.config_file > AWS_CONFIG_FILE > ~/.aws/config
func (r *ConfigResolver) AWSConfigFile() string {
	if r.GlobalConfig != nil && r.GlobalConfig.AWS.ConfigFile != "" {
		return expandHome(r.GlobalConfig.AWS.ConfigFile)
	}
	if v := os.Getenv("AWS_CONFIG_FILE"); v != "" {
		return v
	}
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".aws", "config")
}

// DatadogSite is the default Datadog site.
func (r *ConfigResolver) DatadogSite() string {
	if r.GlobalConfig != nil && r.GlobalConfig.Datadog.Site != "" {
		return r.GlobalConfig.Datadog.Site
	}
	return DefaultGlobalConfig().Datadog.Site
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
