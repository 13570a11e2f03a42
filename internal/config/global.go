package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory for global opskit configuration
	GlobalConfigDir = ".opskit"

	// GlobalConfigFile is the global configuration file name
	GlobalConfigFile = "config.yaml"

	// EnvOpskitHome is the environment variable for the opskit home directory
	EnvOpskitHome = "OPSKIT_HOME"

	// EnvDefaultEnv overrides default_env for one shell session
	EnvDefaultEnv = "OPSKIT_ENV"

	// EnvDefaultFormat overrides default_format for one shell session
	EnvDefaultFormat = "OPSKIT_FORMAT"
)

// GlobalConfig represents the global opskit configuration
// stored at ~/.opskit/config.yaml
type GlobalConfig struct {
	// DefaultEnv is used when --env is omitted on a multi-environment backend
	DefaultEnv string `yaml:"default_env,omitempty"`

	// DefaultFormat is used when --format is omitted and the backend supports it
	DefaultFormat string `yaml:"default_format,omitempty"`

	// ProductionEnvs require the typed PROD confirmation for writes
	ProductionEnvs []string `yaml:"production_envs,omitempty"`

	// CredentialsDir holds <backend>/references/.credentials files
	CredentialsDir string `yaml:"credentials_dir,omitempty"`

	Datadog DatadogConfig `yaml:"datadog,omitempty"`
	AWS     AWSConfig     `yaml:"aws,omitempty"`
}

// DatadogConfig holds Datadog defaults
type DatadogConfig struct {
	// Site is used when DD_SITE is not set (default: "datadoghq.com")
	Site string `yaml:"site,omitempty"`
}

// AWSConfig holds AWS CLI integration settings
type AWSConfig struct {
	// ConfigFile is the shared config file SSO profiles are written to
	ConfigFile string `yaml:"config_file,omitempty"`
}

// GetOpskitHome returns the opskit home directory
// Priority: OPSKIT_HOME env var > ~/.opskit
func GetOpskitHome() (string, error) {
	if home := os.Getenv(EnvOpskitHome); home != "" {
		return home, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(userHome, GlobalConfigDir), nil
}

// GetGlobalConfigPath returns the path to the global config file
func GetGlobalConfigPath() (string, error) {
	home, err := GetOpskitHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalConfigFile), nil
}

// LoadGlobalConfig loads the global configuration
// Returns default config if file doesn't exist
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GetGlobalConfigPath()
	if err != nil {
		return DefaultGlobalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGlobalConfig(), nil
		}
		return nil, fmt.Errorf("failed to read global config: %w", err)
	}

	var config GlobalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse global config %s: %w", configPath, err)
	}

	config.applyDefaults()

	return &config, nil
}

// SaveGlobalConfig saves the global configuration
func SaveGlobalConfig(config *GlobalConfig) error {
	home, err := GetOpskitHome()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(home, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(home, GlobalConfigFile)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultGlobalConfig returns the default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		ProductionEnvs: []string{"PROD"},
		Datadog: DatadogConfig{
			Site: "datadoghq.com",
		},
	}
}

// applyDefaults applies default values to unset fields
func (c *GlobalConfig) applyDefaults() {
	defaults := DefaultGlobalConfig()

	if len(c.ProductionEnvs) == 0 {
		c.ProductionEnvs = defaults.ProductionEnvs
	}
	if c.Datadog.Site == "" {
		c.Datadog.Site = defaults.Datadog.Site
	}
}

// InitGlobalConfig writes the default config unless one already exists.
// It reports whether a file was created.
func InitGlobalConfig() (bool, error) {
	configPath, err := GetGlobalConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	}

	return true, SaveGlobalConfig(DefaultGlobalConfig())
}

// GlobalConfigExists checks if global config file exists
func GlobalConfigExists() bool {
	configPath, err := GetGlobalConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// ForceInitGlobalConfig initializes the global config, overwriting if exists
func ForceInitGlobalConfig() error {
	return SaveGlobalConfig(DefaultGlobalConfig())
}
