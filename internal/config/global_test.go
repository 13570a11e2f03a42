package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetOpskitHome_Default(t *testing.T) {
	t.Setenv(EnvOpskitHome, "")

	home, err := GetOpskitHome()
	if err != nil {
		t.Fatalf("GetOpskitHome() error: %v", err)
	}

	userHome, _ := os.UserHomeDir()
	expected := filepath.Join(userHome, GlobalConfigDir)

	if home != expected {
		t.Errorf("GetOpskitHome() = %q, want %q", home, expected)
	}
}

func TestGetOpskitHome_EnvVar(t *testing.T) {
	customHome := "/custom/opskit/home"
	t.Setenv(EnvOpskitHome, customHome)

	home, err := GetOpskitHome()
	if err != nil {
		t.Fatalf("GetOpskitHome() error: %v", err)
	}

	if home != customHome {
		t.Errorf("GetOpskitHome() = %q, want %q", home, customHome)
	}
}

func TestLoadGlobalConfig_NotExists(t *testing.T) {
	t.Setenv(EnvOpskitHome, t.TempDir())

	config, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error: %v", err)
	}

	if len(config.ProductionEnvs) != 1 || config.ProductionEnvs[0] != "PROD" {
		t.Errorf("ProductionEnvs = %v, want [PROD]", config.ProductionEnvs)
	}
	if config.Datadog.Site != "datadoghq.com" {
		t.Errorf("Datadog.Site = %q", config.Datadog.Site)
	}
}

func TestLoadGlobalConfig_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvOpskitHome, tmpDir)

	content := "default_env: qa\ndefault_format: json\n"
	if err := os.WriteFile(filepath.Join(tmpDir, GlobalConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error: %v", err)
	}

	if config.DefaultEnv != "qa" || config.DefaultFormat != "json" {
		t.Errorf("unexpected config: %+v", config)
	}
	if len(config.ProductionEnvs) != 1 {
		t.Errorf("ProductionEnvs default not applied: %v", config.ProductionEnvs)
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvOpskitHome, tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, GlobalConfigFile), []byte("default_env: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("expected parse error")
	}
}

func TestInitGlobalConfig(t *testing.T) {
	t.Setenv(EnvOpskitHome, t.TempDir())

	if GlobalConfigExists() {
		t.Fatal("config should not exist yet")
	}

	created, err := InitGlobalConfig()
	if err != nil || !created {
		t.Fatalf("InitGlobalConfig() = %v, %v", created, err)
	}
	if !GlobalConfigExists() {
		t.Error("config should exist after init")
	}

	created, err = InitGlobalConfig()
	if err != nil || created {
		t.Errorf("second InitGlobalConfig() = %v, %v, want false, nil", created, err)
	}
}

func TestConfigResolver_Priority(t *testing.T) {
	r := &ConfigResolver{
		GlobalConfig: &GlobalConfig{DefaultEnv: "dev", DefaultFormat: "csv"},
		Home:         "/h",
	}

	t.Setenv(EnvDefaultEnv, "")
	t.Setenv(EnvDefaultFormat, "")

	if env, src := r.ResolveEnvironment("prod"); env != "prod" || src != SourceFlag {
		t.Errorf("flag: got %q from %q", env, src)
	}
	if env, src := r.ResolveEnvironment(""); env != "dev" || src != SourceGlobal {
		t.Errorf("global: got %q from %q", env, src)
	}

	t.Setenv(EnvDefaultEnv, "uat")
	if env, src := r.ResolveEnvironment(""); env != "uat" || src != SourceEnv {
		t.Errorf("env: got %q from %q", env, src)
	}

	if f, src := r.ResolveFormat("", "markdown"); f != "csv" || src != SourceGlobal {
		t.Errorf("format: got %q from %q", f, src)
	}

	empty := &ConfigResolver{GlobalConfig: &GlobalConfig{}}
	if f, src := empty.ResolveFormat("", "markdown"); f != "markdown" || src != SourceDefault {
		t.Errorf("default format: got %q from %q", f, src)
	}
}

func TestConfigResolver_Paths(t *testing.T) {
	r := &ConfigResolver{GlobalConfig: DefaultGlobalConfig(), Home: "/h"}
	if got := r.CredentialsDir(); got != "/h" {
		t.Errorf("CredentialsDir() = %q", got)
	}

	r.GlobalConfig.CredentialsDir = "/secrets"
	if got := r.CredentialsDir(); got != "/secrets" {
		t.Errorf("CredentialsDir() = %q", got)
	}

	r.GlobalConfig.AWS.ConfigFile = "/tmp/aws-config"
	if got := r.AWSConfigFile(); got != "/tmp/aws-config" {
		t.Errorf("AWSConfigFile() = %q", got)
	}
}
