package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 8080
  environment: production
  rate_limit: 100
parser:
  field_separator: "|"
  component_separator: "^"
terminology:
  remote_url: "http://terminology.internal:8090"
  remote_systems:
    - snomed
    - loinc
pipeline:
  workers: 8
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Environment != "production" {
		t.Errorf("expected environment 'production', got '%s'", cfg.Server.Environment)
	}
	if cfg.Server.RateLimit != 100 {
		t.Errorf("expected rate_limit 100, got %d", cfg.Server.RateLimit)
	}
	if cfg.Parser.FieldSeparator != "|" {
		t.Errorf("expected field separator '|', got '%s'", cfg.Parser.FieldSeparator)
	}
	if cfg.Terminology.RemoteURL != "http://terminology.internal:8090" {
		t.Errorf("expected remote url, got '%s'", cfg.Terminology.RemoteURL)
	}
	if len(cfg.Terminology.RemoteSystems) != 2 {
		t.Errorf("expected 2 remote systems, got %v", cfg.Terminology.RemoteSystems)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Pipeline.Workers)
	}
}

func TestLoadWithEnvExpansion(t *testing.T) {
	configContent := `
terminology:
  remote_url: "${TEST_TERMINOLOGY_URL}"
`

	os.Setenv("TEST_TERMINOLOGY_URL", "http://env.terminology:8090")
	defer os.Unsetenv("TEST_TERMINOLOGY_URL")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Terminology.RemoteURL != "http://env.terminology:8090" {
		t.Errorf("expected remote url from env, got '%s'", cfg.Terminology.RemoteURL)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\ninvalid yaml:: content\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadMinimalConfig(t *testing.T) {
	configContent := `
server:
  port: 8080
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	// Everything unspecified keeps its default
	if cfg.Server.Environment != "development" {
		t.Errorf("expected default environment 'development', got '%s'", cfg.Server.Environment)
	}
	if cfg.Parser.FieldSeparator != "|" {
		t.Errorf("expected default field separator '|', got '%s'", cfg.Parser.FieldSeparator)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Pipeline.Workers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg := LoadFromEnv()
	if cfg == nil {
		t.Fatal("expected config")
	}

	if cfg.Server.Port != 3010 {
		t.Errorf("expected default port 3010, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 300 {
		t.Errorf("expected default rate_limit 300, got %d", cfg.Server.RateLimit)
	}
	if cfg.Parser.ComponentSeparator != "^" {
		t.Errorf("expected default component separator '^', got '%s'", cfg.Parser.ComponentSeparator)
	}
	if cfg.Terminology.RemoteURL != "" {
		t.Errorf("expected no remote terminology by default, got '%s'", cfg.Terminology.RemoteURL)
	}
}

func TestLoadFromEnvWithOverrides(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("PIPELINE_WORKERS", "16")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("PIPELINE_WORKERS")
	}()

	cfg := LoadFromEnv()

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port from env, got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.Workers != 16 {
		t.Errorf("expected workers from env, got %d", cfg.Pipeline.Workers)
	}
}
