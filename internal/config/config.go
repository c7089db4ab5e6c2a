package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for carebridge
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Parser      ParserConfig      `yaml:"parser"`
	Terminology TerminologyConfig `yaml:"terminology"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	RateLimit   int    `yaml:"rate_limit"` // requests per minute per IP
}

// ParserConfig holds wire-message parser configuration
type ParserConfig struct {
	FieldSeparator     string `yaml:"field_separator"`
	ComponentSeparator string `yaml:"component_separator"`
}

// TerminologyConfig holds terminology service configuration. An empty
// RemoteURL keeps the built-in static crosswalk as the only source.
type TerminologyConfig struct {
	RemoteURL     string   `yaml:"remote_url"`
	RemoteSystems []string `yaml:"remote_systems"`
}

// PipelineConfig holds batch pipeline configuration
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := LoadFromEnv()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 3010),
			Environment: getEnv("ENVIRONMENT", "development"),
			RateLimit:   getEnvInt("RATE_LIMIT", 300),
		},
		Parser: ParserConfig{
			FieldSeparator:     getEnv("HL7_FIELD_SEPARATOR", "|"),
			ComponentSeparator: getEnv("HL7_COMPONENT_SEPARATOR", "^"),
		},
		Terminology: TerminologyConfig{
			RemoteURL: getEnv("TERMINOLOGY_REMOTE_URL", ""),
		},
		Pipeline: PipelineConfig{
			Workers: getEnvInt("PIPELINE_WORKERS", 4),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
