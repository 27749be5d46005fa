// Package config loads the application configuration: an optional YAML file
// first, then environment variable overrides on top, so deployments can check
// in a config file and still inject secrets through the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt anchors every generation request. It tells the oracle
// what a TAK is and that output must be exactly one XML document.
const DefaultSystemPrompt = "You are an expert in clinical temporal abstraction knowledge (TAK) authoring. " +
	"You convert tabular TAK definitions into XML documents that conform exactly to the provided schema fragment. " +
	"Respond with a single complete XML document and nothing else: no prose, no markdown fences, no commentary."

// Config represents the complete application configuration
type Config struct {
	Oracle   OracleConfig   `yaml:"oracle"`
	Paths    PathConfig     `yaml:"paths"`
	Loop     LoopConfig     `yaml:"loop"`
	Registry RegistryConfig `yaml:"registry"`
	Server   ServerConfig   `yaml:"server"`
}

// OracleConfig holds generative-oracle settings
type OracleConfig struct {
	Provider     string        `yaml:"provider"` // "openai" or "gemini"
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
}

// PathConfig holds file system paths
type PathConfig struct {
	WorkbookFile string `yaml:"workbook_file"`
	SchemaFile   string `yaml:"schema_file"`
	TemplatesDir string `yaml:"templates_dir"`
	OutputDir    string `yaml:"output_dir"`
	RegistryFile string `yaml:"registry_file"`
	ReportFile   string `yaml:"report_file"`
}

// LoopConfig holds control-loop settings
type LoopConfig struct {
	MaxAttempts int  `yaml:"max_attempts"`
	TestMode    bool `yaml:"test_mode"` // validate prompts without calling the oracle
}

// RegistryConfig selects the registry backend
type RegistryConfig struct {
	Backend     string `yaml:"backend"` // "file" or "postgres"
	DatabaseURL string `yaml:"database_url"`
}

// ServerConfig holds report server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Load reads configuration from an optional YAML file, applies environment
// overrides and validates the result. An empty path means environment only.
func Load(path string) (*Config, error) {
	config := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	return &Config{
		Oracle: OracleConfig{
			Provider:     "openai",
			Model:        "gpt-4o",
			MaxTokens:    4096,
			Temperature:  0.2,
			Timeout:      120 * time.Second,
			SystemPrompt: DefaultSystemPrompt,
		},
		Paths: PathConfig{
			WorkbookFile: "tak_definitions.xlsx",
			SchemaFile:   "tak_schema.xsd",
			TemplatesDir: "templates",
			OutputDir:    "output",
			RegistryFile: "output/registry.tsv",
			ReportFile:   "output/run_report.md",
		},
		Loop: LoopConfig{
			MaxAttempts: 3,
		},
		Registry: RegistryConfig{
			Backend: "file",
		},
		Server: ServerConfig{
			Port: "8080",
		},
	}
}

func applyEnvOverrides(config *Config) {
	config.Oracle.Provider = getEnvOrDefault("ORACLE_PROVIDER", config.Oracle.Provider)
	config.Oracle.Model = getEnvOrDefault("LLM_MODEL", config.Oracle.Model)
	config.Oracle.BaseURL = getEnvOrDefault("LLM_BASE_URL", config.Oracle.BaseURL)
	config.Oracle.MaxTokens = getEnvIntOrDefault("MAX_TOKENS", config.Oracle.MaxTokens)
	config.Oracle.Temperature = getEnvFloatOrDefault("TEMPERATURE", config.Oracle.Temperature)

	switch config.Oracle.Provider {
	case "gemini":
		config.Oracle.APIKey = getEnvOrDefault("GEMINI_API_KEY", config.Oracle.APIKey)
	default:
		config.Oracle.APIKey = getEnvOrDefault("OPENAI_API_KEY", config.Oracle.APIKey)
	}

	config.Paths.WorkbookFile = getEnvOrDefault("WORKBOOK_FILE", config.Paths.WorkbookFile)
	config.Paths.SchemaFile = getEnvOrDefault("SCHEMA_FILE", config.Paths.SchemaFile)
	config.Paths.TemplatesDir = getEnvOrDefault("TEMPLATES_DIR", config.Paths.TemplatesDir)
	config.Paths.OutputDir = getEnvOrDefault("OUTPUT_DIR", config.Paths.OutputDir)
	config.Paths.RegistryFile = getEnvOrDefault("REGISTRY_FILE", config.Paths.RegistryFile)
	config.Paths.ReportFile = getEnvOrDefault("REPORT_FILE", config.Paths.ReportFile)

	config.Loop.MaxAttempts = getEnvIntOrDefault("MAX_ATTEMPTS", config.Loop.MaxAttempts)
	config.Loop.TestMode = getEnvBoolOrDefault("TEST_MODE", config.Loop.TestMode)

	config.Registry.Backend = getEnvOrDefault("REGISTRY_BACKEND", config.Registry.Backend)
	config.Registry.DatabaseURL = getEnvOrDefault("DATABASE_URL", config.Registry.DatabaseURL)

	config.Server.Port = getEnvOrDefault("PORT", config.Server.Port)
}

func validate(config *Config) error {
	if config.Loop.MaxAttempts <= 0 {
		return fmt.Errorf("loop max_attempts must be positive")
	}
	if config.Registry.Backend == "postgres" && config.Registry.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres registry backend")
	}
	if !config.Loop.TestMode && config.Oracle.APIKey == "" {
		return fmt.Errorf("oracle API key is required outside test mode")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
