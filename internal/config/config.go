package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the notemill service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ProvidersConfig holds the two external provider credentials and limits.
// Credentials are loaded once at startup and passed into the client
// constructors; the pipeline never reads them from ambient state.
type ProvidersConfig struct {
	Search    SearchProviderConfig    `yaml:"search"`
	Synthesis SynthesisProviderConfig `yaml:"synthesis"`
}

// SearchProviderConfig holds web-search provider settings (SerpAPI-compatible).
type SearchProviderConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxResults int    `yaml:"max_results"`
}

// SynthesisProviderConfig holds LLM provider settings. Any OpenAI-compatible
// chat-completion endpoint works via base_url.
type SynthesisProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	Temperature float32 `yaml:"temperature"`
}

// PipelineConfig holds orchestration tunables: retries, the overall request
// deadline, and the evidence budget fed to the prompt.
type PipelineConfig struct {
	OverallDeadlineSec int `yaml:"overall_deadline_sec"`
	RetryAttempts      int `yaml:"retry_attempts"` // extra attempts per stage after the first; -1 disables
	RetryBackoffMs     int `yaml:"retry_backoff_ms"`
	EvidenceMaxItems   int `yaml:"evidence_max_items"`
	EvidenceMaxChars   int `yaml:"evidence_max_chars"`
}

// CacheConfig holds the optional Redis-backed search-result cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Providers.Search.BaseURL == "" {
		c.Providers.Search.BaseURL = "https://serpapi.com"
	}
	if c.Providers.Search.TimeoutSec <= 0 {
		c.Providers.Search.TimeoutSec = 10
	}
	if c.Providers.Search.MaxResults <= 0 {
		c.Providers.Search.MaxResults = 10
	}
	if c.Providers.Synthesis.Model == "" {
		c.Providers.Synthesis.Model = "gpt-4o-mini"
	}
	if c.Providers.Synthesis.TimeoutSec <= 0 {
		c.Providers.Synthesis.TimeoutSec = 10
	}
	if c.Pipeline.OverallDeadlineSec <= 0 {
		c.Pipeline.OverallDeadlineSec = 20
	}
	switch {
	case c.Pipeline.RetryAttempts < 0:
		c.Pipeline.RetryAttempts = 0
	case c.Pipeline.RetryAttempts == 0:
		c.Pipeline.RetryAttempts = 1
	}
	if c.Pipeline.RetryBackoffMs <= 0 {
		c.Pipeline.RetryBackoffMs = 250
	}
	if c.Pipeline.EvidenceMaxItems <= 0 {
		c.Pipeline.EvidenceMaxItems = 8
	}
	if c.Pipeline.EvidenceMaxChars <= 0 {
		c.Pipeline.EvidenceMaxChars = 4000
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 900
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Providers.Search.APIKey == "" {
		return fmt.Errorf("providers.search.api_key is required")
	}
	if c.Providers.Synthesis.APIKey == "" {
		return fmt.Errorf("providers.synthesis.api_key is required")
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
