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

// Config holds the usdsearch daemon configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	APIKeys         []string `yaml:"api_keys"` // bearer keys guarding the daemon itself
}

// SearchConfig holds USD Search API endpoint settings.
type SearchConfig struct {
	HostURL              string  `yaml:"host_url"`
	Mode                 string  `yaml:"mode"` // api, url (default: api)
	Limit                int     `yaml:"limit"`
	CutoffThreshold      float64 `yaml:"cutoff_threshold"`
	FileExtensionInclude string  `yaml:"file_extension_include"`
	TimeoutSec           int     `yaml:"timeout_sec"`
}

// AuthConfig holds credentials for the search endpoint.
type AuthConfig struct {
	NvidiaAPIKey         string `yaml:"nvidia_api_key"`
	RequireAuthorization bool   `yaml:"require_authorization"`
	NucleusServer        string `yaml:"nucleus_server"`
}

// StorageConfig holds filesystem layout settings.
type StorageConfig struct {
	ScratchDir string `yaml:"scratch_dir"` // decoded thumbnails, cleared on startup
	AssetDir   string `yaml:"asset_dir"`   // downloaded assets
}

// APIKey returns the static key, falling back to the NVIDIA_API_KEY
// environment variable when the config leaves it empty.
func (a AuthConfig) APIKey() string {
	if a.NvidiaAPIKey != "" {
		return a.NvidiaAPIKey
	}
	return os.Getenv("NVIDIA_API_KEY")
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
	if c.Search.Mode == "" {
		c.Search.Mode = "api"
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 30
	}
	if c.Search.CutoffThreshold <= 0 {
		c.Search.CutoffThreshold = 1.05
	}
	if c.Search.FileExtensionInclude == "" {
		c.Search.FileExtensionInclude = "usd*"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Storage.ScratchDir == "" {
		c.Storage.ScratchDir = filepath.Join(os.TempDir(), "usdsearch", "captures")
	}
	if c.Storage.AssetDir == "" {
		c.Storage.AssetDir = filepath.Join(os.TempDir(), "usdsearch", "assets")
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.HostURL == "" {
		return fmt.Errorf("search.host_url is required")
	}
	switch c.Search.Mode {
	case "api", "url":
		// ok
	default:
		return fmt.Errorf("search.mode must be \"api\" or \"url\", got %q", c.Search.Mode)
	}
	if c.Auth.RequireAuthorization && c.Auth.NucleusServer == "" {
		return fmt.Errorf("auth.nucleus_server is required when auth.require_authorization is set")
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
