// Package policy loads server configuration from defaults, an optional YAML
// file, a .env file and the process environment.
package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ConfigEnvVar names the optional YAML config file.
const ConfigEnvVar = "WHITEBOARD_CONFIG"

const (
	defaultPort         = 5000
	defaultDataFile     = "whiteboardData.json"
	defaultMaxBodyBytes = 100 << 10
)

// Config holds server configuration. YAML keys and environment variables map
// onto the same fields; the environment wins.
type Config struct {
	Port            int    `yaml:"port" envconfig:"PORT"`
	DataFile        string `yaml:"data_file" envconfig:"DATA_FILE"`
	StorageBackend  string `yaml:"storage_backend" envconfig:"STORAGE_BACKEND"` // json (default) or sqlite
	LogFile         string `yaml:"log_file" envconfig:"LOG_FILE"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	ValidatePayload bool   `yaml:"validate_payload" envconfig:"VALIDATE_PAYLOAD"`
	WatchDataFile   bool   `yaml:"watch_data_file" envconfig:"WATCH_DATA_FILE"`
	MCP             bool   `yaml:"mcp" envconfig:"MCP_ENABLED"`
}

// DefaultConfig returns the defaults: port 5000, ./whiteboardData.json, JSON storage.
func DefaultConfig() *Config {
	return &Config{
		Port:           defaultPort,
		DataFile:       defaultDataFile,
		StorageBackend: "json",
		MaxBodyBytes:   defaultMaxBodyBytes,
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load builds the effective configuration. envFile (usually ".env") is loaded
// into the environment first if it exists; variables already set are kept.
// Empty variables count as unset.
// Then the YAML file named by WHITEBOARD_CONFIG, if any, is applied over the
// defaults, and finally the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	unsetEmpty(configEnvVars)

	cfg := DefaultConfig()
	if path := os.Getenv(ConfigEnvVar); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configEnvVars lists the variables decoded into Config.
var configEnvVars = []string{
	"PORT", "DATA_FILE", "STORAGE_BACKEND", "LOG_FILE",
	"MAX_BODY_BYTES", "VALIDATE_PAYLOAD", "WATCH_DATA_FILE", "MCP_ENABLED",
}

// unsetEmpty removes variables that are set to the empty string, so a blank
// PORT= line means "use the default" instead of failing to parse.
func unsetEmpty(keys []string) {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && v == "" {
			os.Unsetenv(k)
		}
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch strings.ToLower(c.StorageBackend) {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("unknown storage_backend %q (want json or sqlite)", c.StorageBackend)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}
	return nil
}

// Policy exposes resolved configuration values.
type Policy struct {
	config *Config
}

// New creates a policy over cfg.
func New(cfg *Config) *Policy {
	return &Policy{config: cfg}
}

// Port returns the HTTP listen port. 0 picks a free port.
func (p *Policy) Port() int {
	return p.config.Port
}

// Addr returns the listen address for the HTTP server.
func (p *Policy) Addr() string {
	return ":" + strconv.Itoa(p.config.Port)
}

// DataFile returns the data file path resolved against the working directory.
func (p *Policy) DataFile() string {
	df := p.config.DataFile
	if df == "" {
		df = defaultDataFile
	}
	if filepath.IsAbs(df) {
		return df
	}
	abs, err := filepath.Abs(df)
	if err != nil {
		return df
	}
	return abs
}

// StorageBackend returns "json" or "sqlite".
func (p *Policy) StorageBackend() string {
	if p.config.StorageBackend == "" {
		return "json"
	}
	return strings.ToLower(p.config.StorageBackend)
}

// LogFile returns the log file path. Empty, "none" and "off" disable file logging.
func (p *Policy) LogFile() string {
	switch strings.ToLower(p.config.LogFile) {
	case "none", "off":
		return ""
	}
	return p.config.LogFile
}

// MaxBodyBytes returns the request body limit for replace-state. 0 means the default.
func (p *Policy) MaxBodyBytes() int64 {
	if p.config.MaxBodyBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return p.config.MaxBodyBytes
}

// ValidatePayload reports whether replace-state payloads are checked against the element contract.
func (p *Policy) ValidatePayload() bool {
	return p.config.ValidatePayload
}

// WatchDataFile reports whether external edits to the data file are reloaded.
func (p *Policy) WatchDataFile() bool {
	return p.config.WatchDataFile
}

// MCPEnabled reports whether the MCP endpoint is mounted at /mcp.
func (p *Policy) MCPEnabled() bool {
	return p.config.MCP
}
