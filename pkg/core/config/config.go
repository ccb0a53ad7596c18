// ============================================================================
// sparkswap broker-cli
// ============================================================================
//
// Package:     config
// Description: TOML configuration for the broker daemon client
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults
const (
	DefaultRPCAddress = "localhost:27492"
	DefaultRPCCert    = "~/.sparkswap/secure/broker-rpc-tls.cert"
	DefaultTimeout    = 30 * time.Second

	// EnvConfigPath points at the config file to load
	EnvConfigPath = "SPARKSWAP_CONFIG"
)

// Environment overrides for the rpc section
const (
	EnvRPCAddress  = "SPARKSWAP_RPC_ADDRESS"
	EnvRPCCert     = "SPARKSWAP_RPC_CERT"
	EnvDisableAuth = "SPARKSWAP_DISABLE_AUTH"
	EnvRPCUser     = "SPARKSWAP_RPC_USER"
	EnvRPCPass     = "SPARKSWAP_RPC_PASS"
)

// Config holds the complete CLI configuration
type Config struct {
	RPC RPCConfig `toml:"rpc"`
	Log LogConfig `toml:"log"`
}

// RPCConfig holds the connection settings for the broker daemon
type RPCConfig struct {
	Address     string   `toml:"address"`
	Cert        string   `toml:"cert"`
	DisableAuth bool     `toml:"disable_auth"`
	User        string   `toml:"user"`
	Pass        string   `toml:"pass"`
	Timeout     Duration `toml:"timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.expandPaths()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = expandHome(os.ExpandEnv(path))

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.expandPaths()

	return &cfg, nil
}

// LoadFromEnv loads configuration from SPARKSWAP_CONFIG or the default
// locations. Without any config file the defaults plus environment
// overrides are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		return Load(path)
	}

	cfg := &Config{}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.expandPaths()
	return cfg, nil
}

// DefaultPaths returns the config file locations searched by LoadFromEnv
func DefaultPaths() []string {
	paths := []string{"./sparkswap.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".sparkswap", "config.toml"))
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.RPC.Address == "" {
		c.RPC.Address = DefaultRPCAddress
	}
	if c.RPC.Cert == "" && !c.RPC.DisableAuth {
		c.RPC.Cert = DefaultRPCCert
	}
	if c.RPC.Timeout.Duration == 0 {
		c.RPC.Timeout.Duration = DefaultTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// applyEnv overrides rpc settings from the environment
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvRPCAddress); v != "" {
		c.RPC.Address = v
	}
	if v := os.Getenv(EnvRPCCert); v != "" {
		c.RPC.Cert = v
	}
	if v := os.Getenv(EnvRPCUser); v != "" {
		c.RPC.User = v
	}
	if v := os.Getenv(EnvRPCPass); v != "" {
		c.RPC.Pass = v
	}
	if v := os.Getenv(EnvDisableAuth); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDisableAuth, err)
		}
		c.RPC.DisableAuth = b
	}
	return nil
}

// expandPaths expands environment variables and ~ in file paths
func (c *Config) expandPaths() {
	if c.RPC.Cert != "" {
		c.RPC.Cert = expandHome(os.ExpandEnv(c.RPC.Cert))
	}
}

// Validate checks the rpc section. When authentication is enabled the
// certificate, user and password are all required.
func (r RPCConfig) Validate() error {
	if r.Address == "" {
		return &FieldError{Field: "address", Reason: "must not be empty"}
	}
	if _, _, err := net.SplitHostPort(r.Address); err != nil {
		return &FieldError{Field: "address", Reason: "must be host:port", Err: err}
	}
	if r.DisableAuth {
		return nil
	}
	if strings.TrimSpace(r.Cert) == "" {
		return &FieldError{Field: "cert", Reason: "required when authentication is enabled"}
	}
	if r.User == "" {
		return &FieldError{Field: "user", Reason: "required when authentication is enabled"}
	}
	if r.Pass == "" {
		return &FieldError{Field: "pass", Reason: "required when authentication is enabled"}
	}
	return nil
}

// FieldError reports an invalid or missing configuration field
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rpc.%s %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("rpc.%s %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
