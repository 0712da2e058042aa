// Package config resolves the bootstrap configuration from an
// optional YAML file, environment variables and path conventions.
//
// Resolution order: defaults, then the config file, then environment
// variables. Unset store paths derive from the state directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by the bootstrap.
const (
	EnvStateDir      = "OPENCLAW_STATE_DIR"
	EnvCredentials   = "CLAUDE_CREDENTIALS_PATH"
	EnvPendingPath   = "OPENCLAW_PENDING_PATH"
	EnvPairedPath    = "OPENCLAW_PAIRED_PATH"
	EnvIdentityPath  = "OPENCLAW_IDENTITY_PATH"
	EnvAuthStorePath = "OPENCLAW_AUTH_STORE_PATH"
	EnvGatewayCmd    = "OPENCLAW_GATEWAY_CMD"
)

// defaultCredentialsPath is where the container entrypoint mounts the
// host CLI's OAuth credential file.
const defaultCredentialsPath = "/host/.claude/auth.json"

// Config is the resolved bootstrap configuration. Services receive
// the paths they need explicitly; nothing reads this as a global.
type Config struct {
	StateDir        string `yaml:"stateDir"`
	CredentialsPath string `yaml:"credentialsPath"`
	PendingPath     string `yaml:"pendingPath"`
	PairedPath      string `yaml:"pairedPath"`
	IdentityPath    string `yaml:"identityPath"`
	AuthStorePath   string `yaml:"authStorePath"`
	GatewayCmd      string `yaml:"gatewayCmd"`
}

// Load builds the configuration. path may be empty (no config file).
func Load(path string) (*Config, error) {
	cfg := &Config{
		StateDir:        defaultStateDir(),
		CredentialsPath: defaultCredentialsPath,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.derivePaths()
	return cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".openclaw"
	}
	return filepath.Join(home, ".openclaw")
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.StateDir, EnvStateDir)
	set(&cfg.CredentialsPath, EnvCredentials)
	set(&cfg.PendingPath, EnvPendingPath)
	set(&cfg.PairedPath, EnvPairedPath)
	set(&cfg.IdentityPath, EnvIdentityPath)
	set(&cfg.AuthStorePath, EnvAuthStorePath)
	set(&cfg.GatewayCmd, EnvGatewayCmd)
}

// derivePaths fills unset store paths from the state directory
// conventions the gateway itself uses.
func (c *Config) derivePaths() {
	if c.PendingPath == "" {
		c.PendingPath = filepath.Join(c.StateDir, "devices", "pending.json")
	}
	if c.PairedPath == "" {
		c.PairedPath = filepath.Join(c.StateDir, "devices", "paired.json")
	}
	if c.IdentityPath == "" {
		c.IdentityPath = filepath.Join(c.StateDir, "identity", "device.json")
	}
	if c.AuthStorePath == "" {
		c.AuthStorePath = filepath.Join(c.StateDir, "agents", "main", "agent", "auth-profiles.json")
	}
}
