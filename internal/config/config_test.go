package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvStateDir, EnvCredentials, EnvPendingPath, EnvPairedPath,
		EnvIdentityPath, EnvAuthStorePath, EnvGatewayCmd,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DerivesPathsFromStateDir(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStateDir, "/var/lib/openclaw")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pending", cfg.PendingPath, "/var/lib/openclaw/devices/pending.json"},
		{"paired", cfg.PairedPath, "/var/lib/openclaw/devices/paired.json"},
		{"identity", cfg.IdentityPath, "/var/lib/openclaw/identity/device.json"},
		{"auth_store", cfg.AuthStorePath, "/var/lib/openclaw/agents/main/agent/auth-profiles.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if cfg.CredentialsPath != "/host/.claude/auth.json" {
		t.Errorf("credentials = %q, want default host mount", cfg.CredentialsPath)
	}
}

func TestLoad_EnvOverridesDerivedPaths(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStateDir, "/var/lib/openclaw")
	t.Setenv(EnvPendingPath, "/elsewhere/pending.json")
	t.Setenv(EnvCredentials, "/mnt/creds/auth.json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PendingPath != "/elsewhere/pending.json" {
		t.Errorf("pending = %q, want explicit override", cfg.PendingPath)
	}
	if cfg.PairedPath != "/var/lib/openclaw/devices/paired.json" {
		t.Errorf("paired = %q, want derived path", cfg.PairedPath)
	}
	if cfg.CredentialsPath != "/mnt/creds/auth.json" {
		t.Errorf("credentials = %q, want override", cfg.CredentialsPath)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	body := `
stateDir: /from/file
credentialsPath: /from/file/auth.json
gatewayCmd: openclaw gateway
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvCredentials, "/from/env/auth.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.StateDir != "/from/file" {
		t.Errorf("stateDir = %q, want file value", cfg.StateDir)
	}
	if cfg.CredentialsPath != "/from/env/auth.json" {
		t.Errorf("credentials = %q, env should win over file", cfg.CredentialsPath)
	}
	if cfg.GatewayCmd != "openclaw gateway" {
		t.Errorf("gatewayCmd = %q, want file value", cfg.GatewayCmd)
	}
	if cfg.PendingPath != "/from/file/devices/pending.json" {
		t.Errorf("pending = %q, want derived from file stateDir", cfg.PendingPath)
	}
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing file) = nil error, want failure")
	}
}
