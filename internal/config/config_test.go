// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configContent := `
server:
  http_addr: "0.0.0.0:9000"

database:
  path: "./test.db"

logging:
  level: "debug"
  format: "json"

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  token_expiry: "12h"

agents:
  max_history: 50
  process_timeout: "2m"

mcp:
  execute_timeout: "10s"
  web_search: true
  research: false
  notes: true

models:
  default: "openai"
  anthropic:
    api_key: "sk-ant-test"
    model: "claude-test"
  openai:
    api_key: "sk-test"
    model: "gpt-test"
  ollama:
    enabled: true
    base_url: "http://ollama.local:11434"
    model: "llama-test"
    timeout: "90s"

tailscale:
  enabled: false
  hostname: "test-hub"

console:
  enabled: false
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9000")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	if cfg.Auth.JWTSecret != "0123456789abcdef0123456789abcdef" {
		t.Errorf("Auth.JWTSecret = %q, want the configured secret", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenExpiry != 12*time.Hour {
		t.Errorf("Auth.TokenExpiry = %v, want %v", cfg.Auth.TokenExpiry, 12*time.Hour)
	}

	if cfg.Agents.MaxHistory != 50 {
		t.Errorf("Agents.MaxHistory = %d, want 50", cfg.Agents.MaxHistory)
	}
	if cfg.Agents.ProcessTimeout != 2*time.Minute {
		t.Errorf("Agents.ProcessTimeout = %v, want %v", cfg.Agents.ProcessTimeout, 2*time.Minute)
	}

	if cfg.MCP.ExecuteTimeout != 10*time.Second {
		t.Errorf("MCP.ExecuteTimeout = %v, want %v", cfg.MCP.ExecuteTimeout, 10*time.Second)
	}
	if cfg.MCP.Research {
		t.Error("MCP.Research = true, want false")
	}

	if cfg.Models.Default != "openai" {
		t.Errorf("Models.Default = %q, want %q", cfg.Models.Default, "openai")
	}
	if cfg.Models.Anthropic.APIKey != "sk-ant-test" {
		t.Errorf("Models.Anthropic.APIKey = %q, want %q", cfg.Models.Anthropic.APIKey, "sk-ant-test")
	}
	if cfg.Models.Ollama.BaseURL != "http://ollama.local:11434" {
		t.Errorf("Models.Ollama.BaseURL = %q, want %q", cfg.Models.Ollama.BaseURL, "http://ollama.local:11434")
	}
	if !cfg.Models.Ollama.Enabled {
		t.Error("Models.Ollama.Enabled = false, want true")
	}
	if cfg.Models.Ollama.Timeout != 90*time.Second {
		t.Errorf("Models.Ollama.Timeout = %v, want %v", cfg.Models.Ollama.Timeout, 90*time.Second)
	}

	if cfg.Tailscale.Hostname != "test-hub" {
		t.Errorf("Tailscale.Hostname = %q, want %q", cfg.Tailscale.Hostname, "test-hub")
	}
	if cfg.Console.Enabled {
		t.Error("Console.Enabled = true, want false")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	configContent := `
database:
  path: "./only.db"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./only.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./only.db")
	}
	if cfg.Server.HTTPAddr != ":8420" {
		t.Errorf("Server.HTTPAddr = %q, want default %q", cfg.Server.HTTPAddr, ":8420")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %q/%q, want info/console defaults", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Auth.TokenExpiry != 24*time.Hour {
		t.Errorf("Auth.TokenExpiry = %v, want default %v", cfg.Auth.TokenExpiry, 24*time.Hour)
	}
	if cfg.Agents.MaxHistory != 1000 {
		t.Errorf("Agents.MaxHistory = %d, want default 1000", cfg.Agents.MaxHistory)
	}
	if cfg.Agents.ProcessTimeout != 300*time.Second {
		t.Errorf("Agents.ProcessTimeout = %v, want default %v", cfg.Agents.ProcessTimeout, 300*time.Second)
	}
	if cfg.MCP.ExecuteTimeout != 30*time.Second {
		t.Errorf("MCP.ExecuteTimeout = %v, want default %v", cfg.MCP.ExecuteTimeout, 30*time.Second)
	}
	if !cfg.MCP.WebSearch || !cfg.MCP.Research || !cfg.MCP.Notes {
		t.Error("built-in MCP servers should default to enabled")
	}
	if cfg.Models.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Models.Anthropic.Model = %q, want default", cfg.Models.Anthropic.Model)
	}
	if cfg.Models.Ollama.Enabled {
		t.Error("Models.Ollama.Enabled = true, want disabled by default")
	}
	if cfg.Models.Ollama.Timeout != 60*time.Second {
		t.Errorf("Models.Ollama.Timeout = %v, want default %v", cfg.Models.Ollama.Timeout, 60*time.Second)
	}
	if !cfg.Console.Enabled {
		t.Error("Console.Enabled = false, want enabled by default")
	}
	if cfg.Tailscale.Enabled {
		t.Error("Tailscale.Enabled = true, want disabled by default")
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	configContent := `
database:
  path: "./test.db"

mcp:
  web_search: false
  notes: false

console:
  enabled: false
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MCP.WebSearch {
		t.Error("MCP.WebSearch = true, want explicit false to win over the default")
	}
	if cfg.MCP.Notes {
		t.Error("MCP.Notes = true, want explicit false to win over the default")
	}
	if !cfg.MCP.Research {
		t.Error("MCP.Research = false, want the default to survive for absent keys")
	}
	if cfg.Console.Enabled {
		t.Error("Console.Enabled = true, want explicit false to win over the default")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_QUORUM_SECRET", "secret-from-env")
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-ant-from-env")

	configContent := `
database:
  path: "./test.db"

auth:
  jwt_secret: "${TEST_QUORUM_SECRET}"

models:
  anthropic:
    api_key: "${TEST_ANTHROPIC_KEY}"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env")
	}
	if cfg.Models.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("Models.Anthropic.APIKey = %q, want %q", cfg.Models.Anthropic.APIKey, "sk-ant-from-env")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configContent := `
database:
  path: "./test.db"

auth:
  jwt_secret: "${UNSET_VAR_FOR_TEST}"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "" {
		t.Errorf("Auth.JWTSecret = %q, want empty string for unset env var", cfg.Auth.JWTSecret)
	}
}

func TestLoad_DurationParsing(t *testing.T) {
	configContent := `
database:
  path: "./test.db"

auth:
  token_expiry: "1h30m"

agents:
  process_timeout: "90s"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expectedExpiry := time.Hour + 30*time.Minute
	if cfg.Auth.TokenExpiry != expectedExpiry {
		t.Errorf("Auth.TokenExpiry = %v, want %v", cfg.Auth.TokenExpiry, expectedExpiry)
	}
	if cfg.Agents.ProcessTimeout != 90*time.Second {
		t.Errorf("Agents.ProcessTimeout = %v, want %v", cfg.Agents.ProcessTimeout, 90*time.Second)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configContent := `
database:
  path: "./test.db"

agents:
  process_timeout: "not-a-duration"
`
	_, err := Load(writeConfig(t, configContent))
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "agents.process_timeout") {
		t.Errorf("Load() error = %q, want error naming agents.process_timeout", err.Error())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configContent := `
server:
  http_addr "missing colon"
`
	_, err := Load(writeConfig(t, configContent))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "empty database path",
			configContent: `
database:
  path: ""
`,
			wantErrSubstr: "database.path is required",
		},
		{
			name: "empty http_addr without tailscale",
			configContent: `
server:
  http_addr: ""
database:
  path: "./test.db"
`,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "ollama enabled without base_url",
			configContent: `
database:
  path: "./test.db"
models:
  ollama:
    enabled: true
    base_url: ""
`,
			wantErrSubstr: "models.ollama.base_url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.configContent))
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, Sample))
	if err != nil {
		t.Fatalf("Load() error for the sample config = %v", err)
	}
	if cfg.Server.HTTPAddr != ":8420" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, ":8420")
	}
	if cfg.Models.Ollama.Enabled {
		t.Error("sample config should leave ollama disabled")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefault_ReadsModelKeysFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("OPENAI_API_KEY", "sk-oai-env")

	cfg := Default()

	if cfg.Models.Anthropic.APIKey != "sk-ant-env" {
		t.Errorf("Models.Anthropic.APIKey = %q, want %q", cfg.Models.Anthropic.APIKey, "sk-ant-env")
	}
	if cfg.Models.OpenAI.APIKey != "sk-oai-env" {
		t.Errorf("Models.OpenAI.APIKey = %q, want %q", cfg.Models.OpenAI.APIKey, "sk-oai-env")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate cleanly, got %v", err)
	}
}

func TestValidate_TailscaleConfig(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErrSubstr string
	}{
		{
			name: "tailscale enabled allows empty http_addr",
			mutate: func(c *Config) {
				c.Server.HTTPAddr = ""
				c.Tailscale.Enabled = true
			},
		},
		{
			name: "tailscale enabled requires hostname",
			mutate: func(c *Config) {
				c.Tailscale.Enabled = true
				c.Tailscale.Hostname = ""
			},
			wantErrSubstr: "tailscale.hostname is required",
		},
		{
			name: "tailscale disabled requires http_addr",
			mutate: func(c *Config) {
				c.Server.HTTPAddr = ""
			},
			wantErrSubstr: "server.http_addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErrSubstr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestValidate_ValueChecks(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErrSubstr string
	}{
		{
			name:          "bad logging level",
			mutate:        func(c *Config) { c.Logging.Level = "verbose" },
			wantErrSubstr: "logging.level",
		},
		{
			name:          "bad logging format",
			mutate:        func(c *Config) { c.Logging.Format = "xml" },
			wantErrSubstr: "logging.format",
		},
		{
			name:          "zero max_history",
			mutate:        func(c *Config) { c.Agents.MaxHistory = 0 },
			wantErrSubstr: "agents.max_history",
		},
		{
			name:          "zero execute_timeout",
			mutate:        func(c *Config) { c.MCP.ExecuteTimeout = 0 },
			wantErrSubstr: "mcp.execute_timeout",
		},
		{
			name:          "unknown default provider",
			mutate:        func(c *Config) { c.Models.Default = "mistral" },
			wantErrSubstr: "models.default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}
