// ABOUTME: Configuration loading for quorum-hub from YAML files
// ABOUTME: Handles env var expansion, duration parsing, defaults, and validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the hub process.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Agents    AgentsConfig    `yaml:"agents"`
	MCP       MCPConfig       `yaml:"mcp"`
	Models    ModelsConfig    `yaml:"models"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Console   ConsoleConfig   `yaml:"console"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// AuthConfig holds authentication settings. Authentication is disabled
// until a JWT secret is configured.
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	TokenExpiryRaw string `yaml:"token_expiry"`

	TokenExpiry time.Duration `yaml:"-"`
}

// AgentsConfig holds per-agent runtime settings.
type AgentsConfig struct {
	MaxHistory        int    `yaml:"max_history"`
	ProcessTimeoutRaw string `yaml:"process_timeout"`

	ProcessTimeout time.Duration `yaml:"-"`
}

// MCPConfig controls the tool layer: which built-in servers register and
// how long a single tool execution may run.
type MCPConfig struct {
	ExecuteTimeoutRaw string `yaml:"execute_timeout"`
	WebSearch         bool   `yaml:"web_search"`
	Research          bool   `yaml:"research"`
	Notes             bool   `yaml:"notes"`

	ExecuteTimeout time.Duration `yaml:"-"`
}

// ModelsConfig holds model provider settings. A provider with no API key
// (or, for ollama, enabled: false) is not registered.
type ModelsConfig struct {
	Default   string          `yaml:"default"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Ollama    OllamaConfig    `yaml:"ollama"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutRaw string `yaml:"timeout"`

	Timeout time.Duration `yaml:"-"`
}

// TailscaleConfig holds tsnet settings for serving on a tailnet instead of
// a plain TCP listener.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
	AuthKey  string `yaml:"auth_key"`
	HTTPS    bool   `yaml:"https"`
}

// ConsoleConfig controls the web console.
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when settings are absent from the
// file. Model API keys come from the environment so a bare "serve" run picks
// them up without any config file at all.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: ":8420"},
		Database: DatabaseConfig{Path: "quorum.db"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Auth: AuthConfig{
			TokenExpiryRaw: "24h",
			TokenExpiry:    24 * time.Hour,
		},
		Agents: AgentsConfig{
			MaxHistory:        1000,
			ProcessTimeoutRaw: "300s",
			ProcessTimeout:    300 * time.Second,
		},
		MCP: MCPConfig{
			ExecuteTimeoutRaw: "30s",
			ExecuteTimeout:    30 * time.Second,
			WebSearch:         true,
			Research:          true,
			Notes:             true,
		},
		Models: ModelsConfig{
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  "claude-sonnet-4-20250514",
			},
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  "gpt-4o-mini",
			},
			Ollama: OllamaConfig{
				BaseURL:    "http://localhost:11434",
				Model:      "llama3.2:1b",
				TimeoutRaw: "60s",
				Timeout:    60 * time.Second,
			},
		},
		Tailscale: TailscaleConfig{
			Hostname: "quorum-hub",
			AuthKey:  os.Getenv("TS_AUTHKEY"),
		},
		Console: ConsoleConfig{Enabled: true},
	}
}

// Load reads a YAML config file, expands ${VAR} references against the
// environment, and fills anything unset from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	// Unmarshal over the defaults: keys absent from the file keep their
	// default value, while an explicit false or empty string wins.
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} references with values from the
// environment. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		return os.Getenv(name)
	})
}

// parseDurations converts the raw string duration fields into
// time.Duration values.
func (c *Config) parseDurations() error {
	var err error

	if c.Auth.TokenExpiry, err = time.ParseDuration(c.Auth.TokenExpiryRaw); err != nil {
		return fmt.Errorf("parsing auth.token_expiry %q: %w", c.Auth.TokenExpiryRaw, err)
	}
	if c.Agents.ProcessTimeout, err = time.ParseDuration(c.Agents.ProcessTimeoutRaw); err != nil {
		return fmt.Errorf("parsing agents.process_timeout %q: %w", c.Agents.ProcessTimeoutRaw, err)
	}
	if c.MCP.ExecuteTimeout, err = time.ParseDuration(c.MCP.ExecuteTimeoutRaw); err != nil {
		return fmt.Errorf("parsing mcp.execute_timeout %q: %w", c.MCP.ExecuteTimeoutRaw, err)
	}
	if c.Models.Ollama.Timeout, err = time.ParseDuration(c.Models.Ollama.TimeoutRaw); err != nil {
		return fmt.Errorf("parsing models.ollama.timeout %q: %w", c.Models.Ollama.TimeoutRaw, err)
	}

	return nil
}

// Validate checks required fields and value ranges, returning the first
// problem found.
func (c *Config) Validate() error {
	if c.Tailscale.Enabled {
		if c.Tailscale.Hostname == "" {
			return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
		}
	} else {
		if c.Server.HTTPAddr == "" {
			return fmt.Errorf("server.http_addr is required")
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}

	if c.Auth.TokenExpiry <= 0 {
		return fmt.Errorf("auth.token_expiry must be positive")
	}
	if c.Agents.MaxHistory <= 0 {
		return fmt.Errorf("agents.max_history must be positive (got %d)", c.Agents.MaxHistory)
	}
	if c.Agents.ProcessTimeout <= 0 {
		return fmt.Errorf("agents.process_timeout must be positive")
	}
	if c.MCP.ExecuteTimeout <= 0 {
		return fmt.Errorf("mcp.execute_timeout must be positive")
	}

	switch c.Models.Default {
	case "", "anthropic", "openai", "ollama":
	default:
		return fmt.Errorf("models.default must be one of anthropic, openai, ollama (got %q)", c.Models.Default)
	}

	if c.Models.Ollama.Enabled && c.Models.Ollama.BaseURL == "" {
		return fmt.Errorf("models.ollama.base_url is required when ollama is enabled")
	}

	return nil
}
