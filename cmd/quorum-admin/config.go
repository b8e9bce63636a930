// ABOUTME: Configuration loading for the quorum-admin CLI.
// ABOUTME: Loads TOML config from the XDG path with environment variable expansion.

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Hub  HubConfig  `toml:"hub"`
	Chat ChatConfig `toml:"chat"`
}

type HubConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

type ChatConfig struct {
	Agent string `toml:"agent"`
}

// loadConfig reads the admin config file, expanding environment
// variables. A missing file yields an empty config; environment
// variables and defaults fill the rest.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that configured fields are usable.
func (c *Config) Validate() error {
	if c.Hub.URL != "" {
		u, err := url.Parse(c.Hub.URL)
		if err != nil {
			return fmt.Errorf("hub.url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("hub.url must use http or https scheme")
		}
	}
	return nil
}

// adminConfigPath returns the path to the admin config file.
// Priority: QUORUM_ADMIN_CONFIG > XDG_CONFIG_HOME/quorum/admin.toml >
// ~/.config/quorum/admin.toml
func adminConfigPath() string {
	if path := os.Getenv("QUORUM_ADMIN_CONFIG"); path != "" {
		return path
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "admin.toml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "quorum", "admin.toml")
}
