// Package config handles configuration loading for quorum-hub.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Every setting has a default, so a missing key never fails;
// Load unmarshals the file over Default and validates the result.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${QUORUM_JWT_SECRET}"
//
// Syntax is ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	agents:
//	  process_timeout: "300s"
//	mcp:
//	  execute_timeout: "30s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server and storage:
//
//	server:
//	  http_addr: ":8420"
//	database:
//	  path: "quorum.db"
//
// Authentication (disabled until a secret is set):
//
//	auth:
//	  jwt_secret: "${QUORUM_JWT_SECRET}"
//	  token_expiry: "24h"
//
// Agents and tools:
//
//	agents:
//	  max_history: 1000
//	  process_timeout: "300s"
//	mcp:
//	  execute_timeout: "30s"
//	  web_search: true
//	  research: true
//	  notes: true
//
// Model providers (a provider with no API key is not registered):
//
//	models:
//	  anthropic:
//	    api_key: "${ANTHROPIC_API_KEY}"
//	    model: "claude-sonnet-4-20250514"
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//	    model: "gpt-4o-mini"
//	  ollama:
//	    enabled: false
//	    base_url: "http://localhost:11434"
//	    model: "llama3.2:1b"
//	    timeout: "60s"
//
// Tailscale (serve on a tailnet instead of a TCP listener):
//
//	tailscale:
//	  enabled: false
//	  hostname: "quorum-hub"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: false
//
// Logging and console:
//
//	logging:
//	  level: "info"     # debug, info, warn, error
//	  format: "console" # console, json
//	console:
//	  enabled: true
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("quorum.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Run with pure defaults:
//
//	cfg := config.Default()
package config
