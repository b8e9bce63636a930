// ABOUTME: Commented starter configuration written by the init command
// ABOUTME: Kept in sync with the defaults in Default

package config

// Sample is a commented starter configuration. Every value shown matches
// the built-in default, so the file can be trimmed to just the sections
// being changed.
const Sample = `# quorum-hub configuration.
# Values of the form ${VAR} are expanded from the environment at load time;
# unset variables expand to the empty string.

server:
  http_addr: ":8420"

database:
  path: "quorum.db"

logging:
  level: "info"     # debug, info, warn, error
  format: "console" # console, json

auth:
  # API authentication stays disabled until a secret is set.
  jwt_secret: "${QUORUM_JWT_SECRET}"
  token_expiry: "24h"

agents:
  max_history: 1000
  process_timeout: "300s"

mcp:
  execute_timeout: "30s"
  web_search: true
  research: true
  notes: true

models:
  # Uncomment to pin the default provider instead of letting a sole
  # configured provider win.
  # default: "anthropic"
  anthropic:
    api_key: "${ANTHROPIC_API_KEY}"
    model: "claude-sonnet-4-20250514"
  openai:
    api_key: "${OPENAI_API_KEY}"
    model: "gpt-4o-mini"
  ollama:
    enabled: false
    base_url: "http://localhost:11434"
    model: "llama3.2:1b"
    timeout: "60s"

tailscale:
  enabled: false
  hostname: "quorum-hub"
  state_dir: ""
  auth_key: "${TS_AUTHKEY}"
  https: false

console:
  enabled: true
`
