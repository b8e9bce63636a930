// ABOUTME: Entry point for the quorum-hub server binary.
// ABOUTME: Provides serve, init, bootstrap, health, agents, and tools subcommands.
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/quorum-hub/internal/auth"
	"github.com/2389/quorum-hub/internal/config"
	"github.com/2389/quorum-hub/internal/hub"
	"github.com/2389/quorum-hub/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                                     _             _
  __ _  _   _   ___   _ __  _   _  _ __ ___         | |__   _   _ | |__
 / _' || | | | / _ \ | '__|| | | || '_ ' _ \  _____ | '_ \ | | | || '_ \
| (_| || |_| || (_) || |   | |_| || | | | | ||_____|| | | || |_| || |_) |
 \__, | \__,_| \___/ |_|    \__,_||_| |_| |_|       |_| |_| \__,_||_.__/
    |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(os.Args[2:])
	case "bootstrap":
		err = runBootstrap(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "agents":
		err = runAgents(ctx)
	case "tools":
		err = runTools(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: quorum-hub <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve      Start the hub server")
	fmt.Println("  init       Generate a config file (--defaults skips the prompts)")
	fmt.Println("  bootstrap  Create a config and mint the first API token")
	fmt.Println("  health     Check a running hub's health and tool manager status")
	fmt.Println("  agents     Show the readiness line from a running hub")
	fmt.Println("  tools      List the tools a running hub exposes")
	fmt.Println()
	fmt.Println("Config is read from QUORUM_CONFIG, then $XDG_CONFIG_HOME/quorum/hub.yaml,")
	fmt.Println("then ~/.config/quorum/hub.yaml. health and tools send QUORUM_TOKEN as a")
	fmt.Println("bearer token when it is set.")
}

// getConfigPath resolves the config file location. QUORUM_CONFIG wins,
// then the XDG config dir, then ~/.config/quorum/hub.yaml.
func getConfigPath() string {
	if path := os.Getenv("QUORUM_CONFIG"); path != "" {
		return path
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum", "hub.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "quorum", "hub.yaml")
	}
	return "hub.yaml"
}

// getDataPath resolves where generated databases live.
func getDataPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "quorum")
	}
	return "data"
}

// loadOrDefault reads the config file when it exists and falls back to
// built-in defaults when it does not. The bool reports which happened.
func loadOrDefault(configPath string) (*config.Config, bool, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.Default(), false, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, fromFile, err := loadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	if fromFile {
		fmt.Printf("Config:    %s\n", configPath)
	} else {
		fmt.Printf("Config:    defaults (no file at %s)\n", configPath)
	}
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.HTTPS {
			gray.Print(" (https)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}

	fmt.Println()

	logger.Info("starting quorum-hub",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	h, err := hub.New(cfg, logger, version)
	if err != nil {
		return fmt.Errorf("creating hub: %w", err)
	}
	return h.Run(ctx)
}

// setupLogger builds the process logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler writes colorized single-line logs for interactive use.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	b.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		b.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		b.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		b.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		b.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		b.WriteString("??? ")
	}

	b.WriteString(r.Message)

	appendAttr := func(a slog.Attr) {
		b.WriteString(color.HiBlackString(" " + a.Key + "="))
		b.WriteString(a.Value.String())
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})

	b.WriteString("\n")
	fmt.Print(b.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := &colorHandler{level: h.level, groups: h.groups}
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return nh
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	nh := &colorHandler{level: h.level, attrs: h.attrs}
	nh.groups = append(append([]string{}, h.groups...), name)
	return nh
}

// serverURL builds a local URL for the configured HTTP address. A bare
// ":port" listen address dials localhost.
func serverURL(addr, path string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + path
}

// localGet issues a GET against the local hub. When QUORUM_TOKEN is set it
// rides along as a bearer token so the probe works with auth enabled.
func localGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if token := os.Getenv("QUORUM_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return resp, nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadOrDefault(getConfigPath())
	if err != nil {
		return err
	}

	resp, err := localGet(ctx, serverURL(cfg.Server.HTTPAddr, "/health"))
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	fmt.Println("hub: healthy")

	resp, err = localGet(ctx, serverURL(cfg.Server.HTTPAddr, "/api/mcp/health"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var health struct {
			ManagerStatus string `json:"manager_status"`
			TotalServers  int    `json:"total_servers"`
			TotalTools    int    `json:"total_tools"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return fmt.Errorf("decoding tool manager health: %w", err)
		}
		fmt.Printf("tools: %s (%d servers, %d tools)\n", health.ManagerStatus, health.TotalServers, health.TotalTools)
	case http.StatusUnauthorized:
		fmt.Println("tools: auth required (set QUORUM_TOKEN for details)")
	default:
		return fmt.Errorf("tool manager unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func runAgents(ctx context.Context) error {
	cfg, _, err := loadOrDefault(getConfigPath())
	if err != nil {
		return err
	}

	resp, err := localGet(ctx, serverURL(cfg.Server.HTTPAddr, "/health/ready"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(string(body)))
	return nil
}

func runTools(ctx context.Context) error {
	cfg, _, err := loadOrDefault(getConfigPath())
	if err != nil {
		return err
	}

	resp, err := localGet(ctx, serverURL(cfg.Server.HTTPAddr, "/api/tools"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("authentication required: set QUORUM_TOKEN to an API token or JWT")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing tools: status %d", resp.StatusCode)
	}

	var payload struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			ServerName  string `json:"server_name"`
		} `json:"tools"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if payload.Count == 0 {
		fmt.Println("No tools registered.")
		return nil
	}
	fmt.Printf("%d tools:\n", payload.Count)
	for _, t := range payload.Tools {
		fmt.Printf("  %-18s %-22s %s\n", t.Name, t.ServerName, t.Description)
	}
	return nil
}

// runBootstrap creates a config file if none exists, opens the database,
// and mints the first API token. Running it twice is an error once any
// token exists.
func runBootstrap(ctx context.Context, args []string) error {
	var name string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--name" || arg == "-n":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			i++
			name = args[i]
		case strings.HasPrefix(arg, "--name="):
			name = strings.TrimPrefix(arg, "--name=")
		case strings.HasPrefix(arg, "-n="):
			name = strings.TrimPrefix(arg, "-n=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("--name is required (a label for the first API token, e.g. --name admin)")
	}
	if len(name) > 100 {
		return fmt.Errorf("name must be 100 characters or fewer")
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	configPath := getConfigPath()

	var cfg *config.Config
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating jwt secret: %w", err)
		}
		jwtSecret := base64.StdEncoding.EncodeToString(secret)

		dataPath := getDataPath()
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		dbPath := filepath.Join(dataPath, "hub.db")
		content := fmt.Sprintf(`# quorum-hub configuration
# Generated by quorum-hub bootstrap

server:
  http_addr: "localhost:8420"

database:
  path: %q

auth:
  jwt_secret: %q

logging:
  level: "info"
  format: "console"
`, dbPath, jwtSecret)

		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		green.Printf("  ✓ Created config: %s\n", configPath)

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading generated config: %w", err)
		}
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is not set in %s; bootstrap needs auth enabled", configPath)
		}
		cyan.Printf("  Using existing config: %s\n", configPath)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()
	green.Printf("  ✓ Database: %s\n", cfg.Database.Path)

	existing, err := s.ListAPITokens(ctx)
	if err != nil {
		return fmt.Errorf("checking existing tokens: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("bootstrap already complete: %d token(s) exist", len(existing))
	}

	raw, tok, err := auth.MintAPIToken(ctx, s, name)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	tokenPath := filepath.Join(filepath.Dir(configPath), "token")
	if err := os.WriteFile(tokenPath, []byte(raw+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	green.Printf("  ✓ Saved token: %s\n", tokenPath)

	fmt.Println()
	green.Println("  Bootstrap complete!")
	fmt.Println()
	cyan.Println("  API Token")
	cyan.Println("  ---------------")
	fmt.Printf("  ID:      %s\n", tok.ID)
	fmt.Printf("  Name:    %s\n", tok.Name)
	fmt.Printf("  Prefix:  %s\n", tok.Prefix)
	fmt.Printf("  File:    %s\n", tokenPath)
	fmt.Println()
	yellow.Println("  Ready to go:")
	fmt.Println("    quorum-hub serve")
	fmt.Printf("    curl -H \"Authorization: Bearer $(cat %s)\" %s\n", tokenPath, serverURL(cfg.Server.HTTPAddr, "/api/agents"))
	fmt.Println()
	return nil
}

// runInit walks through the config options interactively and writes a
// YAML file. With --defaults it writes the commented sample config
// instead of prompting. Unlike bootstrap it touches no database.
func runInit(args []string) error {
	for _, arg := range args {
		switch arg {
		case "--defaults", "-d":
			return writeSampleConfig(getConfigPath())
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("quorum-hub init: interactive config generator")
	fmt.Println()

	configPath := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(configPath); err == nil {
		answer := prompt(reader, fmt.Sprintf("%s exists, overwrite? (yes/no)", configPath), "no")
		if answer != "yes" && answer != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP listen address", "localhost:8420")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", filepath.Join(getDataPath(), "hub.db"))

	fmt.Println("\n--- Tool Servers ---")
	webSearch := promptBool(reader, "Enable the web search server?", true)
	research := promptBool(reader, "Enable the research server?", true)
	notes := promptBool(reader, "Enable the notes server?", true)

	fmt.Println("\n--- Model Providers ---")
	fmt.Println("API keys are read from ANTHROPIC_API_KEY and OPENAI_API_KEY at startup.")
	defaultModel := prompt(reader, "Default provider (anthropic/openai/ollama, empty for auto)", "")

	fmt.Println("\n--- Auth Configuration ---")
	authEnabled := promptBool(reader, "Require bearer tokens on /api routes?", false)
	jwtSecret := ""
	if authEnabled {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating jwt secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secret)
		fmt.Println("Generated a random jwt_secret; mint tokens with `quorum-hub bootstrap`.")
	}

	fmt.Println("\n--- Tailscale Configuration ---")
	tsEnabled := promptBool(reader, "Serve over Tailscale?", false)
	tsHostname := "quorum-hub"
	tsAuthKey := ""
	tsHTTPS := false
	if tsEnabled {
		tsHostname = prompt(reader, "Tailscale hostname", "quorum-hub")
		tsAuthKey = prompt(reader, "Tailscale auth key (empty to use TS_AUTHKEY)", "")
		tsHTTPS = promptBool(reader, "Enable HTTPS via Tailscale certs?", false)
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (console/json)", "console")

	fmt.Println("\n--- Console ---")
	consoleEnabled := promptBool(reader, "Enable the debug console at /console?", true)

	var b strings.Builder
	b.WriteString("# quorum-hub configuration\n")
	b.WriteString("# Generated by quorum-hub init\n\n")
	fmt.Fprintf(&b, "server:\n  http_addr: %q\n\n", httpAddr)
	fmt.Fprintf(&b, "database:\n  path: %q\n\n", dbPath)
	fmt.Fprintf(&b, "mcp:\n  web_search: %t\n  research: %t\n  notes: %t\n\n", webSearch, research, notes)
	if defaultModel != "" {
		fmt.Fprintf(&b, "models:\n  default: %q\n\n", defaultModel)
	}
	if jwtSecret != "" {
		fmt.Fprintf(&b, "auth:\n  jwt_secret: %q\n\n", jwtSecret)
	}
	fmt.Fprintf(&b, "tailscale:\n  enabled: %t\n", tsEnabled)
	if tsEnabled {
		fmt.Fprintf(&b, "  hostname: %q\n", tsHostname)
		if tsAuthKey != "" {
			fmt.Fprintf(&b, "  auth_key: %q\n", tsAuthKey)
		}
		fmt.Fprintf(&b, "  https: %t\n", tsHTTPS)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "logging:\n  level: %q\n  format: %q\n\n", logLevel, logFormat)
	fmt.Fprintf(&b, "console:\n  enabled: %t\n", consoleEnabled)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", configPath)
	fmt.Println("Run `quorum-hub serve` to start the hub.")
	return nil
}

// writeSampleConfig writes the commented starter config. It refuses to
// overwrite an existing file.
func writeSampleConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists; remove it or run init without --defaults", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(config.Sample), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("Run `quorum-hub serve` to start the hub.")
	return nil
}

// prompt asks a question, showing the default when present, and returns
// the trimmed answer (or the default on empty input or read error).
func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return defaultVal
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

func promptBool(reader *bufio.Reader, question string, defaultVal bool) bool {
	def := "no"
	if defaultVal {
		def = "yes"
	}
	answer := strings.ToLower(prompt(reader, question+" (yes/no)", def))
	return answer == "yes" || answer == "y"
}
