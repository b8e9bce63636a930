// ABOUTME: Hub orchestrator that wires subsystems and runs the HTTP server.
// ABOUTME: Manages store, models, tool servers, agents, sessions, and lifecycle.

package hub

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/agents"
	"github.com/2389/quorum-hub/internal/auth"
	"github.com/2389/quorum-hub/internal/config"
	"github.com/2389/quorum-hub/internal/console"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/mcpapi"
	"github.com/2389/quorum-hub/internal/memory"
	"github.com/2389/quorum-hub/internal/model"
	"github.com/2389/quorum-hub/internal/servers"
	"github.com/2389/quorum-hub/internal/store"
)

// Hub orchestrates the quorum-hub server components: the tool manager
// with its bundled servers, the agent registry, session memory, and the
// HTTP surface that exposes them.
type Hub struct {
	config   *config.Config
	logger   *slog.Logger
	store    store.Store
	models   *model.Manager
	tools    *mcp.Manager
	registry *agent.Registry
	sessions *memory.Manager
	authn    *auth.Authenticator

	// bundled holds the tool servers enabled by config; initialize
	// registers them with the tool manager before listeners start.
	bundled []mcp.Server

	httpServer  *http.Server
	tsnetServer *tsnet.Server
}

// initStore creates the store, honoring the QUORUM_DB_PATH override.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("QUORUM_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// buildModelManager registers every provider the config enables. A hub
// with no providers still runs; agents degrade to deterministic behavior.
func buildModelManager(cfg *config.Config, logger *slog.Logger) (*model.Manager, error) {
	m := model.NewManager(model.ManagerConfig{
		Logger:  logger,
		Default: cfg.Models.Default,
	})

	if cfg.Models.Anthropic.APIKey != "" {
		p := model.NewAnthropicProvider(func(o *model.AnthropicOptions) {
			o.APIKey = cfg.Models.Anthropic.APIKey
			if cfg.Models.Anthropic.Model != "" {
				o.Model = cfg.Models.Anthropic.Model
			}
		})
		if err := m.Register(p); err != nil {
			return nil, fmt.Errorf("registering anthropic provider: %w", err)
		}
	}

	if cfg.Models.OpenAI.APIKey != "" {
		p := model.NewOpenAIProvider(func(o *model.OpenAIOptions) {
			o.APIKey = cfg.Models.OpenAI.APIKey
			if cfg.Models.OpenAI.Model != "" {
				o.Model = cfg.Models.OpenAI.Model
			}
		})
		if err := m.Register(p); err != nil {
			return nil, fmt.Errorf("registering openai provider: %w", err)
		}
	}

	if cfg.Models.Ollama.Enabled {
		p := model.NewOllamaProvider(func(o *model.OllamaOptions) {
			o.BaseURL = cfg.Models.Ollama.BaseURL
			if cfg.Models.Ollama.Model != "" {
				o.Model = cfg.Models.Ollama.Model
			}
			if cfg.Models.Ollama.Timeout > 0 {
				o.HTTPClient = &http.Client{Timeout: cfg.Models.Ollama.Timeout}
			}
		})
		if err := m.Register(p); err != nil {
			return nil, fmt.Errorf("registering ollama provider: %w", err)
		}
	}

	return m, nil
}

// bundledServers builds the tool servers the config enables.
func bundledServers(cfg *config.Config, s store.Store, logger *slog.Logger) []mcp.Server {
	var list []mcp.Server
	if cfg.MCP.WebSearch {
		list = append(list, servers.NewWebSearchServer(logger))
	}
	if cfg.MCP.Research {
		list = append(list, servers.NewResearchServer(logger))
	}
	if cfg.MCP.Notes {
		list = append(list, servers.NewNotesServer(s, logger))
	}
	return list
}

// New creates a hub from the given configuration. The version string is
// reported to MCP clients during the initialize handshake.
func New(cfg *config.Config, logger *slog.Logger, version string) (*Hub, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	models, err := buildModelManager(cfg, logger)
	if err != nil {
		return nil, err
	}

	tools := mcp.NewManager(mcp.ManagerConfig{
		Logger:   logger,
		Timeout:  cfg.MCP.ExecuteTimeout,
		Recorder: newStoreRecorder(s),
	})

	registry := agent.NewRegistry(agent.RegistryConfig{
		Logger: logger,
		Table: agents.Bundled(agents.Deps{
			Logger:     logger,
			Tools:      tools,
			Models:     models,
			MaxHistory: cfg.Agents.MaxHistory,
		}),
	})

	sessions := memory.NewManager(memory.ManagerConfig{
		Logger:      logger,
		Store:       s,
		MaxMessages: cfg.Agents.MaxHistory,
	})

	authn := auth.NewAuthenticator(auth.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		Store:     s,
		Logger:    logger,
	})

	h := &Hub{
		config:   cfg,
		logger:   logger.With("component", "hub"),
		store:    s,
		models:   models,
		tools:    tools,
		registry: registry,
		sessions: sessions,
		authn:    authn,
		bundled:  bundledServers(cfg, s, logger),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /health/ready", h.handleReady)

	h.registerAPIRoutes(mux)

	// MCP endpoint for external clients; it authenticates per session
	// rather than through the header middleware.
	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Tools:   tools,
		Auth:    authn,
		Logger:  logger,
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP endpoint: %w", err)
	}
	mcpServer.RegisterRoutes(mux)

	if cfg.Console.Enabled {
		con := console.NewConsole(console.Config{
			Logger:   logger,
			Tools:    tools,
			Registry: registry,
			Memory:   sessions,
		})
		con.RegisterRoutes(mux)
		logger.Info("debug console enabled at /console")
	}

	h.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h, nil
}

// initialize brings up the tool servers and agents. Run calls this
// before listeners start; /health/ready reports 503 until it completes.
func (h *Hub) initialize(ctx context.Context) error {
	if err := h.tools.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing tool manager: %w", err)
	}

	for _, srv := range h.bundled {
		if err := h.tools.RegisterServer(ctx, srv); err != nil {
			return fmt.Errorf("registering server %q: %w", srv.Name(), err)
		}
	}

	if err := h.registry.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing agent registry: %w", err)
	}

	serverCount, toolCount := h.tools.Counts()
	h.logger.Info("hub initialized",
		"servers", serverCount,
		"tools", toolCount,
		"agents", h.registry.Len(),
	)
	return nil
}

// Run initializes the hub, starts the HTTP server, and blocks until the
// context is canceled or the server fails. Returns nil on graceful
// shutdown, or the first server error.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.initialize(ctx); err != nil {
		return err
	}

	ln, err := h.setupListener(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := h.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		h.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		h.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := h.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the run context is
// already canceled.
func (h *Hub) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Shutdown(ctx)
}

// setupListener creates the HTTP listener (Tailscale or TCP).
func (h *Hub) setupListener(ctx context.Context) (net.Listener, error) {
	if h.config.Tailscale.Enabled {
		if h.config.Server.HTTPAddr != "" {
			h.logger.Warn("server.http_addr is ignored when tailscale is enabled",
				"http_addr", h.config.Server.HTTPAddr,
			)
		}
		return h.setupTailscaleListener(ctx)
	}

	h.logger.Info("starting hub", "http_addr", h.config.Server.HTTPAddr)
	ln, err := net.Listen("tcp", h.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// resolveTailscaleStateDir returns the state directory, using the
// default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "quorum-hub", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable (get one at https://login.tailscale.com/admin/settings/keys)")
	}
	return authKey, nil
}

// setupTailscaleListener creates a tsnet node and returns its HTTP
// listener, with TLS when tailscale.https is set.
func (h *Hub) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := h.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	h.tsnetServer = &tsnet.Server{
		Hostname: tsCfg.Hostname,
		Dir:      stateDir,
		AuthKey:  authKey,
	}

	h.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir)
	status, err := h.tsnetServer.Up(ctx)
	if err != nil {
		_ = h.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	h.logTailscaleStatus(tsCfg.Hostname, status)

	if tsCfg.HTTPS {
		return h.createTailscaleTLSListener()
	}

	ln, err := h.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = h.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (h *Hub) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		h.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = strings.TrimSuffix(status.Self.DNSName, ".")
	}
	h.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// createTailscaleTLSListener creates a TLS listener using Tailscale's
// auto-provisioned certs.
func (h *Hub) createTailscaleTLSListener() (net.Listener, error) {
	h.logger.Info("enabling HTTPS with Tailscale certs on :443")
	ln, err := h.tsnetServer.Listen("tcp", ":443")
	if err != nil {
		_ = h.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTPS port: %w", err)
	}
	lc, err := h.tsnetServer.LocalClient()
	if err != nil {
		_ = ln.Close()
		_ = h.tsnetServer.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and cleans up subsystems in dependency
// order: agents first, then the tool manager, then sessions, and last
// the store they write through.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("shutting down hub")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", h.httpServer.Shutdown(ctx))

	if h.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", h.tsnetServer.Close())
	}

	errs = appendCloseError(errs, "registry cleanup", h.registry.Cleanup(ctx))
	errs = appendCloseError(errs, "tool manager cleanup", h.tools.Cleanup(ctx))
	errs = appendCloseError(errs, "session save", h.sessions.SaveAll(ctx))
	h.sessions.Close()
	errs = appendCloseError(errs, "store close", h.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 once the tool manager is initialized and at
// least one agent is registered.
func (h *Hub) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.tools.Initialized() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("initializing"))
		return
	}
	n := h.registry.Len()
	if n == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no agents registered"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d agents)", n)
}
