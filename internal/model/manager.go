// ABOUTME: Registry of model providers keyed by provider name.
// ABOUTME: Routes generation requests, resolves the default provider, and runs latency probes.

package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Manager holds the registered providers and routes requests to them.
type Manager struct {
	logger *slog.Logger
	def    string

	mu        sync.RWMutex
	providers map[string]Provider
}

// ManagerConfig configures a Manager. Default names the provider used when a
// caller does not name one; with a single registered provider it may stay
// empty.
type ManagerConfig struct {
	Logger  *slog.Logger
	Default string
}

// NewManager creates an empty provider registry.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:    logger.With("component", "model-manager"),
		def:       cfg.Default,
		providers: make(map[string]Provider),
	}
}

// Register adds a provider under its own name.
func (m *Manager) Register(p Provider) error {
	name := p.Name()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.providers[name]; exists {
		return fmt.Errorf("%w: %q", ErrProviderExists, name)
	}
	m.providers[name] = p

	m.logger.Info("model provider registered",
		"provider", name,
		"models", len(p.Models()),
	)
	return nil
}

// Provider looks up a registered provider by name.
func (m *Manager) Provider(name string) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[name]
	return p, ok
}

// Default resolves the provider used when a request names none: the
// configured default, or the sole registered provider.
func (m *Manager) Default() (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.def != "" {
		p, ok := m.providers[m.def]
		return p, ok
	}
	if len(m.providers) == 1 {
		for _, p := range m.providers {
			return p, true
		}
	}
	return nil, false
}

// Providers returns the registered provider names, sorted.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels returns every model every provider serves, ordered by provider
// then model id.
func (m *Manager) ListModels() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ModelInfo
	for _, p := range m.providers {
		out = append(out, p.Models()...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Generate routes a request to the named provider, or to the default when
// provider is empty.
func (m *Manager) Generate(ctx context.Context, provider string, req *Request) (*Result, error) {
	p, err := m.resolve(provider)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, req)
}

// Probe measures round-trip latency with a minimal generation against the
// named provider and model.
func (m *Manager) Probe(ctx context.Context, provider, modelID string) (time.Duration, error) {
	p, err := m.resolve(provider)
	if err != nil {
		return 0, err
	}

	req := &Request{
		Model:     modelID,
		Messages:  []ChatMessage{{Role: RoleUser, Content: "ping"}},
		MaxTokens: 8,
	}
	start := time.Now()
	if _, err := p.Generate(ctx, req); err != nil {
		return time.Since(start), fmt.Errorf("probe %s: %w", p.Name(), err)
	}
	elapsed := time.Since(start)

	m.logger.Debug("model probe completed",
		"provider", p.Name(),
		"model", modelID,
		"elapsed", elapsed,
	)
	return elapsed, nil
}

func (m *Manager) resolve(provider string) (Provider, error) {
	if provider == "" {
		p, ok := m.Default()
		if !ok {
			return nil, fmt.Errorf("%w: no default provider configured", ErrProviderNotFound)
		}
		return p, nil
	}
	p, ok := m.Provider(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, provider)
	}
	return p, nil
}
