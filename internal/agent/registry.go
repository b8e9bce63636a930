// ABOUTME: Registry of running agents seeded from a static constructor table.
// ABOUTME: Handles registration, scored discovery, per-agent reload, and cleanup.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultDiscoverLimit bounds Discover results when the caller passes no
// limit.
const DefaultDiscoverLimit = 10

// Constructor builds one agent instance. The registry runs the table at
// Initialize and again on Reload.
type Constructor func(ctx context.Context) (Agent, error)

// Snapshot is the registry's metadata view of one agent, taken at
// registration time. Capability support is derived by type assertion.
type Snapshot struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Type               string    `json:"type"`
	Capabilities       []string  `json:"capabilities"`
	ModelProvider      string    `json:"model_provider,omitempty"`
	ModelName          string    `json:"model_name,omitempty"`
	Status             string    `json:"status"`
	SupportsStreaming  bool      `json:"supports_streaming"`
	SupportsMultimodal bool      `json:"supports_multimodal"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Registry coordinates the running agents and answers discovery queries.
type Registry struct {
	logger *slog.Logger
	table  []Constructor

	mu          sync.RWMutex
	agents      map[string]Agent
	meta        map[string]*Snapshot
	order       []string
	initialized bool
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Logger for registry activity. Defaults to slog.Default().
	Logger *slog.Logger

	// Table holds the constructors run at Initialize and Reload.
	Table []Constructor
}

// NewRegistry creates an empty registry with the given constructor table.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger.With("component", "agent-registry"),
		table:  cfg.Table,
		agents: make(map[string]Agent),
		meta:   make(map[string]*Snapshot),
	}
}

// Initialize runs the constructor table. A failing constructor is logged and
// skipped; the rest still register. Idempotent.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	r.runTable(ctx)

	r.mu.Lock()
	r.initialized = true
	count := len(r.agents)
	r.mu.Unlock()

	r.logger.Info("agent registry initialized", "agents", count)
	return nil
}

// Initialized reports whether Initialize has completed.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Register adds an agent, initializing it first when needed. An
// initialization failure propagates and the agent is not recorded.
func (r *Registry) Register(ctx context.Context, a Agent) error {
	id := a.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("%w: %q", ErrAgentExists, id)
	}

	if !a.Initialized() {
		if err := a.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize agent %q: %w", id, err)
		}
	}

	snap := newSnapshot(a)
	r.agents[id] = a
	r.meta[id] = snap
	r.order = append(r.order, id)

	r.logger.Info("=== AGENT REGISTERED ===",
		"agent_id", id,
		"name", snap.Name,
		"capabilities", snap.Capabilities,
		"total_agents", len(r.agents),
	)
	return nil
}

// Unregister removes an agent after running its cleanup. A cleanup failure is
// logged; removal proceeds regardless.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterLocked(ctx, id)
}

func (r *Registry) unregisterLocked(ctx context.Context, id string) error {
	a, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}

	if err := a.Cleanup(ctx); err != nil {
		r.logger.Warn("agent cleanup failed", "agent_id", id, "error", err)
	}

	delete(r.agents, id)
	delete(r.meta, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("=== AGENT UNREGISTERED ===",
		"agent_id", id,
		"total_agents", len(r.agents),
	)
	return nil
}

// Get retrieves a registered agent by ID.
func (r *Registry) Get(id string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}
	return a, nil
}

// Describe returns the metadata snapshot for one agent.
func (r *Registry) Describe(id string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.meta[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}
	return cloneSnapshot(snap), nil
}

// List returns agent snapshots in registration order, optionally filtered by
// type and status. Empty filters match everything.
func (r *Registry) List(typeFilter, statusFilter string) []*Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Snapshot, 0, len(r.order))
	for _, id := range r.order {
		snap := r.meta[id]
		if typeFilter != "" && !strings.EqualFold(snap.Type, typeFilter) {
			continue
		}
		if statusFilter != "" && !strings.EqualFold(snap.Status, statusFilter) {
			continue
		}
		out = append(out, cloneSnapshot(snap))
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Discover scores agents against a free-text query: name substring counts 10,
// description 5, each query token found in a capability 3, type substring 2.
// Zero scores are excluded; ties keep registration order.
func (r *Registry) Discover(query string, limit int) []*Snapshot {
	if limit <= 0 {
		limit = DefaultDiscoverLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))
	tokens := strings.Fields(q)

	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		snap  *Snapshot
		score int
	}
	var matches []scored
	for _, id := range r.order {
		snap := r.meta[id]
		score := discoveryScore(snap, q, tokens)
		if score > 0 {
			matches = append(matches, scored{snap: snap, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*Snapshot, len(matches))
	for i, m := range matches {
		out[i] = cloneSnapshot(m.snap)
	}
	return out
}

func discoveryScore(snap *Snapshot, q string, tokens []string) int {
	if q == "" {
		return 0
	}
	score := 0
	if strings.Contains(strings.ToLower(snap.Name), q) {
		score += 10
	}
	if strings.Contains(strings.ToLower(snap.Description), q) {
		score += 5
	}
	for _, token := range tokens {
		for _, capability := range snap.Capabilities {
			if strings.Contains(strings.ToLower(capability), token) {
				score += 3
				break
			}
		}
	}
	if strings.Contains(strings.ToLower(snap.Type), q) {
		score += 2
	}
	return score
}

// Reload tears one agent down and re-runs the constructor table to bring it
// back. Constructors whose IDs are still registered are skipped.
func (r *Registry) Reload(ctx context.Context, id string) error {
	if err := r.Unregister(ctx, id); err != nil {
		return err
	}

	r.runTable(ctx)

	r.mu.RLock()
	_, back := r.agents[id]
	r.mu.RUnlock()
	if !back {
		return fmt.Errorf("agent %q did not come back after reload", id)
	}

	r.logger.Info("agent reloaded", "agent_id", id)
	return nil
}

// Cleanup tears down every agent, continuing past failures, and empties the
// registry.
func (r *Registry) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, id := range r.order {
		a, ok := r.agents[id]
		if !ok {
			continue
		}
		if err := a.Cleanup(ctx); err != nil {
			errs = append(errs, fmt.Errorf("agent %q: %w", id, err))
		}
	}

	r.agents = make(map[string]Agent)
	r.meta = make(map[string]*Snapshot)
	r.order = nil
	r.initialized = false

	r.logger.Info("agent registry cleaned up")
	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with errors: %v", errs)
	}
	return nil
}

// runTable builds and registers every constructor's agent, skipping IDs that
// are already present.
func (r *Registry) runTable(ctx context.Context) {
	for i, build := range r.table {
		a, err := build(ctx)
		if err != nil {
			r.logger.Warn("agent constructor failed, skipping",
				"index", i,
				"error", err,
			)
			continue
		}

		r.mu.RLock()
		_, exists := r.agents[a.ID()]
		r.mu.RUnlock()
		if exists {
			continue
		}

		if err := r.Register(ctx, a); err != nil {
			r.logger.Warn("agent registration failed, skipping",
				"agent_id", a.ID(),
				"error", err,
			)
		}
	}
}

func newSnapshot(a Agent) *Snapshot {
	info := a.Info()
	_, streams := a.(Streamer)
	_, multimodal := a.(MultimodalProcessor)
	now := time.Now().UTC()
	return &Snapshot{
		ID:                 info.ID,
		Name:               info.Name,
		Description:        info.Description,
		Type:               info.Type,
		Capabilities:       append([]string(nil), info.Capabilities...),
		ModelProvider:      info.ModelProvider,
		ModelName:          info.ModelName,
		Status:             StatusActive,
		SupportsStreaming:  streams,
		SupportsMultimodal: multimodal,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	cp := *s
	cp.Capabilities = append([]string(nil), s.Capabilities...)
	return &cp
}
