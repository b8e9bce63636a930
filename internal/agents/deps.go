// ABOUTME: Shared dependencies and the static constructor table for bundled agents.
// ABOUTME: The hub hands this table to the agent registry at startup.

package agents

import (
	"context"
	"log/slog"

	"github.com/2389/quorum-hub/internal/agent"
	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/model"
)

// Deps carries the subsystems bundled agents draw on. Tools and Models may
// be nil; agents degrade to their deterministic behavior without them.
type Deps struct {
	Logger *slog.Logger

	// Tools routes tool calls for agents that use them.
	Tools *mcp.Manager

	// Models resolves text and vision providers.
	Models *model.Manager

	// MaxHistory caps each session's conversation history per agent.
	// Zero selects the memory package default.
	MaxHistory int
}

func defaultProvider(models *model.Manager) (model.Provider, bool) {
	if models == nil {
		return nil, false
	}
	return models.Default()
}

// defaultModelIdentity reports the provider and first model id the default
// provider advertises, for agent Info metadata. Empty strings when no
// provider is configured.
func defaultModelIdentity(models *model.Manager) (provider, modelID string) {
	p, ok := defaultProvider(models)
	if !ok {
		return "", ""
	}
	if ms := p.Models(); len(ms) > 0 {
		return p.Name(), ms[0].ID
	}
	return p.Name(), ""
}

// Bundled returns constructors for every agent the hub ships with, in
// registration order.
func Bundled(deps Deps) []agent.Constructor {
	return []agent.Constructor{
		func(ctx context.Context) (agent.Agent, error) {
			return NewEchoAgent(deps), nil
		},
		func(ctx context.Context) (agent.Agent, error) {
			return NewAssistantAgent(deps), nil
		},
		func(ctx context.Context) (agent.Agent, error) {
			return NewSummarizerAgent(deps), nil
		},
		func(ctx context.Context) (agent.Agent, error) {
			return NewVisionAgent(deps), nil
		},
	}
}
