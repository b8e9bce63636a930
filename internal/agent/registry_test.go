package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamingTestAgent struct {
	*testAgent
}

func (a *streamingTestAgent) ProcessStream(ctx context.Context, message, sessionID string, extra map[string]any) (<-chan Chunk, error) {
	resp, err := a.Process(ctx, message, sessionID, extra)
	if err != nil {
		return nil, err
	}
	return ChunkStream(ctx, resp), nil
}

type brokenInitAgent struct {
	*testAgent
}

func (a *brokenInitAgent) Initialize(ctx context.Context) error {
	return errors.New("init failed")
}

func registryAgent(id, name, description, agentType string, capabilities ...string) *testAgent {
	return &testAgent{Core: NewCore(Info{
		ID:           id,
		Name:         name,
		Description:  description,
		Type:         agentType,
		Capabilities: capabilities,
	}, CoreConfig{})}
}

func TestRegistryRegisterInitializesAgent(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	a := newTestAgent("echo", CoreConfig{})

	require.NoError(t, r.Register(context.Background(), a))
	assert.True(t, a.Initialized())
	assert.Equal(t, 1, r.Len())

	got, err := r.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.ID())
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.Register(context.Background(), newTestAgent("echo", CoreConfig{})))

	err := r.Register(context.Background(), newTestAgent("echo", CoreConfig{}))
	require.ErrorIs(t, err, ErrAgentExists)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRegisterInitFailureNotRecorded(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	a := &brokenInitAgent{testAgent: newTestAgent("broken", CoreConfig{})}

	err := r.Register(context.Background(), a)
	require.Error(t, err)
	assert.Equal(t, 0, r.Len())

	_, err = r.Get("broken")
	require.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRegistryInitializeRunsTable(t *testing.T) {
	table := []Constructor{
		func(ctx context.Context) (Agent, error) {
			return newTestAgent("first", CoreConfig{}), nil
		},
		func(ctx context.Context) (Agent, error) {
			return nil, errors.New("construction failed")
		},
		func(ctx context.Context) (Agent, error) {
			return newTestAgent("second", CoreConfig{}), nil
		},
	}
	r := NewRegistry(RegistryConfig{Table: table})

	require.NoError(t, r.Initialize(context.Background()))
	assert.True(t, r.Initialized())
	assert.Equal(t, 2, r.Len())

	// Idempotent: a second call does not duplicate agents.
	require.NoError(t, r.Initialize(context.Background()))
	assert.Equal(t, 2, r.Len())
}

func TestRegistryUnregisterRunsCleanup(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	a := newTestAgent("echo", CoreConfig{})
	require.NoError(t, r.Register(context.Background(), a))

	require.NoError(t, r.Unregister(context.Background(), "echo"))
	assert.Equal(t, 1, a.cleanups)
	assert.Equal(t, 0, r.Len())

	err := r.Unregister(context.Background(), "echo")
	require.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRegistryListFilters(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.Register(context.Background(), registryAgent("echo", "Echo", "repeats input", "utility", "echo")))
	require.NoError(t, r.Register(context.Background(), registryAgent("assistant", "Assistant", "general chat", "general", "conversation")))

	all := r.List("", "")
	require.Len(t, all, 2)
	assert.Equal(t, "echo", all[0].ID)
	assert.Equal(t, "assistant", all[1].ID)

	utilities := r.List("utility", "")
	require.Len(t, utilities, 1)
	assert.Equal(t, "echo", utilities[0].ID)

	assert.Len(t, r.List("", StatusActive), 2)
	assert.Empty(t, r.List("", "inactive"))
}

func TestRegistrySnapshotDerivesCapabilities(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	plain := newTestAgent("plain", CoreConfig{})
	streaming := &streamingTestAgent{testAgent: newTestAgent("streaming", CoreConfig{})}
	require.NoError(t, r.Register(context.Background(), plain))
	require.NoError(t, r.Register(context.Background(), streaming))

	snap, err := r.Describe("plain")
	require.NoError(t, err)
	assert.False(t, snap.SupportsStreaming)
	assert.False(t, snap.SupportsMultimodal)
	assert.Equal(t, StatusActive, snap.Status)
	assert.False(t, snap.CreatedAt.IsZero())

	snap, err = r.Describe("streaming")
	require.NoError(t, err)
	assert.True(t, snap.SupportsStreaming)
	assert.False(t, snap.SupportsMultimodal)
}

func TestRegistryDiscoverScoring(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.Register(context.Background(), registryAgent(
		"echo", "Echo Agent", "repeats what you say", "utility", "echo", "text_processing")))
	require.NoError(t, r.Register(context.Background(), registryAgent(
		"research", "Research Assistant", "performs web research", "general", "web_search", "summarization")))

	t.Run("name and description outrank capabilities", func(t *testing.T) {
		got := r.Discover("research", 0)
		require.Len(t, got, 1)
		assert.Equal(t, "research", got[0].ID)
	})

	t.Run("capability tokens match", func(t *testing.T) {
		got := r.Discover("web search", 0)
		require.Len(t, got, 1)
		assert.Equal(t, "research", got[0].ID)
	})

	t.Run("type substring matches", func(t *testing.T) {
		got := r.Discover("utility", 0)
		require.Len(t, got, 1)
		assert.Equal(t, "echo", got[0].ID)
	})

	t.Run("zero scores excluded", func(t *testing.T) {
		assert.Empty(t, r.Discover("astrophysics", 0))
		assert.Empty(t, r.Discover("", 0))
	})
}

func TestRegistryDiscoverOrderingAndLimit(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	// All three match "helper"; the first two by name (10), the third only by
	// description (5). Ties keep registration order.
	require.NoError(t, r.Register(context.Background(), registryAgent(
		"a", "Helper One", "first registered", "utility")))
	require.NoError(t, r.Register(context.Background(), registryAgent(
		"b", "Helper Two", "second registered", "utility")))
	require.NoError(t, r.Register(context.Background(), registryAgent(
		"c", "Other", "a helper of a different kind", "utility")))

	got := r.Discover("helper", 0)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)

	got = r.Discover("helper", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestRegistryReload(t *testing.T) {
	built := 0
	table := []Constructor{
		func(ctx context.Context) (Agent, error) {
			built++
			return newTestAgent("echo", CoreConfig{}), nil
		},
	}
	r := NewRegistry(RegistryConfig{Table: table})
	require.NoError(t, r.Initialize(context.Background()))
	require.Equal(t, 1, built)

	first, err := r.Get("echo")
	require.NoError(t, err)

	require.NoError(t, r.Reload(context.Background(), "echo"))
	assert.Equal(t, 2, built)

	second, err := r.Get("echo")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.True(t, second.Initialized())

	err = r.Reload(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRegistryReloadReportsMissingComeback(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	require.NoError(t, r.Register(context.Background(), newTestAgent("orphan", CoreConfig{})))

	// No table entry rebuilds "orphan", so the reload must say so.
	err := r.Reload(context.Background(), "orphan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not come back")
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCleanup(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	a := newTestAgent("one", CoreConfig{})
	b := newTestAgent("two", CoreConfig{})
	require.NoError(t, r.Register(context.Background(), a))
	require.NoError(t, r.Register(context.Background(), b))
	require.NoError(t, r.Initialize(context.Background()))

	require.NoError(t, r.Cleanup(context.Background()))
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Initialized())
	assert.Equal(t, 1, a.cleanups)
	assert.Equal(t, 1, b.cleanups)
}
