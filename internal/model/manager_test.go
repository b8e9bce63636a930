package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRegisterAndResolve(t *testing.T) {
	m := NewManager(ManagerConfig{})
	require.NoError(t, m.Register(NewMockProvider("mock")))

	p, ok := m.Provider("mock")
	require.True(t, ok)
	assert.Equal(t, "mock", p.Name())

	_, ok = m.Provider("anthropic")
	assert.False(t, ok)
}

func TestManagerRejectsDuplicateProvider(t *testing.T) {
	m := NewManager(ManagerConfig{})
	require.NoError(t, m.Register(NewMockProvider("mock")))

	err := m.Register(NewMockProvider("mock"))
	require.ErrorIs(t, err, ErrProviderExists)
}

func TestManagerDefaultResolution(t *testing.T) {
	t.Run("sole provider", func(t *testing.T) {
		m := NewManager(ManagerConfig{})
		require.NoError(t, m.Register(NewMockProvider("only")))

		p, ok := m.Default()
		require.True(t, ok)
		assert.Equal(t, "only", p.Name())
	})

	t.Run("configured default", func(t *testing.T) {
		m := NewManager(ManagerConfig{Default: "second"})
		require.NoError(t, m.Register(NewMockProvider("first")))
		require.NoError(t, m.Register(NewMockProvider("second")))

		p, ok := m.Default()
		require.True(t, ok)
		assert.Equal(t, "second", p.Name())
	})

	t.Run("ambiguous without default", func(t *testing.T) {
		m := NewManager(ManagerConfig{})
		require.NoError(t, m.Register(NewMockProvider("first")))
		require.NoError(t, m.Register(NewMockProvider("second")))

		_, ok := m.Default()
		assert.False(t, ok)
	})
}

func TestManagerGenerateRoutes(t *testing.T) {
	m := NewManager(ManagerConfig{})
	mock := NewMockProvider("mock")
	mock.AddResponse("hello", "hi there")
	require.NoError(t, m.Register(mock))

	res, err := m.Generate(context.Background(), "mock", &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Text)

	// Empty provider falls through to the default.
	res, err = m.Generate(context.Background(), "", &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Text)
}

func TestManagerGenerateUnknownProvider(t *testing.T) {
	m := NewManager(ManagerConfig{})

	_, err := m.Generate(context.Background(), "nope", &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	require.ErrorIs(t, err, ErrProviderNotFound)

	_, err = m.Generate(context.Background(), "", &Request{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	require.ErrorIs(t, err, ErrProviderNotFound)
}

func TestManagerProvidersAndModelsSorted(t *testing.T) {
	m := NewManager(ManagerConfig{})
	require.NoError(t, m.Register(NewMockProvider("zeta")))
	require.NoError(t, m.Register(NewMockProvider("alpha")))

	assert.Equal(t, []string{"alpha", "zeta"}, m.Providers())

	models := m.ListModels()
	require.Len(t, models, 2)
	assert.Equal(t, "alpha", models[0].Provider)
	assert.Equal(t, "zeta", models[1].Provider)
}

func TestManagerProbe(t *testing.T) {
	m := NewManager(ManagerConfig{})
	mock := NewMockProvider("mock")
	require.NoError(t, m.Register(mock))

	elapsed, err := m.Probe(context.Background(), "mock", "mock-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ping", calls[0].Messages[0].Content)
	assert.Equal(t, int64(8), calls[0].MaxTokens)

	_, err = m.Probe(context.Background(), "missing", "m")
	require.ErrorIs(t, err, ErrProviderNotFound)
}
