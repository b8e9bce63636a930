// ABOUTME: Agent interface, optional capability interfaces, and shared response types.
// ABOUTME: Capabilities are separate interfaces asserted at runtime, never flags.

package agent

import (
	"context"
	"errors"

	"github.com/2389/quorum-hub/internal/memory"
)

// StatusActive is the status reported for every registered agent.
const StatusActive = "active"

var (
	// ErrNotReady indicates a Process call on an agent that has not been
	// initialized yet.
	ErrNotReady = errors.New("agent not initialized")

	// ErrAgentExists indicates an agent with the same ID is already registered.
	ErrAgentExists = errors.New("agent already registered")

	// ErrAgentNotFound indicates the specified agent was not found.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrStreamingUnsupported indicates the agent does not implement Streamer.
	ErrStreamingUnsupported = errors.New("agent does not support streaming")

	// ErrMultimodalUnsupported indicates the agent does not implement
	// MultimodalProcessor.
	ErrMultimodalUnsupported = errors.New("agent does not support multimodal input")
)

// Info is the identity metadata an agent advertises.
type Info struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	Capabilities  []string `json:"capabilities"`
	ModelProvider string   `json:"model_provider,omitempty"`
	ModelName     string   `json:"model_name,omitempty"`
}

// Response is the completed output of one Process call.
type Response struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Stats summarizes an agent's lifetime activity. Times are in seconds.
type Stats struct {
	InteractionCount      int64   `json:"interaction_count"`
	TotalProcessingTime   float64 `json:"total_processing_time"`
	AverageProcessingTime float64 `json:"average_processing_time"`
	ActiveSessions        int     `json:"active_sessions"`
}

// Agent is the contract every registered agent fulfills.
type Agent interface {
	// ID returns the stable registry key, e.g. "general_assistant".
	ID() string

	// Info returns a copy of the agent's identity metadata.
	Info() *Info

	// Initialize prepares the agent for processing. Idempotent.
	Initialize(ctx context.Context) error

	// Initialized reports whether Initialize has completed.
	Initialized() bool

	// Process handles one user message within the given session.
	Process(ctx context.Context, message, sessionID string, extra map[string]any) (*Response, error)

	// Cleanup releases resources and clears session history.
	Cleanup(ctx context.Context) error

	// History returns the recorded messages for a session, oldest first.
	History(sessionID string) []memory.Message

	// Stats returns a point-in-time activity summary.
	Stats() *Stats
}

// Chunk is one streaming increment. Exactly one chunk per stream is terminal:
// either Final or Err is set, and nothing follows it.
type Chunk struct {
	Delta string
	Final *Response
	Err   error
}

// Streamer is implemented by agents that can deliver output incrementally.
type Streamer interface {
	ProcessStream(ctx context.Context, message, sessionID string, extra map[string]any) (<-chan Chunk, error)
}

// Attachment is a file submitted alongside a multimodal message.
type Attachment struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// MultimodalProcessor is implemented by agents that accept file attachments.
type MultimodalProcessor interface {
	ProcessMultimodal(ctx context.Context, message string, files []Attachment, sessionID string) (*Response, error)
}
