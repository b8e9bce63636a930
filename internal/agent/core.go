// ABOUTME: Shared runtime embedded by concrete agents: history, counters, lifecycle.
// ABOUTME: Begin/Finish bracket every Process call so bookkeeping stays in one place.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/quorum-hub/internal/memory"
)

// Core is the shared agent runtime. Concrete agents embed *Core and implement
// Process; everything else on the Agent interface comes from here. Agents
// holding their own resources override Cleanup and call the embedded version.
type Core struct {
	info   Info
	logger *slog.Logger
	tools  []string

	maxMessages int

	mu           sync.Mutex
	sessions     map[string]*memory.Conversation
	initialized  bool
	interactions int64
	totalTime    time.Duration
}

// CoreConfig configures the shared runtime.
type CoreConfig struct {
	// Logger for agent activity. Defaults to slog.Default().
	Logger *slog.Logger

	// MaxMessages caps each session's history. Zero or negative selects
	// memory.DefaultMaxMessages.
	MaxMessages int

	// Tools names the tools this agent may call, reported in response
	// metadata.
	Tools []string
}

// NewCore builds the runtime for the given identity.
func NewCore(info Info, cfg CoreConfig) *Core {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{
		info:        info,
		logger:      logger.With("component", "agent", "agent", info.ID),
		tools:       append([]string(nil), cfg.Tools...),
		maxMessages: cfg.MaxMessages,
		sessions:    make(map[string]*memory.Conversation),
	}
}

func (c *Core) ID() string { return c.info.ID }

// Info returns a copy of the identity metadata.
func (c *Core) Info() *Info {
	info := c.info
	info.Capabilities = append([]string(nil), c.info.Capabilities...)
	return &info
}

// Logger returns the agent-scoped logger.
func (c *Core) Logger() *slog.Logger { return c.logger }

// Tools returns the tool names this agent advertises.
func (c *Core) Tools() []string {
	return append([]string(nil), c.tools...)
}

// Initialize marks the agent ready. Idempotent.
func (c *Core) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	c.initialized = true
	c.logger.Info("agent initialized", "type", c.info.Type)
	return nil
}

// Initialized reports whether the agent is ready to process.
func (c *Core) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Begin starts one Process call: it rejects uninitialized agents, records the
// user message, and returns the start time for Finish.
func (c *Core) Begin(sessionID, message string) (time.Time, error) {
	if !c.Initialized() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotReady, c.info.ID)
	}
	c.conversation(sessionID).Add(memory.RoleUser, message, nil)
	return time.Now(), nil
}

// Finish completes one Process call. On success it records the assistant
// message, bumps the counters, and decorates the response metadata. On error
// it logs and returns the error unchanged so failures surface to the caller.
func (c *Core) Finish(resp *Response, sessionID string, start time.Time, err error) (*Response, error) {
	if err != nil {
		c.logger.Error("agent processing failed",
			"session", sessionID,
			"error", err,
		)
		return nil, err
	}

	elapsed := time.Since(start)
	c.conversation(sessionID).Add(memory.RoleAssistant, resp.Content, nil)

	c.mu.Lock()
	c.interactions++
	c.totalTime += elapsed
	c.mu.Unlock()

	if resp.Metadata == nil {
		resp.Metadata = make(map[string]any)
	}
	resp.Metadata["processing_time"] = elapsed.Seconds()
	resp.Metadata["agent_id"] = c.info.ID
	resp.Metadata["session_id"] = sessionID
	resp.Metadata["tools_used"] = c.Tools()

	return resp, nil
}

// History returns the messages recorded for a session, oldest first.
func (c *Core) History(sessionID string) []memory.Message {
	c.mu.Lock()
	conv, ok := c.sessions[sessionID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return conv.Messages()
}

// Stats returns a point-in-time activity summary.
func (c *Core) Stats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.totalTime.Seconds()
	var avg float64
	if c.interactions > 0 {
		avg = total / float64(c.interactions)
	}
	return &Stats{
		InteractionCount:      c.interactions,
		TotalProcessingTime:   total,
		AverageProcessingTime: avg,
		ActiveSessions:        len(c.sessions),
	}
}

// Cleanup clears all session history and resets the initialized flag.
// Interaction counters survive so stats remain meaningful across reloads.
func (c *Core) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]*memory.Conversation)
	c.initialized = false
	c.logger.Info("agent cleaned up")
	return nil
}

func (c *Core) conversation(sessionID string) *memory.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.sessions[sessionID]
	if !ok {
		conv = memory.NewConversation(sessionID, c.maxMessages)
		c.sessions[sessionID] = conv
	}
	return conv
}

// ChunkStream adapts a completed response into a word-by-word chunk stream
// with one terminal chunk carrying the full response. Deltas re-join words
// with single spaces; the terminal Final preserves the exact content.
func ChunkStream(ctx context.Context, resp *Response) <-chan Chunk {
	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		words := strings.Fields(resp.Content)
		for i, word := range words {
			delta := word
			if i < len(words)-1 {
				delta += " "
			}
			select {
			case <-ctx.Done():
				select {
				case out <- Chunk{Err: ctx.Err()}:
				default:
				}
				return
			case out <- Chunk{Delta: delta}:
			}
		}
		select {
		case out <- Chunk{Final: resp}:
		case <-ctx.Done():
		}
	}()
	return out
}
