// ABOUTME: Tool type combining a schema-described definition with its handler.
// ABOUTME: Tracks execution metrics; bookkeeping is done by the owning server.

package tool

import (
	"context"
	"sync"
	"time"
)

// Handler executes a tool call. It returns the raw result payload; converting
// results and errors into the response envelope is the owning server's job.
type Handler func(ctx context.Context, req *Request) (any, error)

// Definition describes a tool: its name, what it does, the parameter schema
// it accepts, and the capability tags it advertises.
type Definition struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Schema       map[string]any `json:"parameters_schema"`
	Capabilities []string       `json:"capabilities,omitempty"`
}

// Tool is a single named executable capability. A tool is owned by exactly
// one server once registered with the manager.
type Tool struct {
	Definition
	Handler Handler

	mu             sync.Mutex
	executionCount int64
	totalExecTime  time.Duration
}

// New creates a tool from a definition and handler.
func New(def Definition, handler Handler) *Tool {
	return &Tool{Definition: def, Handler: handler}
}

// ValidateParams checks the supplied parameters against the tool's schema.
func (t *Tool) ValidateParams(params map[string]any) error {
	return ValidateParams(params, t.Schema)
}

// RecordExecution updates the tool's counters after a completed execution.
func (t *Tool) RecordExecution(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.executionCount++
	t.totalExecTime += d
}

// Metrics returns the execution count and cumulative execution time.
func (t *Tool) Metrics() (count int64, total time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executionCount, t.totalExecTime
}

// Info describes a tool for listing endpoints. ServerName is filled in by the
// manager when aggregating across servers.
type Info struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	Schema               map[string]any `json:"parameters_schema"`
	Capabilities         []string       `json:"capabilities,omitempty"`
	ExecutionCount       int64          `json:"execution_count"`
	AverageExecutionTime float64        `json:"average_execution_time"`
	ServerName           string         `json:"server_name,omitempty"`
}

// Info returns a snapshot of the tool's definition and metrics.
func (t *Tool) Info() Info {
	count, total := t.Metrics()
	avg := 0.0
	if count > 0 {
		avg = total.Seconds() / float64(count)
	}
	return Info{
		Name:                 t.Name,
		Description:          t.Description,
		Schema:               t.Schema,
		Capabilities:         t.Capabilities,
		ExecutionCount:       count,
		AverageExecutionTime: avg,
	}
}
