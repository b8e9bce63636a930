// ABOUTME: Request and Response types for tool invocations.
// ABOUTME: Every execution returns the same envelope regardless of server.

package tool

import (
	"fmt"

	"github.com/google/uuid"
)

// Request carries a single tool invocation. Context is a free-form side
// channel (session ids, caller identity); handlers may ignore it.
type Request struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Context    map[string]any `json:"context,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
}

// NewRequest builds a request with a generated request id.
func NewRequest(toolName string, params map[string]any) *Request {
	return &Request{
		ToolName:   toolName,
		Parameters: params,
		RequestID:  uuid.New().String(),
	}
}

// EnsureID assigns a request id if the caller did not provide one.
func (r *Request) EnsureID() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
}

// Response is the uniform envelope returned from every tool invocation.
// ExecutionTime is in seconds; the same value is mirrored into Metadata
// under "execution_time" alongside "server_name" by the executing server.
type Response struct {
	Success       bool           `json:"success"`
	Result        any            `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
}

// Succeed builds a success envelope around a result payload.
func Succeed(result any) *Response {
	return &Response{Success: true, Result: result, Metadata: map[string]any{}}
}

// Fail builds a failure envelope with a formatted error message.
func Fail(format string, args ...any) *Response {
	return &Response{Success: false, Error: fmt.Sprintf(format, args...), Metadata: map[string]any{}}
}

// SetMeta records a metadata entry, allocating the map if needed.
func (r *Response) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
}
