// ABOUTME: Adapts the persistent store to the tool manager's execution recorder.
// ABOUTME: Every routed tool call becomes one row in tool_executions.

package hub

import (
	"context"

	"github.com/google/uuid"

	"github.com/2389/quorum-hub/internal/mcp"
	"github.com/2389/quorum-hub/internal/store"
)

// storeRecorder writes execution records through the store. The tool
// manager logs and swallows recorder errors, so a failed insert never
// affects the tool response.
type storeRecorder struct {
	store store.Store
}

var _ mcp.ExecutionRecorder = (*storeRecorder)(nil)

func newStoreRecorder(s store.Store) *storeRecorder {
	return &storeRecorder{store: s}
}

func (r *storeRecorder) RecordToolExecution(ctx context.Context, rec mcp.ExecutionRecord) error {
	return r.store.InsertToolExecution(ctx, &store.ToolExecution{
		ID:         uuid.New().String(),
		RequestID:  rec.RequestID,
		ToolName:   rec.ToolName,
		ServerName: rec.ServerName,
		Success:    rec.Success,
		Error:      rec.Error,
		DurationMS: rec.Duration.Milliseconds(),
		CreatedAt:  rec.StartedAt,
	})
}
