// ABOUTME: Tool execution audit trail methods for the SQLite store.
// ABOUTME: Records every routed tool call and aggregates per-tool usage stats.

package store

import (
	"context"
	"fmt"
	"time"
)

// InsertToolExecution appends one execution record to the audit trail.
func (s *SQLiteStore) InsertToolExecution(ctx context.Context, exec *ToolExecution) error {
	query := `
		INSERT INTO tool_executions (id, request_id, tool_name, server_name, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	success := 0
	if exec.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		exec.ID,
		exec.RequestID,
		exec.ToolName,
		exec.ServerName,
		success,
		exec.Error,
		exec.DurationMS,
		exec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting tool execution: %w", err)
	}
	return nil
}

// ListToolExecutions returns execution records, newest first, optionally
// filtered by tool name.
func (s *SQLiteStore) ListToolExecutions(ctx context.Context, toolName string, limit int) ([]*ToolExecution, error) {
	if limit <= 0 {
		limit = 50
	}

	var args []any
	query := `SELECT id, request_id, tool_name, server_name, success, error, duration_ms, created_at
		FROM tool_executions WHERE 1=1`

	if toolName != "" {
		query += ` AND tool_name = ?`
		args = append(args, toolName)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tool executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var execs []*ToolExecution
	for rows.Next() {
		var e ToolExecution
		var success int
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ToolName, &e.ServerName, &success, &e.Error, &e.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning tool execution: %w", err)
		}
		e.Success = success == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		execs = append(execs, &e)
	}
	return execs, rows.Err()
}

// UsageStats aggregates executions per tool, most used first.
func (s *SQLiteStore) UsageStats(ctx context.Context, limit int) ([]ToolUsage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT tool_name,
			COUNT(*) AS executions,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) AS failures,
			AVG(duration_ms) AS avg_duration_ms
		FROM tool_executions
		GROUP BY tool_name
		ORDER BY executions DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying usage stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []ToolUsage
	for rows.Next() {
		var u ToolUsage
		if err := rows.Scan(&u.ToolName, &u.Executions, &u.Failures, &u.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("scanning usage stats: %w", err)
		}
		stats = append(stats, u)
	}
	return stats, rows.Err()
}
