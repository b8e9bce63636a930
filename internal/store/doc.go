// Package store provides SQLite persistence for the hub.
//
// # Overview
//
// The store persists four kinds of data:
//
//   - Conversation snapshots, keyed by session ID, written by the memory
//     manager so history survives restarts
//   - Notes created through the notes tool server
//   - API tokens (bcrypt hashes only; raw tokens are never stored)
//   - Tool execution records, an audit trail fed by the MCP manager
//
// # Implementations
//
// SQLiteStore is the production implementation, using modernc.org/sqlite
// (pure Go, no cgo) with WAL mode. MockStore is an in-memory
// implementation for tests.
//
// # Usage
//
//	st, err := store.NewSQLiteStore("data/hub.db")
//	if err != nil {
//		return err
//	}
//	defer st.Close()
//
// All timestamps are stored as RFC3339 UTC strings.
package store
