// Package memory provides per-session conversation history for agents.
//
// A Conversation is an ordered, bounded message list: once the cap is
// reached, the oldest messages are evicted first. The Manager tracks
// conversations by session ID, evicts idle sessions with a background
// sweeper, and optionally persists snapshots through a Store so history
// survives restarts.
package memory
