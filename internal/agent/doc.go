// Package agent defines the agent contract and the shared runtime concrete
// agents embed.
//
// # Contract
//
// An Agent processes chat messages inside named sessions. The interface is
// deliberately small: identity, lifecycle, Process, per-session history, and
// stats. Optional capabilities are separate interfaces discovered by type
// assertion, never by flags:
//
//   - Streamer delivers incremental output as Chunk values, ending with
//     exactly one terminal chunk (Final or Err set).
//   - MultimodalProcessor accepts file attachments alongside the message.
//
// # Core
//
// Core carries the identity metadata, bounded per-session conversation
// history, and interaction counters every agent needs. Concrete agents embed
// *Core and implement Process, bracketing the work with Begin and Finish so
// history and stats stay consistent:
//
//	func (a *EchoAgent) Process(ctx context.Context, message, sessionID string, extra map[string]any) (*agent.Response, error) {
//		start, err := a.Begin(sessionID, message)
//		if err != nil {
//			return nil, err
//		}
//		resp := &agent.Response{Content: "echo: " + message}
//		return a.Finish(resp, sessionID, start, nil)
//	}
//
// # Registry
//
// The Registry owns the running agents. It is seeded from a static
// constructor table, answers free-text Discover queries by scoring agent
// metadata, and supports per-agent reload without restarting the process.
package agent
