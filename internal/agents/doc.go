// Package agents holds the bundled agent implementations and the static
// table the hub registers them from.
//
// Four agents ship with the hub: echo (keyword-dispatched utility, no model),
// the general assistant (model-backed with a deterministic fallback, consults
// the tool router for web searches), the summarizer (style-aware document
// summaries), and the vision analyzer (multimodal image analysis). All four
// embed agent.Core; the ones that talk to a model resolve providers through
// model.Manager at call time, so a hub without API keys still serves every
// agent with degraded, deterministic behavior.
//
// Bundled returns the constructor table:
//
//	ctors := agents.Bundled(agents.Deps{
//		Logger: logger,
//		Tools:  toolManager,
//		Models: modelManager,
//	})
//	registry := agent.NewRegistry(agent.RegistryConfig{Logger: logger, Table: ctors})
package agents
