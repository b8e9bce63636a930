// Package model abstracts LLM providers behind a common chat generation
// interface.
//
// A Provider turns a normalized Request (system prompt plus chat messages)
// into a Result. Providers exist for Anthropic and OpenAI via their official
// SDKs, for a local Ollama daemon over its JSON API, and as an in-memory mock
// for tests and keyless development. Providers that can look at images
// additionally implement ImageDescriber.
//
// The Manager holds registered providers by name and routes generation and
// latency probes, falling back to a configured default provider when a caller
// does not name one.
package model
