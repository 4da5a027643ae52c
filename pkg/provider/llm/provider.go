// Package llm defines the Provider interface for the completion backend.
//
// A provider wraps a remote chat-completion API (e.g., OpenAI) and exposes a
// uniform request/response interface so the relay never couples to a specific
// SDK. The relay performs exactly one completion call per chat request; there
// is no streaming and no tool calling in this service.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import "context"

// Provider is the abstraction over any chat-completion backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Returns an error if the request fails or if ctx is cancelled before the
	// completion arrives. The relay treats any error as terminal for the
	// request; there are no retries.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
