// Provider interface the whole application talks to.

package llm

import "context"

// Provider is the contract for any chat-completion backend.
type Provider interface {
	// Complete sends the full history and, when catalog is non-empty, the
	// function catalog. It never returns a Go error: transport and decoding
	// failures come back as an OutcomeError response so that a failed turn
	// is always explicit.
	Complete(ctx context.Context, history []Message, catalog Catalog) ModelResponse
}
