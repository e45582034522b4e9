package models

import (
	"context"
	"iter"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	// Name returns the vendor name ("anthropic", "openai", "gemini").
	Name() string

	// Model returns the model id requests are sent to.
	Model() string

	// Complete performs one blocking round trip.
	Complete(ctx context.Context, req *Request) (*ModelTurn, error)

	// Stream opens a streamed turn. The sequence yields events until a
	// TurnComplete, or a single non-nil error which ends it. Breaking out of
	// the range releases the underlying connection.
	Stream(ctx context.Context, req *Request) iter.Seq2[StreamEvent, error]
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
