package models

import "github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"

// StreamEvent is one element of a provider stream.
// Consumers handle events via type switch.
type StreamEvent interface {
	isStreamEvent()
}

// TextDelta is emitted for each fragment of streamed text.
type TextDelta struct {
	Text string
}

func (TextDelta) isStreamEvent() {}

// ToolCallRequested is emitted once a tool call is fully assembled.
type ToolCallRequested struct {
	Call models.ToolCall
}

func (ToolCallRequested) isStreamEvent() {}

// TurnComplete is emitted last, when the provider turn ends.
type TurnComplete struct {
	StopReason StopReason
	Usage      Usage
}

func (TurnComplete) isStreamEvent() {}
