package models

import (
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
)

// Request is one provider turn's input.
type Request struct {
	// System is the instruction prompt. Adapters decide where it goes on the wire.
	System string

	// Messages is the full conversation so far, ending with the newest message.
	Messages []models.Message

	// Tools are the tools the model may call this turn.
	Tools []models.ToolSpec
}

// StopReason says why a provider turn ended.
type StopReason string

const (
	StopReasonDone     StopReason = "done"
	StopReasonToolCall StopReason = "tool_call"
)

// ModelTurn is the result of a blocking provider call.
type ModelTurn struct {
	TextParts  []string
	ToolCalls  []models.ToolCall
	StopReason StopReason
	Usage      Usage
}

// Usage reports token counts when the vendor provides them.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Text joins the turn's text parts.
func (t *ModelTurn) Text() string {
	return strings.Join(t.TextParts, "")
}

// WantsTools reports whether the turn asks for tool execution.
func (t *ModelTurn) WantsTools() bool {
	return t.StopReason == StopReasonToolCall && len(t.ToolCalls) > 0
}

// AssistantMessage reconstructs the assistant message for this turn,
// text first and tool calls after, as the vendors emit them.
func (t *ModelTurn) AssistantMessage() models.Message {
	parts := make([]models.Part, 0, len(t.TextParts)+len(t.ToolCalls))
	for _, text := range t.TextParts {
		if text != "" {
			parts = append(parts, models.TextPart{Text: text})
		}
	}
	for _, call := range t.ToolCalls {
		parts = append(parts, models.ToolCallPart{Call: call})
	}
	return models.Message{Role: models.RoleAssistant, Parts: parts}
}

// ModelInfo describes a model offered by a vendor.
type ModelInfo struct {
	ID          string
	DisplayName string
}
