package models

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Message represents a single message in the conversation history
type Message struct {
	Role  Role
	Parts []Part
}

// Part is one element of a Message.
// Implementations: TextPart, ToolCallPart, ToolResultPart.
type Part interface {
	isPart()
}

// TextPart carries plain text.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// ToolCallPart records a tool call requested by the model.
type ToolCallPart struct {
	Call ToolCall
}

func (ToolCallPart) isPart() {}

// ToolResultPart answers the ToolCallPart with the same call ID.
type ToolResultPart struct {
	CallID  string
	Name    string // Tool name, required by providers that key results by name
	Text    string
	IsError bool
}

func (ToolResultPart) isPart() {}

// ToolCall represents a structured tool invocation from the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any

	// RawArgs holds the vendor's argument payload when it could not be
	// decoded into Args. The call is answered with an error result.
	RawArgs string

	// Signature is an opaque vendor token that must be sent back with the
	// call when it is echoed in history (Gemini thought signatures).
	Signature []byte
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any // JSON Schema object
}

// ToolOutput is the text result of a tool call. Multi-part results are pre-joined.
type ToolOutput struct {
	Text string
}

// ToolInvocation records one executed tool call.
type ToolInvocation struct {
	CallID     string
	Name       string
	Args       map[string]any
	ResultText string
	Failed     bool
}

// ConversationTurn is the outcome of one query.
type ConversationTurn struct {
	FinalText       string
	ToolInvocations []ToolInvocation
	ProviderUsed    string
	Model           string

	// Messages holds the messages produced by the query, starting with the
	// user message. Callers decide what to persist.
	Messages []Message
}

// NewUserMessage builds a user message with a single text part.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewAssistantMessage builds an assistant message with a single text part.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates the text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool calls carried by the message, in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if c, ok := p.(ToolCallPart); ok {
			calls = append(calls, c.Call)
		}
	}
	return calls
}

// ToolResults returns the tool results carried by the message, in order.
func (m Message) ToolResults() []ToolResultPart {
	var results []ToolResultPart
	for _, p := range m.Parts {
		if r, ok := p.(ToolResultPart); ok {
			results = append(results, r)
		}
	}
	return results
}

// CloneMessages returns a copy of msgs whose Parts slices are not shared
// with the input, so appending to the copy never touches the caller's data.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{Role: m.Role, Parts: append([]Part(nil), m.Parts...)}
	}
	return out
}

// ToolPolicy restricts which tools the model may invoke.
// Deny wins over Allow. An empty Allow list permits every tool not denied.
type ToolPolicy struct {
	Allow []string
	Deny  []string
}
