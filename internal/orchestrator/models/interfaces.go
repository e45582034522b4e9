package models

import (
	"context"
)

// ToolService lists and invokes the tools offered to the model.
// Implementations must tolerate concurrent independent calls.
type ToolService interface {
	// ListTools returns the currently available tools.
	// Fails with an error wrapping ErrUnavailable if the transport cannot be reached.
	ListTools(ctx context.Context) ([]ToolSpec, error)

	// CallTool runs a tool by name. Tool-side failures are reported as *ToolExecutionError.
	CallTool(ctx context.Context, name string, args map[string]any) (ToolOutput, error)
}

// PolicyService decides if a tool call is allowed.
type PolicyService interface {
	// CheckTool validates if a tool is allowed to be used
	CheckTool(ctx context.Context, toolName string, args map[string]any) error
}
