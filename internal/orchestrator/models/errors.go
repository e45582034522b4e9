package models

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the tool server cannot be reached.
var ErrUnavailable = errors.New("tool service unavailable")

// ToolExecutionError reports a failure inside a tool.
type ToolExecutionError struct {
	Tool    string
	Message string
}

// Error implements the error interface.
func (e *ToolExecutionError) Error() string {
	if e.Tool == "" {
		return e.Message
	}
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}
