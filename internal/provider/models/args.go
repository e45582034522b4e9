package models

import (
	"encoding/json"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
)

// DecodeToolCall builds a ToolCall from a vendor's JSON argument payload.
// An empty payload means no arguments. A payload that is not a JSON object
// is kept in RawArgs so the orchestrator can report it back to the model.
func DecodeToolCall(id, name string, raw []byte) models.ToolCall {
	call := models.ToolCall{ID: id, Name: name, Args: map[string]any{}}
	if len(raw) == 0 || string(raw) == "null" {
		return call
	}
	if err := json.Unmarshal(raw, &call.Args); err != nil {
		call.Args = nil
		call.RawArgs = string(raw)
	}
	return call
}

// EncodeArgs serializes tool arguments for vendors that take a JSON string.
func EncodeArgs(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
