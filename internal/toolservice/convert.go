package toolservice

import (
	"encoding/json"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource describes a resource exposed by the tool server.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mime_type,omitempty"`
}

func toToolSpec(t *mcp.Tool) models.ToolSpec {
	return models.ToolSpec{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: toSchema(t.InputSchema),
	}
}

// toSchema normalizes the tool's input schema to a JSON object map.
func toSchema(schema any) map[string]any {
	var params map[string]any
	switch s := schema.(type) {
	case nil:
	case map[string]any:
		params = s
	default:
		if data, err := json.Marshal(s); err == nil {
			_ = json.Unmarshal(data, &params)
		}
	}
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return params
}

// joinText concatenates the text parts of a tool result with newlines.
// Non-text content is skipped.
func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func toResource(r *mcp.Resource) Resource {
	return Resource{URI: r.URI, Name: r.Name, Description: r.Description, MIMEType: r.MIMEType}
}
