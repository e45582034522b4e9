package views

import (
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/ui/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/services"
)

// RenderChat renders the message history
func RenderChat(s models.State) string {
	if len(s.Messages) == 0 {
		return InfoMessageStyle.Render("Ask about your Litmus Edge devices. Type /help for commands.")
	}
	return s.Viewport.View()
}

// FormatChatContent formats the messages for the viewport. The last
// assistant message is shown raw while streaming so partial markdown does
// not jump around; finished answers go through the renderer.
func FormatChatContent(messages []models.Message, width int, streaming bool, renderer services.MarkdownRenderer) string {
	var lines []string
	for i, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			lines = append(lines, UserMessageStyle.Render("You: "+msg.Content))
		case models.RoleTool:
			lines = append(lines, ToolMarkerStyle.Render("⚙ "+msg.Content))
		case models.RoleError:
			lines = append(lines, ErrorMessageStyle.Render("Error: "+msg.Content))
		case models.RoleInfo:
			lines = append(lines, InfoMessageStyle.Render(msg.Content))
		default:
			if streaming && i == len(messages)-1 {
				lines = append(lines, AssistantMessageStyle.Render(msg.Content))
				break
			}
			rendered, err := services.RenderMarkdown(msg.Content, width, renderer)
			if err != nil {
				rendered = msg.Content
			}
			lines = append(lines, AssistantMessageStyle.Render(rendered))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
