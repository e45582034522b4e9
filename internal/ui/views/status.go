package views

import (
	"fmt"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/ui/models"
)

// RenderStatus renders the status bar
func RenderStatus(s models.State) string {
	var left string
	switch {
	case s.Streaming:
		dots := strings.Repeat(".", s.DotCount)
		left = StatusStreamingStyle.Render(fmt.Sprintf("%s Generating%s  (ctrl+c to cancel)", s.Spinner.View(), dots))
	case s.StatusMessage != "":
		left = StatusDefaultStyle.Render(s.StatusMessage)
	default:
		left = StatusDefaultStyle.Render("Ready")
	}

	if s.CurrentModel == "" {
		return left
	}
	return left + "  " + StatusDefaultStyle.Render(s.CurrentModel)
}
