// Package views renders the terminal chat UI.
package views

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/litmusautomation/litmus-mcp-server/internal/config"
)

var (
	ColorPrimary = lipgloss.Color("39")
	ColorTool    = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorDim     = lipgloss.Color("241")

	UserMessageStyle      lipgloss.Style
	AssistantMessageStyle lipgloss.Style
	ToolMarkerStyle       lipgloss.Style
	ErrorMessageStyle     lipgloss.Style
	InfoMessageStyle      lipgloss.Style
	InputStyle            lipgloss.Style
	StatusStreamingStyle  lipgloss.Style
	StatusDefaultStyle    lipgloss.Style
	PopupBoxStyle         lipgloss.Style
)

func init() {
	buildStyles()
}

// ApplyTheme sets the palette from config. Empty colors keep the defaults.
func ApplyTheme(cfg config.UIConfig) {
	if cfg.ColorPrimary != "" {
		ColorPrimary = lipgloss.Color(cfg.ColorPrimary)
	}
	if cfg.ColorTool != "" {
		ColorTool = lipgloss.Color(cfg.ColorTool)
	}
	if cfg.ColorError != "" {
		ColorError = lipgloss.Color(cfg.ColorError)
	}
	buildStyles()
}

func buildStyles() {
	UserMessageStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	AssistantMessageStyle = lipgloss.NewStyle()
	ToolMarkerStyle = lipgloss.NewStyle().Foreground(ColorTool).Italic(true)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ColorError)
	InfoMessageStyle = lipgloss.NewStyle().Foreground(ColorDim)
	InputStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)
	StatusStreamingStyle = lipgloss.NewStyle().Foreground(ColorTool)
	StatusDefaultStyle = lipgloss.NewStyle().Foreground(ColorDim)
	PopupBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)
}
