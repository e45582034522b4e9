package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/models"
)

// popupChrome is the height taken by the popup border, padding, title and hint.
const popupChrome = 8

// RenderModelPopup renders the model picker. Long lists scroll so the
// selected entry stays visible.
func RenderModelPopup(s models.State) string {
	if !s.ShowModelList || len(s.ModelList) == 0 {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Render("Select Model")
	if s.CurrentModel != "" {
		title += "  " + InfoMessageStyle.Render("current: "+s.CurrentModel)
	}
	lines := []string{title, ""}

	start, end := visibleRange(len(s.ModelList), s.ModelListIndex, s.Height-popupChrome)
	if start > 0 {
		lines = append(lines, InfoMessageStyle.Render("  ↑ more"))
	}
	selected := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	for i := start; i < end; i++ {
		if i == s.ModelListIndex {
			lines = append(lines, selected.Render("▸ "+s.ModelList[i]))
			continue
		}
		lines = append(lines, "  "+s.ModelList[i])
	}
	if end < len(s.ModelList) {
		lines = append(lines, InfoMessageStyle.Render("  ↓ more"))
	}

	lines = append(lines, "", lipgloss.NewStyle().Faint(true).Render("↑/↓: Navigate  Enter: Select  Esc: Cancel"))
	return PopupBoxStyle.Render(strings.Join(lines, "\n"))
}

// visibleRange returns the window [start, end) of n items around selected.
// A non-positive height shows everything.
func visibleRange(n, selected, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := min(max(selected-height/2, 0), n-height)
	return start, start + height
}
