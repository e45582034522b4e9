// Package ui is the terminal front end: a Bubble Tea chat screen and a plain
// line-mode REPL, both driving a Conversation.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/services"
)

// UI runs the Bubble Tea chat screen.
type UI struct {
	program *tea.Program
}

// NewUI creates a new Bubble Tea UI. Queries run under ctx.
func NewUI(ctx context.Context, chat Conversation, renderer services.MarkdownRenderer, spinnerFactory SpinnerFactory, opts ...tea.ProgramOption) *UI {
	model := newBubbleTeaModel(ctx, chat, renderer, spinnerFactory)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &UI{program: tea.NewProgram(model, opts...)}
}

// Start runs the program until the user quits. An answer still in flight
// is cancelled on exit.
func (u *UI) Start() error {
	final, err := u.program.Run()
	if m, ok := final.(BubbleTeaModel); ok && m.cancel != nil {
		m.cancel()
	}
	return err
}
