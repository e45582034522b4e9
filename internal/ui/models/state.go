// Package models holds the terminal UI state.
package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// Message roles shown in the chat pane.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleError     = "error"
	RoleInfo      = "info"
)

// Message is one rendered entry of the chat pane.
type Message struct {
	Role    string
	Content string
}

// State is everything the views need to draw a frame.
type State struct {
	Width  int
	Height int

	Input    textinput.Model
	Viewport viewport.Model
	Spinner  spinner.Model

	Messages []Message

	// Streaming is true while an answer is in flight.
	Streaming bool
	DotCount  int

	StatusMessage string
	CurrentModel  string

	ShowModelList  bool
	ModelList      []string
	ModelListIndex int
}
