package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/services"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/views"
)

const helpText = `Available commands:
- /models - List and switch models of the active provider
- /clear - Reset the conversation history
- /help - Show this help
- /quit - Exit

Ctrl+C cancels an answer in progress, or exits when idle.`

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state models.State

	renderer services.MarkdownRenderer
	chat     Conversation

	// ctx parents every query; cancel stops the one in flight.
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled bool
	events    <-chan tea.Msg
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the spinner shown while an answer streams.
func DefaultSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return s
}

func newBubbleTeaModel(ctx context.Context, chat Conversation, renderer services.MarkdownRenderer, spinnerFactory SpinnerFactory) BubbleTeaModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about your devices..."
	ti.Focus()

	return BubbleTeaModel{
		state: models.State{
			Input:        ti,
			Viewport:     viewport.New(80, 20),
			Spinner:      spinnerFactory(),
			Messages:     []models.Message{},
			CurrentModel: chat.ModelName(),
		},
		renderer: renderer,
		chat:     chat,
		ctx:      ctx,
	}
}

// Internal messages
type (
	tickMsg         time.Time
	streamChunkMsg  string
	streamErrMsg    struct{ err error }
	streamDoneMsg   struct{}
	modelListMsg    []string
	modelListErrMsg struct{ err error }
)

// Init initializes the model
func (m BubbleTeaModel) Init() tea.Cmd {
	return textinput.Blink
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = max(msg.Height-5, 1) // input box and status line
		m.state.Input.Width = max(msg.Width-8, 10)
		m.updateViewport()
		return m, nil

	case tickMsg:
		if !m.state.Streaming {
			return m, nil
		}
		m.state.DotCount = (m.state.DotCount + 1) % 4
		return m, tick()

	case spinner.TickMsg:
		if !m.state.Streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case streamChunkMsg:
		m.appendChunk(string(msg))
		m.updateViewport()
		return m, waitForEvent(m.events)

	case streamErrMsg:
		m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleError, Content: msg.err.Error()})
		m.updateViewport()
		return m, waitForEvent(m.events)

	case streamDoneMsg:
		m.finishQuery()
		m.updateViewport()
		return m, nil

	case modelListMsg:
		if len(msg) == 0 {
			m.state.StatusMessage = "No models available"
			return m, nil
		}
		m.state.ModelList = []string(msg)
		m.state.ModelListIndex = 0
		m.state.ShowModelList = true
		return m, nil

	case modelListErrMsg:
		m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleError, Content: msg.err.Error()})
		m.updateViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.ShowModelList {
		return m.handlePopupKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if m.state.Streaming {
			m.cancelled = true
			m.cancel()
			return m, nil
		}
		return m, tea.Quit

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.state.Viewport, cmd = m.state.Viewport.Update(msg)
		return m, cmd

	case "enter":
		input := strings.TrimSpace(m.state.Input.Value())
		if input == "" || m.state.Streaming {
			return m, nil
		}
		m.state.Input.SetValue("")
		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}
		return m.startQuery(input)
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

func (m BubbleTeaModel) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.state.ModelListIndex > 0 {
			m.state.ModelListIndex--
		}
	case "down", "j":
		if m.state.ModelListIndex < len(m.state.ModelList)-1 {
			m.state.ModelListIndex++
		}
	case "enter":
		m.state.ShowModelList = false
		if m.state.ModelListIndex < len(m.state.ModelList) {
			model := m.state.ModelList[m.state.ModelListIndex]
			if err := m.chat.SwitchModel(model); err != nil {
				m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleError, Content: err.Error()})
				m.updateViewport()
				return m, nil
			}
			m.state.CurrentModel = m.chat.ModelName()
			m.state.StatusMessage = "Switched to " + m.state.CurrentModel
		}
	case "esc", "ctrl+c":
		m.state.ShowModelList = false
	}
	return m, nil
}

// handleCommand handles slash commands
func (m BubbleTeaModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.Fields(input)[0] {
	case "/models":
		m.state.StatusMessage = "Loading models..."
		return m, fetchModels(m.ctx, m.chat)
	case "/clear":
		if err := m.chat.Clear(m.ctx); err != nil {
			m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleError, Content: err.Error()})
		} else {
			m.state.Messages = []models.Message{{Role: models.RoleInfo, Content: "Conversation history cleared"}}
		}
	case "/help":
		m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleInfo, Content: helpText})
	case "/quit", "/exit":
		return m, tea.Quit
	default:
		m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleError, Content: "unknown command " + input + " (try /help)"})
	}
	m.updateViewport()
	return m, nil
}

func (m BubbleTeaModel) startQuery(query string) (tea.Model, tea.Cmd) {
	m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleUser, Content: query})
	m.state.Streaming = true
	m.state.StatusMessage = ""
	m.cancelled = false

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	events := make(chan tea.Msg, 16)
	m.events = events
	go pump(ctx, m.chat, query, events)

	m.updateViewport()
	return m, tea.Batch(waitForEvent(events), m.state.Spinner.Tick, tick())
}

func (m *BubbleTeaModel) finishQuery() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.cancelled {
		m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleInfo, Content: "Answer cancelled"})
	}
	m.state.Streaming = false
	m.cancelled = false
	m.events = nil
	m.state.CurrentModel = m.chat.ModelName()
}

// appendChunk adds streamed text to the answer in progress. Tool markers
// become their own entries so the answer resumes in a fresh block.
func (m *BubbleTeaModel) appendChunk(chunk string) {
	if name, ok := orchestrator.ToolMarkerName(chunk); ok {
		m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleTool, Content: name})
		return
	}
	if n := len(m.state.Messages); n > 0 && m.state.Messages[n-1].Role == models.RoleAssistant {
		m.state.Messages[n-1].Content += chunk
		return
	}
	m.state.Messages = append(m.state.Messages, models.Message{Role: models.RoleAssistant, Content: chunk})
}

// updateViewport updates the viewport content
func (m *BubbleTeaModel) updateViewport() {
	content := views.FormatChatContent(m.state.Messages, m.state.Width-4, m.state.Streaming, m.renderer)
	m.state.Viewport.SetContent(content)
	m.state.Viewport.GotoBottom()
}

// pump feeds the answer into the program. It stops sending once ctx ends so
// a cancelled query never blocks on a reader that has gone away.
func pump(ctx context.Context, chat Conversation, query string, out chan<- tea.Msg) {
	defer close(out)
	send := func(msg tea.Msg) bool {
		select {
		case out <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for chunk, err := range chat.Stream(ctx, query) {
		if err != nil {
			if ctx.Err() == nil {
				send(streamErrMsg{err: err})
			}
			return
		}
		if !send(streamChunkMsg(chunk)) {
			return
		}
	}
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return msg
	}
}

func fetchModels(ctx context.Context, chat Conversation) tea.Cmd {
	return func() tea.Msg {
		ids, err := chat.Models(ctx)
		if err != nil {
			return modelListErrMsg{err: err}
		}
		return modelListMsg(ids)
	}
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
