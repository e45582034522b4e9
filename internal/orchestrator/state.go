package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
)

// queryState is the working set of one query. It never aliases the caller's history.
type queryState struct {
	provider provider.Provider
	messages []models.Message
	start    int // index of the first message produced by this query
	tools    []models.ToolSpec
	known    map[string]struct{}
	text     strings.Builder
	turn     *models.ConversationTurn
}

func newQueryState(query string, history []models.Message, p provider.Provider) *queryState {
	messages := models.CloneMessages(history)
	start := len(messages)
	messages = append(messages, models.NewUserMessage(query))

	return &queryState{
		provider: p,
		messages: messages,
		start:    start,
		turn: &models.ConversationTurn{
			ProviderUsed: p.Name(),
			Model:        p.Model(),
		},
	}
}

// loadTools fetches the tool list fresh for this query.
func (q *queryState) loadTools(ctx context.Context, svc models.ToolService) error {
	tools, err := svc.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("tools.ListTools: %w", err)
	}
	q.tools = tools
	q.known = make(map[string]struct{}, len(tools))
	for _, t := range tools {
		q.known[t.Name] = struct{}{}
	}
	return nil
}

func (q *queryState) isKnown(name string) bool {
	_, ok := q.known[name]
	return ok
}

// toolNames lists the available tools, sorted, for diagnostics.
func (q *queryState) toolNames() string {
	names := make([]string, 0, len(q.known))
	for name := range q.known {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func (q *queryState) request(system string) *provider.Request {
	return &provider.Request{
		System:   system,
		Messages: q.messages,
		Tools:    q.tools,
	}
}

func (q *queryState) append(msg models.Message) {
	q.messages = append(q.messages, msg)
}

// appendFinal records the last assistant answer, if it said anything.
func (q *queryState) appendFinal(text string) {
	if text != "" {
		q.append(models.NewAssistantMessage(text))
	}
}

func (q *queryState) record(invocations []models.ToolInvocation) {
	q.turn.ToolInvocations = append(q.turn.ToolInvocations, invocations...)
}

// seal copies the accumulated text and new messages into the turn.
func (q *queryState) seal() {
	q.turn.FinalText = q.text.String()
	q.turn.Messages = slices.Clone(q.messages[q.start:])
}
