package ui

import (
	"context"
	"iter"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/session"
)

// LocalSessionID keys the terminal conversation in the session store.
const LocalSessionID = "local"

// Runner streams one answer.
type Runner interface {
	RunQueryStreaming(ctx context.Context, query string, history []models.Message, p provider.Provider) iter.Seq2[string, error]
}

// Providers is the registry surface the terminal front ends need.
type Providers interface {
	Get(ctx context.Context, name, model string) (provider.Provider, error)
	ListModels(ctx context.Context, name string) ([]provider.ModelInfo, error)
	SetActive(name, model string) error
	ActiveName() string
}

// Conversation is what the chat screens drive.
type Conversation interface {
	Stream(ctx context.Context, query string) iter.Seq2[string, error]
	Clear(ctx context.Context) error
	Models(ctx context.Context) ([]string, error)
	SwitchModel(model string) error
	ModelName() string
}

// Chat binds the orchestrator, the active provider and one stored session.
type Chat struct {
	runner    Runner
	providers Providers
	store     session.Store
	sessionID string
}

func NewChat(runner Runner, providers Providers, store session.Store) *Chat {
	return &Chat{runner: runner, providers: providers, store: store, sessionID: LocalSessionID}
}

// Stream answers query against the stored history. The exchange is recorded
// only when the answer completes; failed or cancelled answers leave the
// history unchanged.
func (c *Chat) Stream(ctx context.Context, query string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		p, err := c.providers.Get(ctx, "", "")
		if err != nil {
			yield("", err)
			return
		}
		history, err := c.store.History(ctx, c.sessionID)
		if err != nil {
			yield("", err)
			return
		}

		var text strings.Builder
		for chunk, err := range c.runner.RunQueryStreaming(ctx, query, history, p) {
			if err != nil {
				yield("", err)
				return
			}
			if !orchestrator.IsToolMarker(chunk) {
				text.WriteString(chunk)
			}
			if !yield(chunk, nil) {
				return
			}
		}

		if err := c.store.Append(ctx, c.sessionID, query, text.String()); err != nil {
			yield("", err)
		}
	}
}

func (c *Chat) Clear(ctx context.Context) error {
	return c.store.Clear(ctx, c.sessionID)
}

// Models lists model ids offered by the active provider.
func (c *Chat) Models(ctx context.Context) ([]string, error) {
	infos, err := c.providers.ListModels(ctx, c.providers.ActiveName())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(infos))
	for _, m := range infos {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// SwitchModel changes the model of the active provider.
func (c *Chat) SwitchModel(model string) error {
	return c.providers.SetActive(c.providers.ActiveName(), model)
}

// ModelName returns "provider/model", or just the provider when it cannot
// be built yet.
func (c *Chat) ModelName() string {
	p, err := c.providers.Get(context.Background(), "", "")
	if err != nil {
		return c.providers.ActiveName()
	}
	return p.Name() + "/" + p.Model()
}
