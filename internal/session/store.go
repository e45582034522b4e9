// Package session keeps per-session chat history between queries.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/litmusautomation/litmus-mcp-server/internal/config"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
)

// DefaultMaxPairs is the number of user/assistant exchanges kept per session.
const DefaultMaxPairs = 5

var ErrEmptySessionID = errors.New("session id cannot be empty")

// Store persists the trailing history of each session. Only the user query
// and the final assistant text are kept; tool traffic is not.
type Store interface {
	// History returns the session's messages, oldest first. Unknown
	// sessions have an empty history.
	History(ctx context.Context, id string) ([]models.Message, error)

	// Append records one exchange and trims the session to its window.
	Append(ctx context.Context, id, query, response string) error

	// Clear removes the session's history.
	Clear(ctx context.Context, id string) error

	Close() error
}

// Open creates the store selected by cfg.
func Open(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.MaxPairs), nil
	case "sqlite":
		return OpenSQLite(cfg.Path, cfg.MaxPairs)
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

func pairMessages(query, response string) []models.Message {
	return []models.Message{
		models.NewUserMessage(query),
		models.NewAssistantMessage(response),
	}
}

// trim keeps the last maxPairs exchanges.
func trim(msgs []models.Message, maxPairs int) []models.Message {
	if limit := maxPairs * 2; len(msgs) > limit {
		return msgs[len(msgs)-limit:]
	}
	return msgs
}
