package session

import (
	"context"
	"sync"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
)

// MemoryStore keeps history in process memory. It is lost on restart.
type MemoryStore struct {
	maxPairs int

	mu       sync.Mutex
	sessions map[string][]models.Message
}

func NewMemoryStore(maxPairs int) *MemoryStore {
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	return &MemoryStore{maxPairs: maxPairs, sessions: make(map[string][]models.Message)}
}

func (s *MemoryStore) History(ctx context.Context, id string) ([]models.Message, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneMessages(s.sessions[id]), nil
}

func (s *MemoryStore) Append(ctx context.Context, id, query, response string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.sessions[id], pairMessages(query, response)...)
	s.sessions[id] = append([]models.Message(nil), trim(msgs, s.maxPairs)...)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
