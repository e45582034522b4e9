package session

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps history in a SQLite database so it survives restarts.
type SQLiteStore struct {
	conn     *sql.DB
	maxPairs int
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, maxPairs int) (*SQLiteStore, error) {
	// Expand leading ~ to actual home directory.
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers and keeps the pragmas in effect.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}

	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	return &SQLiteStore{conn: conn, maxPairs: maxPairs}, nil
}

func (s *SQLiteStore) History(ctx context.Context, id string) ([]models.Message, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		msgs = append(msgs, models.Message{
			Role:  models.Role(role),
			Parts: []models.Part{models.TextPart{Text: content}},
		})
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, id, query, response string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, msg := range pairMessages(query, response) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			id, string(msg.Role), msg.Text(), now); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`, id, id, s.maxPairs*2); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
