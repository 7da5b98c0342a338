package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatStore persists chat sessions and their messages.
type ChatStore struct {
	db *sql.DB
}

// NewChatStore creates a ChatStore backed by the given database.
func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

// CreateSession inserts a new chat session and returns it.
func (s *ChatStore) CreateSession(ctx context.Context, title string) (*ChatSession, error) {
	session := &ChatSession{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, session.ID, session.Title, session.CreatedAt, session.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	return session, nil
}

// GetSession loads a session and all of its messages in chronological
// order. Returns sql.ErrNoRows when the session does not exist.
func (s *ChatStore) GetSession(ctx context.Context, chatID string) (*ChatSession, error) {
	session := &ChatSession{}
	query := `SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	msgQuery := `SELECT id, chat_id, content, is_bot, created_at, COALESCE(references_json, '')
		FROM messages WHERE chat_id = ? ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, msgQuery, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Content, &msg.IsBot, &msg.Timestamp, &msg.References); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return session, nil
}

// ListSessions returns all sessions ordered by most recently updated,
// without their messages.
func (s *ChatStore) ListSessions(ctx context.Context) ([]ChatSession, error) {
	query := `SELECT id, title, created_at, updated_at FROM chats ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		var session ChatSession
		if err := rows.Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a session and, via the cascade, its messages.
// Returns sql.ErrNoRows when the session does not exist.
func (s *ChatStore) DeleteSession(ctx context.Context, chatID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// AppendMessage stores a message on a session and bumps the session's
// updated_at timestamp.
func (s *ChatStore) AppendMessage(ctx context.Context, msg *ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO messages (id, chat_id, content, is_bot, created_at, references_json)
		VALUES (?, ?, ?, ?, ?, ?)`
	var refs any
	if msg.References != "" {
		refs = msg.References
	}
	if _, err := tx.ExecContext(ctx, query, msg.ID, msg.ChatID, msg.Content, msg.IsBot, msg.Timestamp, refs); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, time.Now().UTC(), msg.ChatID); err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat message: %w", err)
	}

	return nil
}

// History returns the last n messages of a session in chronological
// order, oldest first.
func (s *ChatStore) History(ctx context.Context, chatID string, n int) ([]ChatMessage, error) {
	query := `SELECT id, chat_id, content, is_bot, created_at, COALESCE(references_json, '')
		FROM (
			SELECT id, chat_id, content, is_bot, created_at, references_json
			FROM messages WHERE chat_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		) ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, chatID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Content, &msg.IsBot, &msg.Timestamp, &msg.References); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat history: %w", err)
	}

	return messages, nil
}

// UpdateTitle sets a new title on a session. Returns sql.ErrNoRows
// when the session does not exist.
func (s *ChatStore) UpdateTitle(ctx context.Context, chatID, title string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`, title, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
