package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_store.go -package=mocks -mock_names=ChatStore=MockChatStore ventana-ai/internal/service ChatStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService ventana-ai/internal/service ChatService

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/storage"
)

const (
	defaultChatTitle = "New Chat"
	maxTitleRunes    = 40
)

// ChatStore is the persistence surface the chat services depend on.
// This interface is defined from the service layer's perspective (consumer-first).
type ChatStore interface {
	CreateSession(ctx context.Context, title string) (*storage.ChatSession, error)
	GetSession(ctx context.Context, chatID string) (*storage.ChatSession, error)
	ListSessions(ctx context.Context) ([]storage.ChatSession, error)
	DeleteSession(ctx context.Context, chatID string) error
	AppendMessage(ctx context.Context, msg *storage.ChatMessage) error
	History(ctx context.Context, chatID string, n int) ([]storage.ChatMessage, error)
	UpdateTitle(ctx context.Context, chatID, title string) error
}

// ChatService manages chat sessions.
type ChatService interface {
	// CreateChat creates a new chat session with the given title.
	// An empty title falls back to a default.
	CreateChat(ctx context.Context, title string) (*storage.ChatSession, error)
	// GetChat loads a chat session with its messages.
	GetChat(ctx context.Context, chatID string) (*storage.ChatSession, error)
	// ListChats returns all chat sessions, most recently updated first.
	ListChats(ctx context.Context) ([]storage.ChatSession, error)
	// DeleteChat removes a chat session and its messages.
	DeleteChat(ctx context.Context, chatID string) error
}

// chatService implements ChatService.
type chatService struct {
	store ChatStore
}

// NewChatService creates a new ChatService.
func NewChatService(store ChatStore) ChatService {
	return &chatService{store: store}
}

func (s *chatService) CreateChat(ctx context.Context, title string) (*storage.ChatSession, error) {
	logger := contextutil.LoggerFromContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultChatTitle
	}

	session, err := s.store.CreateSession(ctx, title)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create chat session", "error", err)
		return nil, WrapError(err, "failed to create chat session")
	}

	logger.InfoContext(ctx, "chat session created", "chat_id", session.ID)
	return session, nil
}

func (s *chatService) GetChat(ctx context.Context, chatID string) (*storage.ChatSession, error) {
	if chatID == "" {
		return nil, &ValidationError{Field: "chat_id", Message: "cannot be empty"}
	}

	session, err := s.store.GetSession(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, WrapError(err, "failed to get chat session")
	}

	return session, nil
}

func (s *chatService) ListChats(ctx context.Context) ([]storage.ChatSession, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list chat sessions")
	}
	return sessions, nil
}

func (s *chatService) DeleteChat(ctx context.Context, chatID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if chatID == "" {
		return &ValidationError{Field: "chat_id", Message: "cannot be empty"}
	}

	if err := s.store.DeleteSession(ctx, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to delete chat session", "error", err, "chat_id", chatID)
		return WrapError(err, "failed to delete chat session")
	}

	logger.InfoContext(ctx, "chat session deleted", "chat_id", chatID)
	return nil
}

// deriveTitle turns the first question of a chat into a short session
// title. Markdown formatting is stripped so headings or emphasis in the
// question do not leak into the title.
func deriveTitle(question string) string {
	title := strings.TrimSpace(stripMarkdown(question))
	if title == "" {
		return defaultChatTitle
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes])) + "..."
	}
	return title
}

// stripMarkdown renders markdown source down to its plain text content.
func stripMarkdown(source string) string {
	md := goldmark.New()
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(buf.String()), " ")
}
