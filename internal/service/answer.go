package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_conversation_engine.go -package=mocks ventana-ai/internal/service ConversationEngine
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answer_service.go -package=mocks -mock_names=AnswerService=MockAnswerService ventana-ai/internal/service AnswerService

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/rag"
	"ventana-ai/internal/storage"
)

// historyFetchLimit is how many stored messages are handed to the
// conversation engine, which applies its own window on top.
const historyFetchLimit = 10

// ConversationEngine answers a question against the document corpus,
// using prior turns of the conversation for context.
// This interface is defined from the service layer's perspective (consumer-first).
type ConversationEngine interface {
	Answer(ctx context.Context, question string, history []rag.HistoryMessage) (rag.Result, error)
}

// QuestionResult is the outcome of processing a question on a chat.
type QuestionResult struct {
	Answer     string
	References []rag.Reference
	MessageID  string
	Timestamp  time.Time
}

// AnswerService processes questions on chat sessions.
type AnswerService interface {
	// ProcessQuestion records the question, produces an answer with
	// source references, and records the answer on the chat.
	ProcessQuestion(ctx context.Context, chatID, question string) (*QuestionResult, error)
}

// answerService implements AnswerService.
type answerService struct {
	engine ConversationEngine
	store  ChatStore
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(engine ConversationEngine, store ChatStore) AnswerService {
	return &answerService{engine: engine, store: store}
}

func (s *answerService) ProcessQuestion(ctx context.Context, chatID, question string) (*QuestionResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if question == "" {
		logger.WarnContext(ctx, "empty question in request", "chat_id", chatID)
		return nil, &ValidationError{Field: "question", Message: "cannot be empty"}
	}

	session, err := s.store.GetSession(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, WrapError(err, "failed to load chat session")
	}

	stored, err := s.store.History(ctx, chatID, historyFetchLimit)
	if err != nil {
		return nil, WrapError(err, "failed to load chat history")
	}
	history := make([]rag.HistoryMessage, 0, len(stored))
	for _, msg := range stored {
		history = append(history, rag.HistoryMessage{Content: msg.Content, IsBot: msg.IsBot})
	}

	userMsg := &storage.ChatMessage{ChatID: chatID, Content: question, IsBot: false}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, WrapError(err, "failed to store question")
	}

	// Name the chat after its first question.
	if len(session.Messages) == 0 && session.Title == defaultChatTitle {
		if err := s.store.UpdateTitle(ctx, chatID, deriveTitle(question)); err != nil {
			logger.WarnContext(ctx, "failed to update chat title", "error", err, "chat_id", chatID)
		}
	}

	answer, references := s.answer(ctx, question, history)

	botMsg := &storage.ChatMessage{ChatID: chatID, Content: answer, IsBot: true}
	if len(references) > 0 {
		encoded, err := json.Marshal(references)
		if err != nil {
			logger.WarnContext(ctx, "failed to encode references", "error", err)
		} else {
			botMsg.References = string(encoded)
		}
	}
	if err := s.store.AppendMessage(ctx, botMsg); err != nil {
		return nil, WrapError(err, "failed to store answer")
	}

	logger.InfoContext(ctx, "question processed",
		"chat_id", chatID,
		"answer_length", len(answer),
		"reference_count", len(references))

	return &QuestionResult{
		Answer:     answer,
		References: references,
		MessageID:  botMsg.ID,
		Timestamp:  botMsg.Timestamp,
	}, nil
}

// answer runs the conversation engine and post-processes its output.
// Engine failures are translated into a user-facing message rather
// than an error: the apology is the answer the chat records.
func (s *answerService) answer(ctx context.Context, question string, history []rag.HistoryMessage) (string, []rag.Reference) {
	logger := contextutil.LoggerFromContext(ctx)

	result, err := s.engine.Answer(ctx, question, history)
	if err != nil {
		logger.ErrorContext(ctx, "conversation engine failed", "error", err)
		return rag.UserMessage(err), nil
	}

	references := rag.ExtractReferences(result.Contexts)
	answer, references := rag.RenderSources(result.Answer, references)
	return answer, references
}
