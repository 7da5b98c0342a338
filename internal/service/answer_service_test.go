package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"ventana-ai/internal/rag"
	"ventana-ai/internal/service"
	"ventana-ai/internal/service/mocks"
	"ventana-ai/internal/storage"
)

func TestAnswerService_ProcessQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockConversationEngine(ctrl)
	store := mocks.NewMockChatStore(ctrl)
	svc := service.NewAnswerService(engine, store)

	session := &storage.ChatSession{ID: "chat-1", Title: "New Chat"}
	stored := []storage.ChatMessage{
		{Content: "earlier question", IsBot: false},
		{Content: "earlier answer", IsBot: true},
	}

	store.EXPECT().GetSession(gomock.Any(), "chat-1").Return(session, nil)
	store.EXPECT().History(gomock.Any(), "chat-1", 10).Return(stored, nil)

	var savedMessages []*storage.ChatMessage
	store.EXPECT().
		AppendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msg *storage.ChatMessage) error {
			msg.ID = "msg-" + msg.Content[:1]
			savedMessages = append(savedMessages, msg)
			return nil
		}).
		Times(2)
	store.EXPECT().UpdateTitle(gomock.Any(), "chat-1", "What happened?").Return(nil)

	engine.EXPECT().
		Answer(gomock.Any(), "What happened?", []rag.HistoryMessage{
			{Content: "earlier question", IsBot: false},
			{Content: "earlier answer", IsBot: true},
		}).
		Return(rag.Result{
			Answer: "Documented events [1].",
			Contexts: []rag.CollectedContext{{
				SubQuestion: "What happened?",
				Documents: []rag.Document{{
					Content:  "fragment",
					Metadata: map[string]any{"title": "Tomo I", "page": "5"},
				}},
			}},
		}, nil)

	result, err := svc.ProcessQuestion(context.Background(), "chat-1", "What happened?")
	if err != nil {
		t.Fatalf("ProcessQuestion() error = %v", err)
	}

	if !strings.HasPrefix(result.Answer, "Documented events [1].") {
		t.Errorf("Answer = %q", result.Answer)
	}
	if !strings.Contains(result.Answer, "Sources:") || !strings.Contains(result.Answer, "Tomo I") {
		t.Errorf("Answer missing rendered Sources section:\n%s", result.Answer)
	}
	if len(result.References) != 1 {
		t.Fatalf("References = %d, want 1", len(result.References))
	}

	if len(savedMessages) != 2 {
		t.Fatalf("saved %d messages, want question and answer", len(savedMessages))
	}
	if savedMessages[0].IsBot || savedMessages[0].Content != "What happened?" {
		t.Errorf("first saved message = %+v", savedMessages[0])
	}
	if !savedMessages[1].IsBot {
		t.Error("second saved message is not a bot message")
	}
	if !strings.Contains(savedMessages[1].References, "Tomo I") {
		t.Errorf("bot message references = %q", savedMessages[1].References)
	}
}

func TestAnswerService_EngineFailureStoresApology(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockConversationEngine(ctrl)
	store := mocks.NewMockChatStore(ctrl)
	svc := service.NewAnswerService(engine, store)

	session := &storage.ChatSession{
		ID:       "chat-1",
		Title:    "Existing title",
		Messages: []storage.ChatMessage{{Content: "prior"}},
	}

	store.EXPECT().GetSession(gomock.Any(), "chat-1").Return(session, nil)
	store.EXPECT().History(gomock.Any(), "chat-1", 10).Return(nil, nil)

	var botMessage *storage.ChatMessage
	store.EXPECT().
		AppendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msg *storage.ChatMessage) error {
			if msg.IsBot {
				botMessage = msg
			}
			return nil
		}).
		Times(2)

	engine.EXPECT().
		Answer(gomock.Any(), "question", gomock.Any()).
		Return(rag.Result{}, &rag.CollectionUnavailableError{Attempted: []string{"docs"}})

	result, err := svc.ProcessQuestion(context.Background(), "chat-1", "question")
	if err != nil {
		t.Fatalf("ProcessQuestion() error = %v, the apology must be the answer", err)
	}

	if !strings.HasPrefix(result.Answer, "I apologize") {
		t.Errorf("Answer = %q, want fixed apology", result.Answer)
	}
	if len(result.References) != 0 {
		t.Errorf("References = %d, want 0", len(result.References))
	}
	if botMessage == nil || botMessage.Content != result.Answer {
		t.Errorf("stored bot message = %+v", botMessage)
	}
	if botMessage.References != "" {
		t.Errorf("failure answers must carry no references, got %q", botMessage.References)
	}
}

func TestAnswerService_ChatNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockConversationEngine(ctrl)
	store := mocks.NewMockChatStore(ctrl)
	store.EXPECT().GetSession(gomock.Any(), "missing").Return(nil, sql.ErrNoRows)

	svc := service.NewAnswerService(engine, store)
	_, err := svc.ProcessQuestion(context.Background(), "missing", "question")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("ProcessQuestion() error = %v, want ErrNotFound", err)
	}
}

func TestAnswerService_EmptyQuestionRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewAnswerService(mocks.NewMockConversationEngine(ctrl), mocks.NewMockChatStore(ctrl))
	_, err := svc.ProcessQuestion(context.Background(), "chat-1", "")

	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ProcessQuestion() error = %T, want *ValidationError", err)
	}
	if validationErr.Field != "question" {
		t.Errorf("Field = %q, want question", validationErr.Field)
	}
}

func TestAnswerService_TitleNotChangedOnLaterQuestions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockConversationEngine(ctrl)
	store := mocks.NewMockChatStore(ctrl)
	svc := service.NewAnswerService(engine, store)

	session := &storage.ChatSession{
		ID:       "chat-1",
		Title:    "New Chat",
		Messages: []storage.ChatMessage{{Content: "prior question"}},
	}

	store.EXPECT().GetSession(gomock.Any(), "chat-1").Return(session, nil)
	store.EXPECT().History(gomock.Any(), "chat-1", 10).Return(nil, nil)
	store.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	// No UpdateTitle expectation: the session already has messages.

	engine.EXPECT().
		Answer(gomock.Any(), "another question", gomock.Any()).
		Return(rag.Result{Answer: "answer"}, nil)

	if _, err := svc.ProcessQuestion(context.Background(), "chat-1", "another question"); err != nil {
		t.Fatalf("ProcessQuestion() error = %v", err)
	}
}
