package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"ventana-ai/internal/service"
	"ventana-ai/internal/service/mocks"
	"ventana-ai/internal/storage"
)

func init() {
	// Suppress handler logging during tests.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// chatRouter mounts the chat handler the way the real router does, so
// chi URL parameters resolve in tests.
func chatRouter(handler *ChatHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/chats", handler.Create)
	r.Get("/api/chats", handler.List)
	r.Get("/api/chats/{chatID}", handler.Get)
	r.Delete("/api/chats/{chatID}", handler.Delete)
	return r
}

func TestChatHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		body       string
		mockSetup  func(*mocks.MockChatService)
		wantStatus int
		wantTitle  string
	}{
		{
			name: "with title",
			body: `{"title": "My chat"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					CreateChat(gomock.Any(), "My chat").
					Return(&storage.ChatSession{ID: "chat-1", Title: "My chat"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantTitle:  "My chat",
		},
		{
			name: "empty body uses default title",
			body: "",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					CreateChat(gomock.Any(), "").
					Return(&storage.ChatSession{ID: "chat-2", Title: "New Chat"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantTitle:  "New Chat",
		},
		{
			name:       "malformed body",
			body:       `{"title":`,
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "service failure",
			body: `{"title": "x"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					CreateChat(gomock.Any(), "x").
					Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockService)

			router := chatRouter(NewChatHandler(mockService))
			req := httptest.NewRequest(http.MethodPost, "/api/chats", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantTitle == "" {
				return
			}
			var resp ChatSummaryResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid response body: %v", err)
			}
			if resp.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", resp.Title, tt.wantTitle)
			}
		})
	}
}

func TestChatHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockChatService(ctrl)
	mockService.EXPECT().ListChats(gomock.Any()).Return([]storage.ChatSession{
		{ID: "chat-1", Title: "first"},
		{ID: "chat-2", Title: "second"},
	}, nil)

	router := chatRouter(NewChatHandler(mockService))
	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp []ChatSummaryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "chat-1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestChatHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now().UTC()
	tests := []struct {
		name       string
		chatID     string
		mockSetup  func(*mocks.MockChatService)
		wantStatus int
	}{
		{
			name:   "found with messages",
			chatID: "chat-1",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					GetChat(gomock.Any(), "chat-1").
					Return(&storage.ChatSession{
						ID: "chat-1", Title: "t", CreatedAt: now, UpdatedAt: now,
						Messages: []storage.ChatMessage{
							{ID: "m1", Content: "q", IsBot: false, Timestamp: now},
							{ID: "m2", Content: "a", IsBot: true, Timestamp: now, References: `[{"number":1,"title":"Tomo I","source_id":"","page":"5","year":"2022","publisher":"p","isbn":"i"}]`},
						},
					}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "not found",
			chatID: "missing",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().GetChat(gomock.Any(), "missing").Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockService)

			router := chatRouter(NewChatHandler(mockService))
			req := httptest.NewRequest(http.MethodGet, "/api/chats/"+tt.chatID, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp ChatDetailResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid response body: %v", err)
			}
			if len(resp.Messages) != 2 {
				t.Fatalf("messages = %d, want 2", len(resp.Messages))
			}
			if resp.Messages[1].References == nil {
				t.Error("bot message references not forwarded")
			}
			if resp.Messages[0].References != nil {
				t.Error("user message must carry no references")
			}
		})
	}
}

func TestChatHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		chatID     string
		err        error
		wantStatus int
	}{
		{name: "deleted", chatID: "chat-1", err: nil, wantStatus: http.StatusNoContent},
		{name: "not found", chatID: "missing", err: service.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "failure", chatID: "chat-1", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := mocks.NewMockChatService(ctrl)
			mockService.EXPECT().DeleteChat(gomock.Any(), tt.chatID).Return(tt.err)

			router := chatRouter(NewChatHandler(mockService))
			req := httptest.NewRequest(http.MethodDelete, "/api/chats/"+tt.chatID, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Error != "test error" {
		t.Errorf("error = %q", resp.Error)
	}
}
