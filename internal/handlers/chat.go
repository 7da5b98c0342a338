package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/service"
	"ventana-ai/internal/storage"
)

// ChatHandler handles HTTP requests for chat session management.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// CreateChatRequest represents the HTTP request payload for creating a chat.
//
// swagger:model CreateChatRequest
type CreateChatRequest struct {
	Title string `json:"title,omitempty"`
}

// ChatSummaryResponse represents a chat session without its messages.
//
// swagger:model ChatSummaryResponse
type ChatSummaryResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ChatMessageResponse represents a single message in a chat session.
//
// swagger:model ChatMessageResponse
type ChatMessageResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	IsBot     bool   `json:"is_bot"`
	Timestamp string `json:"timestamp"`

	// References holds the source references backing a bot answer,
	// as stored when the answer was produced.
	References json.RawMessage `json:"references,omitempty"`
}

// ChatDetailResponse represents a chat session with its messages.
//
// swagger:model ChatDetailResponse
type ChatDetailResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	CreatedAt string                `json:"created_at"`
	UpdatedAt string                `json:"updated_at"`
	Messages  []ChatMessageResponse `json:"messages"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// Create handles chat session creation.
//
// swagger:route POST /api/chats createChat
//
// # Create a chat session
//
// Creates a new chat session. An omitted or empty title gets a default;
// the session is renamed after its first question.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Created chat session
//	  schema:
//	    "$ref": "#/definitions/ChatSummaryResponse"
//	'400':
//	  description: Invalid request body
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateChatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	session, err := h.chatService.CreateChat(ctx, req.Title)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create chat", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}

	writeJSON(w, http.StatusCreated, toChatSummary(*session))
}

// List handles listing all chat sessions.
//
// swagger:route GET /api/chats listChats
//
// # List chat sessions
//
// Returns all chat sessions, most recently updated first, without messages.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Chat sessions
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/ChatSummaryResponse"
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	sessions, err := h.chatService.ListChats(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list chats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}

	summaries := make([]ChatSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, toChatSummary(session))
	}

	writeJSON(w, http.StatusOK, summaries)
}

// Get handles loading a single chat session with its messages.
//
// swagger:route GET /api/chats/{chatID} getChat
//
// # Get a chat session
//
// Returns a chat session with its full message history.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Chat session with messages
//	  schema:
//	    "$ref": "#/definitions/ChatDetailResponse"
//	'404':
//	  description: Chat not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	chatID := chi.URLParam(r, "chatID")

	session, err := h.chatService.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Message)
			return
		}
		logger.ErrorContext(ctx, "failed to get chat", "error", err, "chat_id", chatID)
		writeError(w, http.StatusInternalServerError, "Failed to get chat")
		return
	}

	resp := ChatDetailResponse{
		ID:        session.ID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.UTC().Format(time.RFC3339),
		Messages:  make([]ChatMessageResponse, 0, len(session.Messages)),
	}
	for _, msg := range session.Messages {
		resp.Messages = append(resp.Messages, toChatMessage(msg))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete handles deleting a chat session.
//
// swagger:route DELETE /api/chats/{chatID} deleteChat
//
// # Delete a chat session
//
// Removes a chat session and all of its messages.
//
// ---
// produces:
// - application/json
// responses:
//
//	'204':
//	  description: Chat deleted
//	'404':
//	  description: Chat not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	chatID := chi.URLParam(r, "chatID")

	if err := h.chatService.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Message)
			return
		}
		logger.ErrorContext(ctx, "failed to delete chat", "error", err, "chat_id", chatID)
		writeError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toChatSummary(session storage.ChatSession) ChatSummaryResponse {
	return ChatSummaryResponse{
		ID:        session.ID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toChatMessage(msg storage.ChatMessage) ChatMessageResponse {
	resp := ChatMessageResponse{
		ID:        msg.ID,
		Content:   msg.Content,
		IsBot:     msg.IsBot,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	}
	if msg.References != "" && json.Valid([]byte(msg.References)) {
		resp.References = json.RawMessage(msg.References)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}
