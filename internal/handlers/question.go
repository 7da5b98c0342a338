package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/rag"
	"ventana-ai/internal/service"
)

// QuestionHandler handles HTTP requests for asking questions on a chat.
type QuestionHandler struct {
	answerService service.AnswerService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(answerService service.AnswerService) *QuestionHandler {
	return &QuestionHandler{answerService: answerService}
}

// QuestionRequest represents the HTTP request payload for a question.
//
// swagger:model QuestionRequest
type QuestionRequest struct {
	Question string `json:"question"`
}

// ReferenceResponse represents a source reference in the HTTP response.
//
// swagger:model ReferenceResponse
type ReferenceResponse struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	SourceID  string `json:"source_id,omitempty"`
	Page      string `json:"page,omitempty"`
	Year      string `json:"year"`
	Publisher string `json:"publisher"`
	ISBN      string `json:"isbn"`
	URL       string `json:"url,omitempty"`
}

// QuestionResponse represents the HTTP response payload for a question.
//
// swagger:model QuestionResponse
type QuestionResponse struct {
	// The generated answer, including its rendered Sources section
	Answer string `json:"answer"`

	// List of source references backing the answer
	References []ReferenceResponse `json:"references"`

	// ID of the stored bot message
	MessageID string `json:"message_id"`

	// Timestamp of the stored bot message
	Timestamp string `json:"timestamp"`
}

// ServeHTTP handles HTTP requests for asking questions.
//
// Ask a question on an existing chat session. The system retrieves
// relevant documents from the corpus, generates an answer with source
// citations, and records both the question and the answer on the chat.
//
// swagger:route POST /api/chats/{chatID}/questions askQuestion
//
// # Ask a question on a chat
//
// Answers a question using retrieval over the indexed document corpus,
// taking recent turns of the chat into account. Retrieval or generation
// failures produce a stored fallback answer rather than an error.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with source references
//	  schema:
//	    "$ref": "#/definitions/QuestionResponse"
//	'400':
//	  description: Invalid request body or empty question
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Chat not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QuestionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	chatID := chi.URLParam(r, "chatID")

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	result, err := h.answerService.ProcessQuestion(ctx, chatID, req.Question)
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
		logger.ErrorContext(ctx, "failed to process question", "error", err, "chat_id", chatID)
		writeError(w, http.StatusInternalServerError, "Failed to process question")
		return
	}

	references := make([]ReferenceResponse, 0, len(result.References))
	for _, ref := range result.References {
		references = append(references, toReference(ref))
	}

	writeJSON(w, http.StatusOK, QuestionResponse{
		Answer:     result.Answer,
		References: references,
		MessageID:  result.MessageID,
		Timestamp:  result.Timestamp.UTC().Format(time.RFC3339),
	})
}

func toReference(ref rag.Reference) ReferenceResponse {
	return ReferenceResponse{
		Number:    ref.Number,
		Title:     ref.Title,
		SourceID:  ref.SourceID,
		Page:      ref.Page,
		Year:      ref.Year,
		Publisher: ref.Publisher,
		ISBN:      ref.ISBN,
		URL:       ref.URL,
	}
}
