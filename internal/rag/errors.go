package rag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyCollection is returned when the resolved collection exists but
// holds no entities. Some backends return ambiguous shapes when searching
// an empty index, so this is checked before any similarity query.
var ErrEmptyCollection = errors.New("collection is empty")

// CollectionUnavailableError is returned when no candidate collection
// exists and has data. It carries every name that was attempted.
type CollectionUnavailableError struct {
	Attempted []string
}

func (e *CollectionUnavailableError) Error() string {
	return fmt.Sprintf("no usable collection found, attempted: %s", strings.Join(e.Attempted, ", "))
}

// EmbeddingError wraps an embedding provider failure.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding generation failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// CompletionError wraps a completion provider failure or timeout.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Fixed user-facing messages per error category. Raw provider errors are
// only ever logged for operators.
const (
	msgCollectionUnavailable = "I apologize, but the document archive is currently unavailable. Please try again later."
	msgEmptyCollection       = "I apologize, but the document archive contains no data to search yet. Please try again later."
	msgEmbeddingFailed       = "I apologize, but I couldn't analyze your question right now. Please try again later."
	msgCompletionFailed      = "I apologize, but I couldn't process your question. Please try again."
	msgGenericFailure        = "I apologize, but I couldn't process your question. Please try again."
)

// UserMessage maps a run-terminating error to its fixed, category-specific
// user-facing answer.
func UserMessage(err error) string {
	var unavailable *CollectionUnavailableError
	var embedding *EmbeddingError
	var completion *CompletionError

	switch {
	case errors.As(err, &unavailable):
		return msgCollectionUnavailable
	case errors.Is(err, ErrEmptyCollection):
		return msgEmptyCollection
	case errors.As(err, &embedding):
		return msgEmbeddingFailed
	case errors.As(err, &completion):
		return msgCompletionFailed
	default:
		return msgGenericFailure
	}
}
