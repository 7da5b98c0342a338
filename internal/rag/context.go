package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"ventana-ai/internal/contextutil"
)

const (
	contextSeparator = "\n\n---\n\n"

	// noContextSentinel stands in whenever assembly produces nothing.
	// Generation must never receive an empty context.
	noContextSentinel = "No relevant information was found for this question in the database."

	// referenceDocumentLimit caps the provisional reference list. The
	// context itself covers up to top_k documents; the asymmetry is
	// inherited behavior, kept as-is.
	referenceDocumentLimit = 3
)

// ContextAssembler turns a ranked document set into one prompt-ready text
// blob plus a provisional reference list.
type ContextAssembler struct {
	tokenBudget int
	encoder     *tiktoken.Tiktoken
}

// NewContextAssembler creates a ContextAssembler. tokenBudget > 0 enables
// truncation of oversized contexts at piece boundaries; 0 disables it.
// Token counting uses the cl100k_base encoding with the offline BPE loader,
// so no network access is needed at startup.
func NewContextAssembler(tokenBudget int) (*ContextAssembler, error) {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoder: %w", err)
	}
	return &ContextAssembler{
		tokenBudget: tokenBudget,
		encoder:     encoder,
	}, nil
}

// Build assembles documents into a RAGContext for the given question.
// Each document contributes its metadata header lines, a blank line, and
// its content; pieces are joined with a fixed separator. An empty result is
// replaced by the fixed sentinel.
func (a *ContextAssembler) Build(ctx context.Context, documents []Document, question string) RAGContext {
	logger := contextutil.LoggerFromContext(ctx)

	pieces := make([]string, 0, len(documents))
	references := make([]Reference, 0, referenceDocumentLimit)

	for i, doc := range documents {
		piece := formatPiece(doc)
		if strings.TrimSpace(piece) != "" {
			pieces = append(pieces, piece)
		}

		if i < referenceDocumentLimit {
			references = append(references, newReference(doc, i+1))
		}
	}

	pieces = a.fitToBudget(ctx, pieces)

	contextText := strings.Join(pieces, contextSeparator)
	if strings.TrimSpace(contextText) == "" {
		logger.WarnContext(ctx, "no usable content in retrieved documents", "question", question)
		contextText = noContextSentinel
	}

	logger.InfoContext(ctx, "context assembled",
		"documents", len(documents),
		"pieces", len(pieces),
		"references", len(references),
		"context_tokens", a.countTokens(contextText),
	)

	return RAGContext{
		Documents:   documents,
		ContextText: contextText,
		References:  references,
	}
}

// fitToBudget drops trailing pieces until the joined context fits the token
// budget. At least one piece always survives.
func (a *ContextAssembler) fitToBudget(ctx context.Context, pieces []string) []string {
	if a.tokenBudget <= 0 || len(pieces) == 0 {
		return pieces
	}

	logger := contextutil.LoggerFromContext(ctx)
	for len(pieces) > 1 {
		tokens := a.countTokens(strings.Join(pieces, contextSeparator))
		if tokens <= a.tokenBudget {
			return pieces
		}
		logger.WarnContext(ctx, "context over token budget, dropping lowest-ranked piece",
			"tokens", tokens, "budget", a.tokenBudget, "pieces", len(pieces))
		pieces = pieces[:len(pieces)-1]
	}
	return pieces
}

// countTokens returns the cl100k_base token count of text.
func (a *ContextAssembler) countTokens(text string) int {
	return len(a.encoder.Encode(text, nil, nil))
}

// formatPiece renders one document as metadata header lines, a blank line,
// then the content.
func formatPiece(doc Document) string {
	var header []string
	if title := metadataString(doc.Metadata["title"]); title != "" {
		header = append(header, "Title: "+title)
	}
	if sourceID := metadataString(doc.Metadata["source_id"]); sourceID != "" {
		header = append(header, "Source: "+sourceID)
	}
	if page := metadataString(doc.Metadata["page"]); page != "" {
		header = append(header, "Page: "+page)
	}

	if len(header) == 0 {
		return doc.Content
	}
	return strings.Join(header, "\n") + "\n\n" + doc.Content
}

// metadataString renders a scalar metadata value. Numeric page values come
// back from the store as integers or doubles depending on the schema.
func metadataString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
