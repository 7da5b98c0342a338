package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/vectorstore"
)

// Content fallbacks when a hit has no usable content field.
const (
	titledContentFormat = "Document titled: %s"
	noContentSentinel   = "No content available"
)

// rawSchema identifies which historical payload shape a hit carries.
type rawSchema int

const (
	// schemaContentMetadata is the older shape: a "content" field plus a
	// "metadata" field holding a JSON-encoded string.
	schemaContentMetadata rawSchema = iota
	// schemaFlatFields is the newer shape: "text" plus flat fields
	// (title, type, link, source_id, page) and dynamic extras.
	schemaFlatFields
	// schemaUnknown is anything else; all payload fields are kept and the
	// content fallback chain decides the text.
	schemaUnknown
)

// SearchAdapter runs similarity searches against the resolved collection,
// reconciling query-vector dimensions and normalizing heterogeneous result
// payloads into Documents.
type SearchAdapter struct {
	store    vectorstore.VectorStore
	resolver *Resolver
}

// NewSearchAdapter creates a SearchAdapter bound to a resolver.
func NewSearchAdapter(store vectorstore.VectorStore, resolver *Resolver) *SearchAdapter {
	return &SearchAdapter{store: store, resolver: resolver}
}

// Search returns up to topK documents ordered by descending score.
// A resolved-but-empty collection is rejected with ErrEmptyCollection
// before any similarity query is issued.
func (a *SearchAdapter) Search(ctx context.Context, vector []float32, topK int) ([]Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	resolved, err := a.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	info, err := a.store.GetCollectionInfo(ctx, resolved.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect collection %s: %w", resolved.Name, err)
	}
	if info.PointsCount == 0 {
		logger.WarnContext(ctx, "collection is empty, refusing to search", "collection", resolved.Name)
		return nil, ErrEmptyCollection
	}

	vector = reconcileVector(ctx, vector, resolved.Dimension)

	hits, err := a.store.Search(ctx, resolved.Name, vector, topK)
	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(hits))
	for _, hit := range hits {
		documents = append(documents, projectHit(ctx, hit))
	}

	// The store returns ranked results; keep the contract explicit.
	sort.SliceStable(documents, func(i, j int) bool {
		return documents[i].Score > documents[j].Score
	})

	logger.InfoContext(ctx, "vector search completed",
		"collection", resolved.Name, "top_k", topK, "results", len(documents))
	return documents, nil
}

// reconcileVector adjusts a query vector to exactly the collection's
// dimension: truncate the prefix when longer, zero-pad the suffix when
// shorter. This is a degraded-mode compatibility shim for collections built
// with a different embedding model; each occurrence is logged.
func reconcileVector(ctx context.Context, vector []float32, dimension int) []float32 {
	if dimension <= 0 || len(vector) == dimension {
		return vector
	}

	logger := contextutil.LoggerFromContext(ctx)
	logger.WarnContext(ctx, "query vector dimension reconciled",
		"vector_dimension", len(vector), "collection_dimension", dimension)

	if len(vector) > dimension {
		return vector[:dimension]
	}

	padded := make([]float32, dimension)
	copy(padded, vector)
	return padded
}

// detectSchema determines which historical payload shape a hit carries.
func detectSchema(payload map[string]any) rawSchema {
	if _, ok := payload["text"]; ok {
		return schemaFlatFields
	}
	if _, ok := payload["content"]; ok {
		return schemaContentMetadata
	}
	return schemaUnknown
}

// projectHit normalizes one raw hit into a Document using the adapter
// matching its detected schema.
func projectHit(ctx context.Context, hit vectorstore.Hit) Document {
	switch detectSchema(hit.Payload) {
	case schemaFlatFields:
		return projectFlatFields(hit)
	case schemaContentMetadata:
		return projectContentMetadata(ctx, hit)
	default:
		return projectGeneric(hit)
	}
}

// projectFlatFields handles the {text, title, type, link, source_id, page,
// dynamic extras} shape. Known metadata fields are copied; any remaining
// payload field except the text itself is kept as a dynamic extra.
func projectFlatFields(hit vectorstore.Hit) Document {
	metadata := make(map[string]any)
	for _, field := range []string{"title", "type", "link", "source_id", "page"} {
		if value, ok := hit.Payload[field]; ok {
			metadata[field] = value
		}
	}
	for key, value := range hit.Payload {
		switch key {
		case "text", "embedding", "id":
			continue
		}
		if _, known := metadata[key]; !known {
			metadata[key] = value
		}
	}

	return Document{
		Content:        resolveContent(hit.Payload),
		Metadata:       metadata,
		Score:          hit.Score,
		OriginalFields: hit.Payload,
	}
}

// projectContentMetadata handles the older {content, metadata-as-JSON-string}
// shape. A metadata field that fails to decode yields an empty map, never
// an error.
func projectContentMetadata(ctx context.Context, hit vectorstore.Hit) Document {
	metadata := make(map[string]any)
	switch raw := hit.Payload["metadata"].(type) {
	case string:
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to decode metadata field", "error", err)
			metadata = make(map[string]any)
		}
	case map[string]any:
		metadata = raw
	}

	return Document{
		Content:        resolveContent(hit.Payload),
		Metadata:       metadata,
		Score:          hit.Score,
		OriginalFields: hit.Payload,
	}
}

// projectGeneric handles unrecognized payloads: every field except the
// vector becomes metadata and the content chain decides the text.
func projectGeneric(hit vectorstore.Hit) Document {
	metadata := make(map[string]any)
	for key, value := range hit.Payload {
		if key == "embedding" || key == "id" {
			continue
		}
		metadata[key] = value
	}

	return Document{
		Content:        resolveContent(hit.Payload),
		Metadata:       metadata,
		Score:          hit.Score,
		OriginalFields: hit.Payload,
	}
}

// resolveContent picks a document's text: explicit content fields first,
// then fallback fields, then a title-derived placeholder, then the fixed
// sentinel.
func resolveContent(payload map[string]any) string {
	for _, field := range []string{"content", "text", "abstract", "body"} {
		if value, ok := payload[field].(string); ok && value != "" {
			return value
		}
	}
	if title, ok := payload["title"].(string); ok && title != "" {
		return fmt.Sprintf(titledContentFormat, title)
	}
	return noContentSentinel
}
