package rag

import (
	"context"

	"ventana-ai/internal/contextutil"
)

// Embedder converts question text to a fixed-length vector.
// This interface is defined from the retrieval pipeline's perspective.
type Embedder interface {
	// EmbedQuery generates an embedding vector for a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever answers one sub-question with an assembled RAG context.
type Retriever interface {
	// Retrieve embeds the question, searches the resolved collection, and
	// assembles the ranked documents into a prompt-ready context.
	Retrieve(ctx context.Context, question string) (RAGContext, error)
}

// retriever chains EmbeddingGateway -> VectorSearchAdapter -> ContextAssembler.
type retriever struct {
	embedder  Embedder
	search    *SearchAdapter
	assembler *ContextAssembler
	resolver  *Resolver
	topK      int

	// zeroFallback substitutes an all-zero query vector on embedding
	// failure instead of surfacing the error. Explicit opt-in only: the
	// substitution makes a provider outage indistinguishable from "no
	// similar documents".
	zeroFallback bool
}

// NewRetriever creates the retrieval pipeline for one collection.
func NewRetriever(embedder Embedder, search *SearchAdapter, assembler *ContextAssembler, resolver *Resolver, topK int, zeroFallback bool) Retriever {
	return &retriever{
		embedder:     embedder,
		search:       search,
		assembler:    assembler,
		resolver:     resolver,
		topK:         topK,
		zeroFallback: zeroFallback,
	}
}

// Retrieve implements Retriever.
func (r *retriever) Retrieve(ctx context.Context, question string) (RAGContext, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		if !r.zeroFallback {
			logger.ErrorContext(ctx, "failed to embed question", "error", err)
			return RAGContext{}, &EmbeddingError{Err: err}
		}

		resolved, resolveErr := r.resolver.Resolve(ctx)
		if resolveErr != nil {
			return RAGContext{}, resolveErr
		}
		logger.WarnContext(ctx, "embedding failed, substituting zero vector",
			"dimension", resolved.Dimension, "error", err)
		vector = make([]float32, resolved.Dimension)
	}

	documents, err := r.search.Search(ctx, vector, r.topK)
	if err != nil {
		return RAGContext{}, err
	}

	return r.assembler.Build(ctx, documents, question), nil
}
