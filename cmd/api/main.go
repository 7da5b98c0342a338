package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"time"

	"ventana-ai/internal/config"
	"ventana-ai/internal/http"
	"ventana-ai/internal/llm"
	"ventana-ai/internal/rag"
	"ventana-ai/internal/service"
	"ventana-ai/internal/storage"
	"ventana-ai/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about an indexed document corpus using
// retrieval-augmented generation, with persistent chat sessions and
// per-answer source references.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Ventana AI API
//   description: |
//     Retrieval-augmented question answering over an indexed document corpus.
//     Questions are asked on chat sessions; answers carry citations into the
//     source documents.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const (
	startupResolveAttempts = 5
	startupResolveDelay    = 2 * time.Second
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	chatStore := storage.NewChatStore(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Resolve the document collection. The index is populated out of band,
	// so the collection may lag behind a fresh deployment; retry briefly and
	// defer to the first request unless strict startup is on.
	resolver := rag.NewResolver(vectorStore, cfg.Collection, cfg.CollectionAlternatives, cfg.CollectionNamespace)
	resolved, err := resolver.ResolveWithRetry(ctx, startupResolveAttempts, startupResolveDelay)
	if err != nil {
		if cfg.StrictStartup {
			log.Fatalf("Failed to resolve document collection: %v", err)
		}
		slog.Warn("Document collection not resolved at startup, will retry on first request", "error", err)
	} else {
		slog.Info("Document collection resolved", "collection", resolved.Name, "dimension", resolved.Dimension)
	}

	// Probe the embedding client. The search adapter reconciles dimension
	// mismatches at query time, so a failed probe is fatal only under strict
	// startup.
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension, cfg.EmbeddingTimeout)
	testEmbedding, err := embedder.EmbedQuery(ctx, "test")
	switch {
	case err != nil && cfg.StrictStartup:
		log.Fatalf("Failed to validate embedding client: %v", err)
	case err != nil:
		slog.Warn("Embedding client probe failed", "error", err)
	case len(testEmbedding) != cfg.EmbeddingDimension && cfg.StrictStartup:
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.EmbeddingDimension, len(testEmbedding))
	case len(testEmbedding) != cfg.EmbeddingDimension:
		slog.Warn("Embedding vector size mismatch", "expected", cfg.EmbeddingDimension, "got", len(testEmbedding))
	default:
		slog.Info("Embedding client validated", "model", cfg.EmbeddingModel, "vector_size", cfg.EmbeddingDimension)
	}

	// Create completion client (external service layer)
	completionClient := llm.NewClient(cfg.CompletionBaseURL, cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.CompletionTimeout)

	// Assemble the retrieval pipeline
	assembler, err := rag.NewContextAssembler(cfg.ContextTokenBudget)
	if err != nil {
		log.Fatalf("Failed to create context assembler: %v", err)
	}
	search := rag.NewSearchAdapter(vectorStore, resolver)
	retriever := rag.NewRetriever(embedder, search, assembler, resolver, cfg.TopK, cfg.EmbeddingZeroFallback)
	orchestrator := rag.NewOrchestrator(completionClient, retriever)
	slog.Info("Conversation engine initialized", "model", cfg.CompletionModel, "top_k", cfg.TopK)

	// Create services
	chatService := service.NewChatService(chatStore)
	answerService := service.NewAnswerService(orchestrator, chatStore)

	// Create router with dependencies
	deps := &http.Deps{
		ChatService:   chatService,
		AnswerService: answerService,
		VectorStore:   vectorStore,
		Resolver:      resolver,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Completion configuration", "base_url", cfg.CompletionBaseURL, "model", cfg.CompletionModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
