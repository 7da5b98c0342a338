package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ventana-ai/internal/handlers"
	"ventana-ai/internal/rag"
	"ventana-ai/internal/service"
	"ventana-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService   service.ChatService
	AnswerService service.AnswerService
	VectorStore   vectorstore.VectorStore
	Resolver      *rag.Resolver
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Add CORS and request logger middleware
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	questionHandler := handlers.NewQuestionHandler(deps.AnswerService)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Resolver)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", chatHandler.Create)
			r.Get("/", chatHandler.List)
			r.Get("/{chatID}", chatHandler.Get)
			r.Delete("/{chatID}", chatHandler.Delete)
			r.Method(http.MethodPost, "/{chatID}/questions", questionHandler)
		})
	})

	return r
}
