package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks ventana-ai/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// ErrNamespaceUnsupported is returned by stores that have no namespace or
// database concept. Callers are expected to tolerate it.
var ErrNamespaceUnsupported = errors.New("namespaces are not supported by this vector store")

// CollectionInfo describes a collection's schema and size.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int64
	Status      string
}

// Hit is one raw similarity-search result. Payload carries the stored
// fields as returned by the backend, without any schema interpretation.
type Hit struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// VectorStore defines the read-side interface for vector storage operations.
// The index itself is populated by out-of-band ingestion tooling.
type VectorStore interface {
	// UseNamespace selects a namespace/database on stores that support the
	// concept. Implementations without namespaces return ErrNamespaceUnsupported.
	UseNamespace(ctx context.Context, name string) error

	// ListCollections enumerates the names of all existing collections.
	ListCollections(ctx context.Context) ([]string, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// GetCollectionInfo returns a collection's vector size and point count.
	GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)

	// Search performs a similarity search and returns raw hits ranked by
	// descending score.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Hit, error)
}
