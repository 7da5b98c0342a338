package rag

import (
	"context"
	"errors"
	"sync"
	"time"

	"ventana-ai/internal/contextutil"
	"ventana-ai/internal/vectorstore"
)

// ResolvedCollection is the outcome of collection resolution: the name that
// actually holds queryable data and its authoritative embedding dimension.
type ResolvedCollection struct {
	Name      string
	Dimension int
}

// Resolver locates the usable collection among several candidate names.
// Historical deployments left data under different names (plain,
// namespace-qualified, "default_"-prefixed), so resolution walks an ordered
// candidate list and selects the first collection that exists and has data.
//
// The resolved (name, dimension) pair is cached behind a RWMutex: many
// concurrent readers, one writer, and redundant concurrent resolution is
// idempotent.
type Resolver struct {
	store        vectorstore.VectorStore
	primary      string
	alternatives []string
	namespace    string

	mu     sync.RWMutex
	cached *ResolvedCollection
}

// NewResolver creates a Resolver for the given candidate names.
func NewResolver(store vectorstore.VectorStore, primary string, alternatives []string, namespace string) *Resolver {
	return &Resolver{
		store:        store,
		primary:      primary,
		alternatives: alternatives,
		namespace:    namespace,
	}
}

// candidates returns the candidate names in resolution order.
func (r *Resolver) candidates() []string {
	names := make([]string, 0, len(r.alternatives)+2)
	names = append(names, r.primary)
	names = append(names, r.alternatives...)
	if r.namespace != "" {
		names = append(names, r.namespace+"."+r.primary)
	}
	return names
}

// Resolve returns the cached resolution, deriving it first if needed.
// Safe for concurrent callers.
func (r *Resolver) Resolve(ctx context.Context) (ResolvedCollection, error) {
	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	resolved, err := r.resolve(ctx)
	if err != nil {
		return ResolvedCollection{}, err
	}

	r.mu.Lock()
	// Another caller may have resolved concurrently; the outcome is the
	// same either way, keep the first write.
	if r.cached == nil {
		r.cached = &resolved
	} else {
		resolved = *r.cached
	}
	r.mu.Unlock()

	return resolved, nil
}

// ResolveWithRetry resolves with a bounded number of fixed-delay attempts,
// tolerating a slow-starting store at boot.
func (r *Resolver) ResolveWithRetry(ctx context.Context, attempts int, delay time.Duration) (ResolvedCollection, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resolved, err := r.Resolve(ctx)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
		logger.WarnContext(ctx, "collection resolution failed",
			"attempt", attempt, "max_attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ResolvedCollection{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return ResolvedCollection{}, lastErr
}

// Invalidate drops the cached resolution, forcing the next caller to
// re-derive it.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// resolve walks the candidate list and selects the first collection that
// exists and has a non-zero entity count.
func (r *Resolver) resolve(ctx context.Context) (ResolvedCollection, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// Namespace selection is best-effort: some stores have no namespaces.
	if r.namespace != "" {
		if err := r.store.UseNamespace(ctx, r.namespace); err != nil {
			if errors.Is(err, vectorstore.ErrNamespaceUnsupported) {
				logger.DebugContext(ctx, "store has no namespace support", "namespace", r.namespace)
			} else {
				logger.WarnContext(ctx, "failed to select namespace", "namespace", r.namespace, "error", err)
			}
		}
	}

	existing, err := r.store.ListCollections(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list collections", "error", err)
		return ResolvedCollection{}, err
	}
	logger.DebugContext(ctx, "collections enumerated", "collections", existing)

	existingSet := make(map[string]bool, len(existing))
	for _, name := range existing {
		existingSet[name] = true
	}

	candidates := r.candidates()
	for _, candidate := range candidates {
		if !existingSet[candidate] {
			logger.DebugContext(ctx, "candidate collection does not exist", "candidate", candidate)
			continue
		}

		info, err := r.store.GetCollectionInfo(ctx, candidate)
		if err != nil {
			logger.WarnContext(ctx, "failed to open candidate collection", "candidate", candidate, "error", err)
			continue
		}
		if info.PointsCount == 0 {
			logger.WarnContext(ctx, "candidate collection exists but is empty", "candidate", candidate)
			continue
		}

		logger.InfoContext(ctx, "collection resolved",
			"collection", candidate, "dimension", info.VectorSize, "entities", info.PointsCount)
		return ResolvedCollection{Name: candidate, Dimension: info.VectorSize}, nil
	}

	return ResolvedCollection{}, &CollectionUnavailableError{Attempted: candidates}
}
