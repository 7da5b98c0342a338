package rag

// Document is one normalized search result. It is created per search call,
// never persisted, and owned by the request that produced it.
type Document struct {
	// Content is the fragment text.
	Content string
	// Metadata holds flat scalar fields (title, source_id, page, link, type, ...).
	Metadata map[string]any
	// Score is the similarity score; descending order defines rank.
	Score float32
	// OriginalFields retains the raw backend payload for fallback field extraction.
	OriginalFields map[string]any
}

// Reference is one bibliographic entry in the rendered Sources section.
// Immutable once built.
type Reference struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	SourceID  string `json:"source_id"`
	Page      string `json:"page"`
	Year      string `json:"year"`
	Publisher string `json:"publisher"`
	ISBN      string `json:"isbn"`
	URL       string `json:"url,omitempty"`
}

// RAGContext is the assembled retrieval result for one sub-question.
// Ephemeral per question.
type RAGContext struct {
	Documents   []Document
	ContextText string
	References  []Reference
}

// CollectedContext records one tool invocation's retrieval outcome for
// later citation extraction and diagnostics.
type CollectedContext struct {
	SubQuestion string
	ContextText string
	Documents   []Document
}

// HistoryMessage is one prior chat turn, as persisted by the chat store.
type HistoryMessage struct {
	Content string
	IsBot   bool
}

// Result is the terminal outcome of one orchestrator run.
type Result struct {
	Answer   string
	Contexts []CollectedContext
}
