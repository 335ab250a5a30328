// Package store provides the persistent memory layer that backs the graph
// core: entries with metadata, cross-references, and optional embeddings,
// plus cosine-similarity search over the embedded subset.
package store

import (
	"context"
	"time"
)

// DefaultQueryLimit bounds Query result sets when no limit is given.
const DefaultQueryLimit = 100

// Entry is a single memory record. Content is opaque to the graph core;
// the core only observes the identity, metadata, references, and embedding.
type Entry struct {
	ID          string    `json:"id"`
	Namespace   string    `json:"namespace,omitempty"`
	Category    string    `json:"category,omitempty"`
	Content     string    `json:"content,omitempty"`
	Confidence  float64   `json:"confidence"`
	AccessCount int       `json:"access_count"`
	References  []string  `json:"references,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResult pairs an entry with its similarity score in [0,1].
type SearchResult struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// QueryOptions filters a Query call.
type QueryOptions struct {
	// Namespace restricts results to one namespace. Empty matches all.
	Namespace string

	// Limit caps the result count. Zero means DefaultQueryLimit.
	Limit int
}

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// K is the maximum number of results to return.
	K int

	// Threshold is the minimum cosine similarity for a match.
	Threshold float64
}

// BackingStore is the capability the graph core depends on. Implementations
// must treat Get on a missing id as (nil, nil), not an error.
type BackingStore interface {
	// Get fetches a single entry by id. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*Entry, error)

	// Query lists entries matching the options, newest first.
	Query(ctx context.Context, opts QueryOptions) ([]Entry, error)

	// Search finds the entries most similar to the given embedding.
	// Results are ordered by score descending.
	Search(ctx context.Context, embedding []float32, opts SearchOptions) ([]SearchResult, error)
}
