// Package graph maintains the in-memory knowledge graph projected over the
// backing store: typed weighted edges between entries, PageRank importance,
// community labels, and the blended ranking used during retrieval.
package graph

import (
	"time"
)

// EdgeType classifies the relationship an edge captures.
type EdgeType string

const (
	// EdgeReference is derived from an entry's declared cross-references.
	EdgeReference EdgeType = "reference"

	// EdgeSimilar is added from a vector-search neighbourhood.
	EdgeSimilar EdgeType = "similar"

	// EdgeTemporal connects entries created close together in time.
	EdgeTemporal EdgeType = "temporal"

	// EdgeCoAccessed connects entries retrieved in the same operation.
	EdgeCoAccessed EdgeType = "co-accessed"

	// EdgeCausal marks an explicit cause-effect relationship.
	EdgeCausal EdgeType = "causal"
)

// Node is the graph's view of a memory entry. Nodes are replaced wholesale
// on re-ingest, never mutated in place.
type Node struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Confidence  float64   `json:"confidence"`
	AccessCount int       `json:"access_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Edge is a directed edge stored in its source's adjacency list. At most
// one edge exists per (source, target) pair; re-adding keeps the maximum
// weight and the original type.
type Edge struct {
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`
}

// Community algorithm names accepted by Options.CommunityAlgorithm.
const (
	AlgorithmLabelPropagation = "label-propagation"
	AlgorithmLouvain          = "louvain"
)

// Defaults for Options.
const (
	DefaultSimilarityThreshold = 0.8
	DefaultPageRankDamping     = 0.85
	DefaultPageRankIterations  = 50
	DefaultPageRankConvergence = 1e-6
	DefaultMaxNodes            = 5000
	DefaultBlendWeight         = 0.7

	// DefaultConfidence is assigned to nodes whose entry carries none.
	DefaultConfidence = 0.5

	// DefaultCategory is assigned to nodes whose entry carries none.
	DefaultCategory = "general"

	// similaritySearchK is the neighbourhood size requested from the store
	// when building similarity edges.
	similaritySearchK = 20

	// maxPropagationSweeps bounds label propagation.
	maxPropagationSweeps = 20
)

// Options configures a MemoryGraph.
type Options struct {
	// SimilarityThreshold is the minimum store similarity for auto-edges.
	SimilarityThreshold float64

	// PageRankDamping is the damping factor d.
	PageRankDamping float64

	// PageRankIterations caps power iteration.
	PageRankIterations int

	// PageRankConvergence is the L-infinity convergence tolerance.
	PageRankConvergence float64

	// MaxNodes caps the node count; inserts of new ids beyond it no-op.
	MaxNodes int

	// EnableAutoEdges gates similarity edge building.
	EnableAutoEdges bool

	// CommunityAlgorithm selects the clustering algorithm.
	CommunityAlgorithm string
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: DefaultSimilarityThreshold,
		PageRankDamping:     DefaultPageRankDamping,
		PageRankIterations:  DefaultPageRankIterations,
		PageRankConvergence: DefaultPageRankConvergence,
		MaxNodes:            DefaultMaxNodes,
		EnableAutoEdges:     true,
		CommunityAlgorithm:  AlgorithmLabelPropagation,
	}
}

// normalize fills zero-valued fields with defaults. Non-positive values and
// a damping factor outside (0,1) are replaced by the default, not clamped.
func (o Options) normalize() Options {
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if o.PageRankDamping <= 0 || o.PageRankDamping >= 1 {
		o.PageRankDamping = DefaultPageRankDamping
	}
	if o.PageRankIterations <= 0 {
		o.PageRankIterations = DefaultPageRankIterations
	}
	if o.PageRankConvergence <= 0 {
		o.PageRankConvergence = DefaultPageRankConvergence
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.CommunityAlgorithm == "" {
		o.CommunityAlgorithm = AlgorithmLabelPropagation
	}
	return o
}

// NodeRank is one row of a TopNodes result.
type NodeRank struct {
	ID        string  `json:"id"`
	Rank      float64 `json:"rank"`
	Community string  `json:"community"`
}

// Stats summarizes the graph's current shape.
type Stats struct {
	NodeCount        int     `json:"node_count"`
	EdgeCount        int     `json:"edge_count"`
	AvgDegree        float64 `json:"avg_degree"`
	CommunityCount   int     `json:"community_count"`
	PageRankComputed bool    `json:"pagerank_computed"`
	MaxPageRank      float64 `json:"max_pagerank"`
	MinPageRank      float64 `json:"min_pagerank"`
}
