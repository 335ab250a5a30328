package graph

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/normanking/memgraph/internal/bus"
	"github.com/normanking/memgraph/internal/store"
)

// BuildFromEntries populates the graph from an entry set: all nodes first,
// then one reference edge per declared cross-reference. References to ids
// outside the set are dropped by AddEdge's missing-endpoint contract.
// Emits graph:built after the last edge is committed.
func (g *MemoryGraph) BuildFromEntries(entries []store.Entry) {
	for _, entry := range entries {
		g.AddNode(entry)
	}

	edges := 0
	for _, entry := range entries {
		for _, ref := range entry.References {
			before := g.HasEdge(entry.ID, ref)
			g.AddEdge(entry.ID, ref, EdgeReference, 1.0)
			if !before && g.HasEdge(entry.ID, ref) {
				edges++
			}
		}
	}

	log.Info().
		Int("entries", len(entries)).
		Int("nodes", len(g.nodes)).
		Int("reference_edges", edges).
		Msg("graph built from entries")

	event := bus.NewEvent(bus.EventGraphBuilt)
	event.NodeCount = len(g.nodes)
	g.publish(event)
}

// AddSimilarityEdges enriches the graph with edges to an entry's nearest
// neighbours in embedding space. Returns the number of newly added edges.
// Store failures propagate unchanged; edges added before a failure stay in
// the graph.
func (g *MemoryGraph) AddSimilarityEdges(ctx context.Context, entryID string) (int, error) {
	if !g.opts.EnableAutoEdges || g.backing == nil {
		return 0, nil
	}

	entry, err := g.backing.Get(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if entry == nil || len(entry.Embedding) == 0 {
		return 0, nil
	}

	results, err := g.backing.Search(ctx, entry.Embedding, store.SearchOptions{
		K:         similaritySearchK,
		Threshold: g.opts.SimilarityThreshold,
	})
	if err != nil {
		return 0, err
	}

	added := 0
	for _, result := range results {
		if result.Entry.ID == entryID || result.Score < g.opts.SimilarityThreshold {
			continue
		}
		before := g.HasEdge(entryID, result.Entry.ID)
		g.AddEdge(entryID, result.Entry.ID, EdgeSimilar, result.Score)
		if !before && g.HasEdge(entryID, result.Entry.ID) {
			added++
		}
	}

	log.Debug().
		Str("entry_id", entryID).
		Int("neighbours", len(results)).
		Int("edges_added", added).
		Msg("similarity edges built")

	return added, nil
}
