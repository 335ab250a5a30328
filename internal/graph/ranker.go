package graph

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/normanking/memgraph/internal/store"
)

// RankedResult is a search result annotated with graph signals.
type RankedResult struct {
	Entry store.Entry `json:"entry"`

	// Score is the original similarity score from the store.
	Score float64 `json:"score"`

	// Combined is the blended ranking key.
	Combined float64 `json:"combined"`

	// Community is the entry's community label, empty when unknown.
	Community string `json:"community,omitempty"`
}

// RankWithGraph re-ranks store search results by blending similarity with
// structural importance:
//
//	combined = alpha*score + (1-alpha)*pagerank*N
//
// The N factor lifts PageRank from its 1/N magnitude regime into
// comparability with [0,1] similarity scores. Entries unknown to the graph
// contribute zero rank. alpha outside [0,1] falls back to
// DefaultBlendWeight. The sort is stable: equal keys keep input order.
func (g *MemoryGraph) RankWithGraph(results []store.SearchResult, alpha float64) []RankedResult {
	if alpha < 0 || alpha > 1 {
		alpha = DefaultBlendWeight
	}
	if g.dirty {
		g.ComputePageRank()
	}

	n := len(g.nodes)
	if n < 1 {
		n = 1
	}

	ranked := make([]RankedResult, len(results))
	for i, result := range results {
		ranked[i] = RankedResult{
			Entry:     result.Entry,
			Score:     result.Score,
			Combined:  alpha*result.Score + (1-alpha)*g.pagerank[result.Entry.ID]*float64(n),
			Community: g.communities[result.Entry.ID],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Combined > ranked[j].Combined
	})

	log.Debug().
		Int("results", len(ranked)).
		Float64("alpha", alpha).
		Msg("results re-ranked with graph signals")

	return ranked
}

// TopNodes returns the n highest-ranked node ids with their rank and
// community label. Unlabelled nodes fall back to their own id. Recomputes
// PageRank first when the graph is dirty.
func (g *MemoryGraph) TopNodes(n int) []NodeRank {
	if g.dirty {
		g.ComputePageRank()
	}
	if n <= 0 {
		return nil
	}

	all := make([]NodeRank, 0, len(g.pagerank))
	for id, rank := range g.pagerank {
		community := g.communities[id]
		if community == "" {
			community = id
		}
		all = append(all, NodeRank{ID: id, Rank: rank, Community: community})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Rank > all[j].Rank
	})

	if n < len(all) {
		all = all[:n]
	}
	return all
}

// Neighbors returns the ids reachable from id within depth hops following
// outgoing edges, in BFS discovery order and excluding id itself. Unknown
// ids yield an empty result.
func (g *MemoryGraph) Neighbors(id string, depth int) []string {
	if _, ok := g.nodes[id]; !ok || depth <= 0 {
		return nil
	}

	visited := map[string]struct{}{id: {}}
	frontier := []string{id}
	var found []string

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, current := range frontier {
			for _, edge := range g.out[current] {
				if _, seen := visited[edge.Target]; seen {
					continue
				}
				visited[edge.Target] = struct{}{}
				found = append(found, edge.Target)
				next = append(next, edge.Target)
			}
		}
		frontier = next
	}

	return found
}

// GetStats reports the graph's current shape. It never triggers a PageRank
// recomputation; PageRankComputed reflects whether the cache is current.
func (g *MemoryGraph) GetStats() Stats {
	stats := Stats{
		NodeCount:        len(g.nodes),
		EdgeCount:        g.EdgeCount(),
		PageRankComputed: !g.dirty,
	}

	if stats.NodeCount > 0 {
		stats.AvgDegree = float64(stats.EdgeCount) / float64(stats.NodeCount)
	}

	distinct := make(map[string]struct{}, len(g.communities))
	for _, label := range g.communities {
		distinct[label] = struct{}{}
	}
	stats.CommunityCount = len(distinct)

	first := true
	for _, rank := range g.pagerank {
		if first {
			stats.MaxPageRank = rank
			stats.MinPageRank = rank
			first = false
			continue
		}
		if rank > stats.MaxPageRank {
			stats.MaxPageRank = rank
		}
		if rank < stats.MinPageRank {
			stats.MinPageRank = rank
		}
	}

	return stats
}
