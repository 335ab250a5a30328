package graph

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/normanking/memgraph/internal/bus"
)

// ComputePageRank runs power iteration with dangling-mass redistribution
// over the reverse-edge index and returns a copy of the converged rank map.
// Ranks sum to 1 within convergence tolerance. Clears the dirty flag and
// emits pagerank:computed with the iteration count.
func (g *MemoryGraph) ComputePageRank() map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		g.pagerank = make(map[string]float64)
		g.dirty = false

		event := bus.NewEvent(bus.EventPageRankComputed)
		event.Iterations = 0
		g.publish(event)
		return map[string]float64{}
	}

	d := g.opts.PageRankDamping
	inv := 1.0 / float64(n)

	rank := make(map[string]float64, n)
	for id := range g.nodes {
		rank[id] = inv
	}

	iterations := 0
	for i := 0; i < g.opts.PageRankIterations; i++ {
		iterations = i + 1

		// Rank mass of nodes with no outgoing edges is redistributed
		// uniformly instead of leaking out of the fixed point.
		danglingSum := 0.0
		for id := range g.nodes {
			if len(g.out[id]) == 0 {
				danglingSum += rank[id]
			}
		}

		next := make(map[string]float64, n)
		maxDelta := 0.0
		for u := range g.nodes {
			sum := 0.0
			for v := range g.in[u] {
				outDegree := len(g.out[v])
				if outDegree == 0 {
					outDegree = 1
				}
				sum += rank[v] / float64(outDegree)
			}

			r := (1-d)*inv + d*(sum+danglingSum*inv)
			next[u] = r

			if delta := math.Abs(r - rank[u]); delta > maxDelta {
				maxDelta = delta
			}
		}

		rank = next
		if maxDelta < g.opts.PageRankConvergence {
			break
		}
	}

	g.pagerank = rank
	g.dirty = false

	log.Debug().
		Int("nodes", n).
		Int("iterations", iterations).
		Msg("pagerank computed")

	event := bus.NewEvent(bus.EventPageRankComputed)
	event.Iterations = iterations
	g.publish(event)

	result := make(map[string]float64, n)
	for id, r := range rank {
		result[id] = r
	}
	return result
}

// PageRank returns the cached rank for a node, or 0 when none is present.
func (g *MemoryGraph) PageRank(id string) float64 {
	return g.pagerank[id]
}
