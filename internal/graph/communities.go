package graph

import (
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/normanking/memgraph/internal/bus"
)

// DetectCommunities partitions the node set by asynchronous weighted label
// propagation and returns a copy of the labelling. The louvain option is
// served by the same propagation pass. Results vary across runs unless a
// seeded random source is injected with SetRand; tests should assert
// partition properties, not label identity.
func (g *MemoryGraph) DetectCommunities() map[string]string {
	if g.opts.CommunityAlgorithm == AlgorithmLouvain {
		log.Warn().Msg("louvain not implemented, falling back to label propagation")
	}

	labels := g.propagateLabels()
	g.communities = labels

	distinct := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		distinct[label] = struct{}{}
	}

	log.Info().
		Int("nodes", len(labels)).
		Int("communities", len(distinct)).
		Msg("communities detected")

	event := bus.NewEvent(bus.EventCommunitiesDetected)
	event.CommunityCount = len(distinct)
	g.publish(event)

	result := make(map[string]string, len(labels))
	for id, label := range labels {
		result[id] = label
	}
	return result
}

// Community returns the label for a node, or "" when none is assigned.
func (g *MemoryGraph) Community(id string) string {
	return g.communities[id]
}

// propagateLabels runs up to maxPropagationSweeps asynchronous sweeps.
// Each node adopts the highest-scoring label among its neighbours:
// outgoing edges vote with their weight, incoming neighbours vote 1.0.
// Ties keep the label encountered first during aggregation.
func (g *MemoryGraph) propagateLabels() map[string]string {
	labels := make(map[string]string, len(g.nodes))
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		labels[id] = id
		ids = append(ids, id)
	}

	rng := g.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	for sweep := 0; sweep < maxPropagationSweeps; sweep++ {
		rng.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})

		changed := false
		for _, u := range ids {
			scores := make(map[string]float64)
			var order []string
			vote := func(label string, weight float64) {
				if _, seen := scores[label]; !seen {
					order = append(order, label)
				}
				scores[label] += weight
			}

			for _, edge := range g.out[u] {
				vote(labels[edge.Target], edge.Weight)
			}
			for w := range g.in[u] {
				vote(labels[w], 1.0)
			}

			if len(order) == 0 {
				continue
			}

			best := order[0]
			for _, label := range order[1:] {
				if scores[label] > scores[best] {
					best = label
				}
			}

			if best != labels[u] {
				labels[u] = best
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	return labels
}
