package graph

import (
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/normanking/memgraph/internal/bus"
	"github.com/normanking/memgraph/internal/store"
)

// MemoryGraph is the in-memory projection of the backing store as a
// directed multi-type graph. It is not safe for concurrent use; callers
// sharing one instance across goroutines must serialise externally.
type MemoryGraph struct {
	opts    Options
	backing store.BackingStore
	events  *bus.Bus
	rng     *rand.Rand

	nodes map[string]*Node
	// out preserves insertion order; it defines the tie-break order in
	// community detection.
	out map[string][]Edge
	in  map[string]map[string]struct{}

	pagerank    map[string]float64
	communities map[string]string

	// dirty is true iff structural mutations occurred since the last
	// PageRank computation.
	dirty bool
}

// New creates an empty graph with the given options. Zero-valued numeric
// and string option fields fall back to defaults; EnableAutoEdges is used
// as given.
func New(opts Options) *MemoryGraph {
	return &MemoryGraph{
		opts:        opts.normalize(),
		nodes:       make(map[string]*Node),
		out:         make(map[string][]Edge),
		in:          make(map[string]map[string]struct{}),
		pagerank:    make(map[string]float64),
		communities: make(map[string]string),
	}
}

// SetBackingStore attaches the store used for similarity edge building.
func (g *MemoryGraph) SetBackingStore(s store.BackingStore) {
	g.backing = s
}

// SetEventBus attaches the bus that receives lifecycle events.
func (g *MemoryGraph) SetEventBus(b *bus.Bus) {
	g.events = b
}

// SetRand injects the random source used by community detection.
// Production code leaves this unset and uses the ambient generator.
func (g *MemoryGraph) SetRand(r *rand.Rand) {
	g.rng = r
}

// AddNode inserts or replaces the node derived from an entry. When the
// graph is at capacity and the id is new, the insert is a silent no-op.
// Replacing an existing node keeps its edges.
func (g *MemoryGraph) AddNode(entry store.Entry) {
	if entry.ID == "" {
		return
	}

	_, exists := g.nodes[entry.ID]
	if !exists && len(g.nodes) >= g.opts.MaxNodes {
		log.Debug().
			Str("entry_id", entry.ID).
			Int("max_nodes", g.opts.MaxNodes).
			Msg("graph at capacity, node dropped")
		return
	}

	category := entry.Category
	if category == "" {
		category = DefaultCategory
	}
	confidence := entry.Confidence
	if confidence <= 0 {
		confidence = DefaultConfidence
	} else if confidence > 1 {
		confidence = 1
	}

	g.nodes[entry.ID] = &Node{
		ID:          entry.ID,
		Category:    category,
		Confidence:  confidence,
		AccessCount: entry.AccessCount,
		CreatedAt:   entry.CreatedAt,
	}
	if _, ok := g.out[entry.ID]; !ok {
		g.out[entry.ID] = nil
	}
	if _, ok := g.in[entry.ID]; !ok {
		g.in[entry.ID] = make(map[string]struct{})
	}
	g.dirty = true
}

// AddEdge adds a directed edge. Missing endpoints make it a silent no-op.
// An existing edge keeps its type and takes the maximum of the two weights.
func (g *MemoryGraph) AddEdge(source, target string, edgeType EdgeType, weight float64) {
	if _, ok := g.nodes[source]; !ok {
		return
	}
	if _, ok := g.nodes[target]; !ok {
		return
	}

	for i := range g.out[source] {
		if g.out[source][i].Target == target {
			if weight > g.out[source][i].Weight {
				g.out[source][i].Weight = weight
			}
			g.dirty = true
			return
		}
	}

	g.out[source] = append(g.out[source], Edge{Target: target, Type: edgeType, Weight: weight})
	g.in[target][source] = struct{}{}
	g.dirty = true
}

// RemoveNode deletes a node, all incident edges in both directions, and any
// derived rank or community entries. Unknown ids are a no-op.
func (g *MemoryGraph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}

	for _, edge := range g.out[id] {
		delete(g.in[edge.Target], id)
	}
	for source := range g.in[id] {
		edges := g.out[source]
		filtered := edges[:0]
		for _, edge := range edges {
			if edge.Target != id {
				filtered = append(filtered, edge)
			}
		}
		g.out[source] = filtered
	}

	delete(g.nodes, id)
	delete(g.out, id)
	delete(g.in, id)
	delete(g.pagerank, id)
	delete(g.communities, id)
	g.dirty = true
}

// HasEdge reports whether a source→target edge exists.
func (g *MemoryGraph) HasEdge(source, target string) bool {
	for _, edge := range g.out[source] {
		if edge.Target == target {
			return true
		}
	}
	return false
}

// HasNode reports whether the id is present in the graph.
func (g *MemoryGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for an id, or nil when absent.
func (g *MemoryGraph) Node(id string) *Node {
	return g.nodes[id]
}

// NodeCount returns the number of nodes.
func (g *MemoryGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *MemoryGraph) EdgeCount() int {
	count := 0
	for _, edges := range g.out {
		count += len(edges)
	}
	return count
}

// Edges returns a copy of a node's outgoing edges in insertion order.
func (g *MemoryGraph) Edges(id string) []Edge {
	edges := g.out[id]
	result := make([]Edge, len(edges))
	copy(result, edges)
	return result
}

// publish emits an event when a bus is attached.
func (g *MemoryGraph) publish(event bus.Event) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish graph event")
	}
}
