package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/memgraph/internal/bus"
)

// rankSum totals a rank map.
func rankSum(ranks map[string]float64) float64 {
	sum := 0.0
	for _, r := range ranks {
		sum += r
	}
	return sum
}

func TestComputePageRank_Empty(t *testing.T) {
	g := New(DefaultOptions())
	events := captureEvents(t, g)

	ranks := g.ComputePageRank()

	assert.Empty(t, ranks)
	assert.NotNil(t, ranks)
	assert.Equal(t, 0, g.GetStats().NodeCount)
	assert.True(t, g.GetStats().PageRankComputed)

	require.Len(t, *events, 1)
	assert.Equal(t, bus.EventPageRankComputed, (*events)[0].Type)
	assert.Equal(t, 0, (*events)[0].Iterations)
}

func TestComputePageRank_Triangle(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "c", EdgeReference, 1.0)
	g.AddEdge("c", "a", EdgeReference, 1.0)

	ranks := g.ComputePageRank()

	tol := 10 * DefaultPageRankConvergence
	require.Len(t, ranks, 3)
	for id, rank := range ranks {
		assert.InDelta(t, 1.0/3.0, rank, tol, "rank of %s", id)
	}
	assert.InDelta(t, 1.0, rankSum(ranks), tol)

	top := g.TopNodes(1)
	require.Len(t, top, 1)
	assert.Contains(t, []string{"a", "b", "c"}, top[0].ID)
}

func TestComputePageRank_DanglingNodes(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("a", "c", EdgeReference, 1.0)

	ranks := g.ComputePageRank()

	tol := 10 * DefaultPageRankConvergence
	assert.InDelta(t, ranks["b"], ranks["c"], tol)
	assert.Greater(t, ranks["b"], ranks["a"])
	assert.Greater(t, ranks["c"], ranks["a"])
	assert.InDelta(t, 1.0, rankSum(ranks), tol)
}

func TestComputePageRank_StarMonotonicity(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"hub", "l1", "l2", "l3", "lone"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("l1", "hub", EdgeReference, 1.0)
	g.AddEdge("l2", "hub", EdgeReference, 1.0)
	g.AddEdge("l3", "hub", EdgeReference, 1.0)

	ranks := g.ComputePageRank()

	assert.Greater(t, ranks["hub"], ranks["lone"])
	assert.Greater(t, ranks["hub"], ranks["l1"])
	assert.InDelta(t, 1.0, rankSum(ranks), 10*DefaultPageRankConvergence)
}

func TestComputePageRank_SumPreserved(t *testing.T) {
	g := New(DefaultOptions())
	ids := []string{"a", "b", "c", "d", "e", "f"}
	for _, id := range ids {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "c", EdgeSimilar, 0.9)
	g.AddEdge("c", "a", EdgeTemporal, 1.0)
	g.AddEdge("c", "d", EdgeReference, 1.0)
	g.AddEdge("e", "a", EdgeCoAccessed, 1.0)
	// d and f dangle.

	ranks := g.ComputePageRank()

	require.Len(t, ranks, len(ids))
	assert.InDelta(t, 1.0, rankSum(ranks), 10*DefaultPageRankConvergence)
}

func TestComputePageRank_ReturnsCopy(t *testing.T) {
	g := New(DefaultOptions())
	g.AddNode(entry("a"))

	ranks := g.ComputePageRank()
	ranks["a"] = 42

	assert.NotEqual(t, 42.0, g.PageRank("a"))
}

func TestComputePageRank_EmitsIterationCount(t *testing.T) {
	g := New(DefaultOptions())
	events := captureEvents(t, g)

	for _, id := range []string{"a", "b"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "a", EdgeReference, 1.0)
	g.ComputePageRank()

	require.Len(t, *events, 1)
	evt := (*events)[0]
	assert.Equal(t, bus.EventPageRankComputed, evt.Type)
	assert.Greater(t, evt.Iterations, 0)
	assert.LessOrEqual(t, evt.Iterations, DefaultPageRankIterations)
}
