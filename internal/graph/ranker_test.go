package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/memgraph/internal/store"
)

func searchResult(id string, score float64) store.SearchResult {
	return store.SearchResult{Entry: store.Entry{ID: id}, Score: score}
}

func TestRankWithGraph_CentralNodeWins(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("c", "b", EdgeReference, 1.0)

	results := []store.SearchResult{
		searchResult("a", 0.9),
		searchResult("b", 0.6),
		searchResult("c", 0.9),
	}

	ranked := g.RankWithGraph(results, 0.5)

	require.Len(t, ranked, 3)
	assert.Equal(t, "b", ranked[0].Entry.ID)
	assert.ElementsMatch(t,
		[]string{"a", "c"},
		[]string{ranked[1].Entry.ID, ranked[2].Entry.ID},
	)
}

func TestRankWithGraph_UnknownEntriesScoreZeroRank(t *testing.T) {
	g := New(DefaultOptions())

	ranked := g.RankWithGraph([]store.SearchResult{searchResult("ghost", 0.8)}, 0.5)

	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.5*0.8, ranked[0].Combined, 1e-12)
	assert.Empty(t, ranked[0].Community)
}

func TestRankWithGraph_StableForEqualKeys(t *testing.T) {
	g := New(DefaultOptions())

	results := []store.SearchResult{
		searchResult("first", 0.7),
		searchResult("second", 0.7),
		searchResult("third", 0.7),
	}

	ranked := g.RankWithGraph(results, 1.0)

	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Entry.ID)
	assert.Equal(t, "second", ranked[1].Entry.ID)
	assert.Equal(t, "third", ranked[2].Entry.ID)
}

func TestRankWithGraph_ComputesWhenDirty(t *testing.T) {
	g := New(DefaultOptions())
	g.AddNode(entry("a"))
	require.False(t, g.GetStats().PageRankComputed)

	g.RankWithGraph([]store.SearchResult{searchResult("a", 0.5)}, 0.5)

	assert.True(t, g.GetStats().PageRankComputed)
}

func TestRankWithGraph_InvalidAlphaFallsBack(t *testing.T) {
	g := New(DefaultOptions())

	ranked := g.RankWithGraph([]store.SearchResult{searchResult("x", 1.0)}, -1)

	require.Len(t, ranked, 1)
	assert.InDelta(t, DefaultBlendWeight, ranked[0].Combined, 1e-12)
}

func TestRankWithGraph_AnnotatesCommunity(t *testing.T) {
	g := New(DefaultOptions())
	g.AddNode(entry("a"))
	g.AddNode(entry("b"))
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "a", EdgeReference, 1.0)
	g.DetectCommunities()

	ranked := g.RankWithGraph([]store.SearchResult{searchResult("a", 0.9)}, 0.7)

	require.Len(t, ranked, 1)
	assert.NotEmpty(t, ranked[0].Community)
}

func TestTopNodes(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"hub", "l1", "l2"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("l1", "hub", EdgeReference, 1.0)
	g.AddEdge("l2", "hub", EdgeReference, 1.0)

	top := g.TopNodes(2)

	require.Len(t, top, 2)
	assert.Equal(t, "hub", top[0].ID)
	assert.Greater(t, top[0].Rank, top[1].Rank)
	// No communities detected yet: label falls back to the node id.
	assert.Equal(t, top[0].ID, top[0].Community)
}

func TestTopNodes_ZeroAndOversized(t *testing.T) {
	g := New(DefaultOptions())
	g.AddNode(entry("a"))

	assert.Nil(t, g.TopNodes(0))
	assert.Len(t, g.TopNodes(10), 1)
}

func TestNeighbors_Chain(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "c", EdgeReference, 1.0)
	g.AddEdge("c", "d", EdgeReference, 1.0)

	assert.ElementsMatch(t, []string{"b"}, g.Neighbors("a", 1))
	assert.ElementsMatch(t, []string{"b", "c"}, g.Neighbors("a", 2))
	assert.ElementsMatch(t, []string{"b", "c", "d"}, g.Neighbors("a", 10))
}

func TestNeighbors_ExcludesSelfOnCycle(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "c", EdgeReference, 1.0)
	g.AddEdge("c", "a", EdgeReference, 1.0)

	assert.ElementsMatch(t, []string{"b", "c"}, g.Neighbors("a", 5))
}

func TestNeighbors_UnknownOrZeroDepth(t *testing.T) {
	g := New(DefaultOptions())
	g.AddNode(entry("a"))

	assert.Empty(t, g.Neighbors("ghost", 3))
	assert.Empty(t, g.Neighbors("a", 0))
}

func TestGetStats(t *testing.T) {
	g := New(DefaultOptions())
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(entry(id))
	}
	g.AddEdge("a", "b", EdgeReference, 1.0)
	g.AddEdge("b", "c", EdgeReference, 1.0)

	stats := g.GetStats()
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 2, stats.EdgeCount)
	assert.InDelta(t, 2.0/3.0, stats.AvgDegree, 1e-12)
	assert.False(t, stats.PageRankComputed)
	assert.Zero(t, stats.MaxPageRank)
	assert.Zero(t, stats.MinPageRank)

	g.ComputePageRank()
	stats = g.GetStats()
	assert.True(t, stats.PageRankComputed)
	assert.Greater(t, stats.MaxPageRank, 0.0)
	assert.Greater(t, stats.MinPageRank, 0.0)
	assert.GreaterOrEqual(t, stats.MaxPageRank, stats.MinPageRank)
}

func TestGetStats_Empty(t *testing.T) {
	g := New(DefaultOptions())

	stats := g.GetStats()
	assert.Zero(t, stats.NodeCount)
	assert.Zero(t, stats.EdgeCount)
	assert.Zero(t, stats.AvgDegree)
	assert.Zero(t, stats.CommunityCount)
	assert.Zero(t, stats.MaxPageRank)
	assert.Zero(t, stats.MinPageRank)
}
