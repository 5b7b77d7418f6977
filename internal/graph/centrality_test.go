package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulse/community-pulse/internal/types"
)

func TestCentralityRanges(t *testing.T) {
	g := buildTest(t, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}, {"a", "c"},
	})

	result := Centrality(g, DefaultCentralityConfig())
	require.Len(t, result.Scores, 4)

	for id, c := range result.Scores {
		assert.GreaterOrEqual(t, c.Degree, 0.0, "degree for %s", id)
		assert.LessOrEqual(t, c.Degree, 1.0, "degree for %s", id)
		assert.GreaterOrEqual(t, c.Betweenness, 0.0, "betweenness for %s", id)
		assert.LessOrEqual(t, c.Betweenness, 1.0, "betweenness for %s", id)
		assert.GreaterOrEqual(t, c.Closeness, 0.0, "closeness for %s", id)
		assert.LessOrEqual(t, c.Closeness, 1.0, "closeness for %s", id)
		assert.Greater(t, c.PageRank, 0.0, "pagerank for %s", id)
	}
}

func TestPageRankSumsToOne(t *testing.T) {
	tests := []struct {
		name  string
		pairs [][2]string
	}{
		{"path", [][2]string{{"a", "b"}, {"b", "c"}}},
		{"star", [][2]string{{"hub", "a"}, {"hub", "b"}, {"hub", "c"}, {"hub", "d"}}},
		{"two components", [][2]string{{"a", "b"}, {"c", "d"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildTest(t, tt.pairs)
			result := Centrality(g, DefaultCentralityConfig())
			require.True(t, result.PageRankConverged)

			sum := 0.0
			for _, c := range result.Scores {
				sum += c.PageRank
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestPathGraphBetweenness(t *testing.T) {
	g := buildTest(t, [][2]string{{"a", "b"}, {"b", "c"}})

	result := Centrality(g, DefaultCentralityConfig())

	// b brokers the only a-c path.
	assert.Greater(t, result.Scores["b"].Betweenness, result.Scores["a"].Betweenness)
	assert.Greater(t, result.Scores["b"].Betweenness, result.Scores["c"].Betweenness)
	assert.Equal(t, 0.0, result.Scores["a"].Betweenness)
	assert.Equal(t, 0.0, result.Scores["c"].Betweenness)
}

func TestStarGraphCentrality(t *testing.T) {
	g := buildTest(t, [][2]string{
		{"hub", "a"}, {"hub", "b"}, {"hub", "c"}, {"hub", "d"},
	})

	result := Centrality(g, DefaultCentralityConfig())
	hub := result.Scores["hub"]

	for _, leaf := range []string{"a", "b", "c", "d"} {
		c := result.Scores[leaf]
		assert.Greater(t, hub.Degree, c.Degree)
		assert.Greater(t, hub.Betweenness, c.Betweenness)
		assert.Greater(t, hub.Closeness, c.Closeness)
		assert.Greater(t, hub.PageRank, c.PageRank)
	}
}

func TestIsolatedNodeCentrality(t *testing.T) {
	g := buildTest(t, [][2]string{
		{"a", "b"},
		{"loner", ""},
	})

	result := Centrality(g, DefaultCentralityConfig())
	loner := result.Scores["loner"]

	assert.Equal(t, 0.0, loner.Degree)
	assert.Equal(t, 0.0, loner.Betweenness)
	assert.Equal(t, 0.0, loner.Closeness)
	assert.Greater(t, loner.PageRank, 0.0)
}

func TestHeavyEdgeShortensPaths(t *testing.T) {
	// Two routes from a to c: via b with heavy edges, via d with light ones.
	// Traversal cost is the inverse of weight, so the heavy route wins and b
	// carries the brokerage.
	g, err := Build("test/repo", []types.ContributionEvent{
		event("a", "b", types.EventCommit, 10),
		event("b", "c", types.EventCommit, 10),
		event("a", "d", types.EventCommit, 1),
		event("d", "c", types.EventCommit, 1),
	}, testWindow(), DefaultBuilderConfig())
	require.NoError(t, err)

	result := Centrality(g, DefaultCentralityConfig())
	assert.Greater(t, result.Scores["b"].Betweenness, result.Scores["d"].Betweenness)
}

func TestCentralityDeterministic(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"e", "a"}, {"a", "c"},
	}

	first := Centrality(buildTest(t, pairs), DefaultCentralityConfig())
	second := Centrality(buildTest(t, pairs), DefaultCentralityConfig())
	assert.Equal(t, first, second)
}

func TestPageRankIterationCap(t *testing.T) {
	g := buildTest(t, [][2]string{
		{"hub", "a"}, {"hub", "b"}, {"hub", "c"}, {"hub", "d"},
	})

	cfg := DefaultCentralityConfig()
	cfg.MaxIterations = 1
	result := Centrality(g, cfg)

	// One iteration cannot reach epsilon on this graph. The result is
	// flagged approximate but the best iterate is still a probability
	// vector.
	assert.False(t, result.PageRankConverged)
	assert.True(t, result.Approximate())

	sum := 0.0
	for id, c := range result.Scores {
		assert.Greater(t, c.PageRank, 0.0, "pagerank for %s", id)
		sum += c.PageRank
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, result.Scores["hub"].PageRank, result.Scores["a"].PageRank)
}
