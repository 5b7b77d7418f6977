package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulse/community-pulse/internal/analysis"
	"github.com/openpulse/community-pulse/internal/graph"
	"github.com/openpulse/community-pulse/internal/pipeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func testDate(month int) time.Time {
	return time.Date(2024, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func sampleHealth(date time.Time) analysis.HealthScore {
	return analysis.HealthScore{
		Repository:   "test/repo",
		AnalysisDate: date,
		Overall:      66.5,
		Dimensions: analysis.DimensionScores{
			Activity:            80,
			Diversity:           60,
			ResponseTime:        40,
			CodeQuality:         70,
			Documentation:       50,
			CommunityAtmosphere: 90,
		},
		Level: analysis.HealthHealthy,
		Stage: analysis.StageMature,
	}
}

func TestHealthScoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := sampleHealth(testDate(3))
	require.NoError(t, store.SaveHealthScore(ctx, saved))

	prior, err := store.PriorHealthScore(ctx, "test/repo", testDate(4))
	require.NoError(t, err)
	require.NotNil(t, prior)

	assert.Equal(t, saved.Repository, prior.Repository)
	assert.InDelta(t, saved.Overall, prior.Overall, 1e-9)
	assert.Equal(t, saved.Dimensions, prior.Dimensions)
	assert.Equal(t, analysis.HealthHealthy, prior.Level)
	assert.Equal(t, analysis.StageMature, prior.Stage)
}

func TestPriorHealthScoreStrictlyBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHealthScore(ctx, sampleHealth(testDate(3))))

	// Same date does not count as prior.
	prior, err := store.PriorHealthScore(ctx, "test/repo", testDate(3))
	require.NoError(t, err)
	assert.Nil(t, prior)

	// Unknown repository has no history at all.
	prior, err = store.PriorHealthScore(ctx, "other/repo", testDate(12))
	require.NoError(t, err)
	assert.Nil(t, prior)
}

func TestHealthScoreWriteOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	score := sampleHealth(testDate(3))
	require.NoError(t, store.SaveHealthScore(ctx, score))

	// A second record for the same repository and date violates the
	// write-once constraint.
	score.Overall = 10
	assert.Error(t, store.SaveHealthScore(ctx, score))
}

func TestHealthHistoryOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for m := 1; m <= 4; m++ {
		require.NoError(t, store.SaveHealthScore(ctx, sampleHealth(testDate(m))))
	}

	history, err := store.HealthHistory(ctx, "test/repo", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, testDate(4), history[0].AnalysisDate.UTC())
	assert.Equal(t, testDate(2), history[2].AnalysisDate.UTC())
}

func TestChurnPredictionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	predictions := []analysis.ChurnPrediction{
		{
			Repository:     "test/repo",
			Contributor:    "alice",
			PredictionDate: testDate(3),
			OverallRisk:    62.5,
			RiskLevel:      analysis.AlertOrange,
			Confidence:     0.9,
			Factors: analysis.ChurnFactors{
				BehavioralDecay:        100,
				NetworkMarginalization: 40,
				TemporalAnomaly:        55,
				CommunityEngagement:    50,
			},
			Suggestions: []string{"reach out"},
		},
		{
			Repository:     "test/repo",
			Contributor:    "bob",
			PredictionDate: testDate(3),
			OverallRisk:    5,
			RiskLevel:      analysis.AlertGreen,
			Confidence:     1,
		},
	}
	require.NoError(t, store.SaveChurnPredictions(ctx, predictions))
	require.NoError(t, store.SaveChurnPredictions(ctx, nil))

	prior, err := store.PriorChurnPrediction(ctx, "test/repo", "alice", testDate(4))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.InDelta(t, 62.5, prior.OverallRisk, 1e-9)
	assert.Equal(t, analysis.AlertOrange, prior.RiskLevel)
	assert.InDelta(t, 100.0, prior.Factors.BehavioralDecay, 1e-9)
}

func TestCentralityRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result := graph.CentralityResult{
		Scores: map[string]graph.NodeCentrality{
			"alice": {Degree: 0.8, Betweenness: 0.4, Closeness: 0.7, PageRank: 0.3},
			"bob":   {Degree: 0.2, Betweenness: 0.0, Closeness: 0.5, PageRank: 0.1},
		},
		PageRankConverged: true,
	}
	require.NoError(t, store.SaveCentrality(ctx, "test/repo", testDate(3), result))

	prior, err := store.PriorCentrality(ctx, "test/repo", "alice", testDate(4))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.InDelta(t, 0.8, prior.Degree, 1e-9)
	assert.InDelta(t, 0.4, prior.Betweenness, 1e-9)

	missing, err := store.PriorCentrality(ctx, "test/repo", "carol", testDate(4))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNetworkSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snapshot := pipeline.NetworkSnapshot{
		Repository: "test/repo",
		Date:       testDate(3),
		Stats:      graph.NetworkStats{Nodes: 5, Edges: 5, Density: 0.5},
		Communities: graph.CommunityPartition{
			Assignments: map[string]int{"alice": 0, "bob": 0},
			Count:       1,
			Modularity:  0.42,
			Converged:   true,
		},
		BusFactor: graph.BusFactorResult{Count: 2, CriticalMembers: []string{"alice", "bob"}, RiskLevel: graph.BusRiskCritical},
		Export: graph.NetworkExport{
			Nodes: []graph.ExportNode{{ID: "alice", Degree: 1}, {ID: "bob", Degree: 1}},
			Edges: []graph.ExportEdge{{Source: "alice", Target: "bob", Weight: 3}},
		},
	}
	require.NoError(t, store.SaveNetworkSnapshot(ctx, snapshot))

	latest, err := store.LatestNetworkSnapshot(ctx, "test/repo")
	require.NoError(t, err)
	require.NotNil(t, latest)

	assert.Equal(t, 5, latest.Nodes)
	assert.InDelta(t, 0.42, latest.Modularity, 1e-9)
	assert.Equal(t, 2, latest.BusFactor)
	assert.Equal(t, "critical", latest.BusRisk)
	require.Len(t, latest.Export.Edges, 1)
	assert.Equal(t, "alice", latest.Export.Edges[0].Source)

	none, err := store.LatestNetworkSnapshot(ctx, "other/repo")
	require.NoError(t, err)
	assert.Nil(t, none)
}
