// Package pipeline orchestrates one (repository, window) analysis run:
// event ingest, graph construction, the graph-derived metrics, health
// scoring and churn prediction, and persistence of the results.
package pipeline

import (
	"context"
	"time"

	"github.com/openpulse/community-pulse/internal/analysis"
	"github.com/openpulse/community-pulse/internal/graph"
	"github.com/openpulse/community-pulse/internal/types"
)

// EventSource supplies normalized contribution events.
type EventSource interface {
	FetchEvents(ctx context.Context, repo string, window types.Window) ([]types.ContributionEvent, error)
}

// MetricsSource supplies per-repository raw metric series.
type MetricsSource interface {
	FetchRawMetrics(ctx context.Context, repo string, window types.Window) ([]types.RawMetricPoint, error)
}

// ResultStore persists write-once result records and answers trailing
// baseline lookups.
type ResultStore interface {
	SaveHealthScore(ctx context.Context, score analysis.HealthScore) error
	SaveChurnPredictions(ctx context.Context, predictions []analysis.ChurnPrediction) error
	SaveCentrality(ctx context.Context, repo string, date time.Time, result graph.CentralityResult) error
	SaveNetworkSnapshot(ctx context.Context, snapshot NetworkSnapshot) error

	PriorHealthScore(ctx context.Context, repo string, before time.Time) (*analysis.HealthScore, error)
	PriorCentrality(ctx context.Context, repo, contributor string, before time.Time) (*analysis.CentralitySnapshot, error)
	PriorChurnPrediction(ctx context.Context, repo, contributor string, before time.Time) (*analysis.ChurnPrediction, error)
}

// Config bundles every tunable of a run. Immutable; concurrent runs with
// different configs never interfere.
type Config struct {
	Builder    graph.BuilderConfig
	Centrality graph.CentralityConfig
	Holes      graph.HolesConfig
	Community  graph.CommunityConfig
	BusFactor  graph.BusFactorConfig
	Health     analysis.HealthConfig
	Churn      analysis.ChurnConfig
	Baselines  analysis.DimensionBaselines

	// Periods is how many equal buckets the window splits into for the
	// per-contributor activity series.
	Periods int
	// TopContributors caps the key-contributor ranking.
	TopContributors int
}

// DefaultConfig returns the standard tuning across all components.
func DefaultConfig() Config {
	return Config{
		Builder:         graph.DefaultBuilderConfig(),
		Centrality:      graph.DefaultCentralityConfig(),
		Holes:           graph.DefaultHolesConfig(),
		Community:       graph.DefaultCommunityConfig(),
		BusFactor:       graph.DefaultBusFactorConfig(),
		Health:          analysis.DefaultHealthConfig(),
		Churn:           analysis.DefaultChurnConfig(),
		Baselines:       analysis.DefaultDimensionBaselines(),
		Periods:         12,
		TopContributors: 10,
	}
}

// NetworkSnapshot is the graph-derived result record persisted per run.
type NetworkSnapshot struct {
	Repository  string                  `json:"repository"`
	Date        time.Time               `json:"analysis_date"`
	Stats       graph.NetworkStats      `json:"stats"`
	Communities graph.CommunityPartition `json:"communities"`
	BusFactor   graph.BusFactorResult   `json:"bus_factor"`
	Export      graph.NetworkExport     `json:"export"`
}

// Result is the complete output of one analysis run.
type Result struct {
	RunID           string                     `json:"run_id"`
	Repository      string                     `json:"repository"`
	Window          types.Window               `json:"window"`
	Stats           graph.NetworkStats         `json:"stats"`
	Centrality      graph.CentralityResult     `json:"centrality"`
	Holes           graph.StructuralHoleResult `json:"structural_holes"`
	Communities     graph.CommunityPartition   `json:"communities"`
	BusFactor       graph.BusFactorResult      `json:"bus_factor"`
	KeyContributors []graph.KeyContributor     `json:"key_contributors"`
	Health          analysis.HealthScore       `json:"health"`
	Churn           []analysis.ChurnPrediction `json:"churn_predictions"`
	Export          graph.NetworkExport        `json:"network"`
	Approximate     bool                       `json:"approximate"`
}
