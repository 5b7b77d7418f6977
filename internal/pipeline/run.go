package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openpulse/community-pulse/internal/analysis"
	"github.com/openpulse/community-pulse/internal/errors"
	"github.com/openpulse/community-pulse/internal/graph"
	"github.com/openpulse/community-pulse/internal/monitoring"
	"github.com/openpulse/community-pulse/internal/types"
)

// Runner executes analysis runs against injected adapters. Stateless across
// runs; safe for concurrent use.
type Runner struct {
	events  EventSource
	metrics MetricsSource
	store   ResultStore
	cfg     Config
	logger  *monitoring.Logger
}

// NewRunner wires a runner. store may be nil for ephemeral runs (nothing is
// persisted and no baselines are available).
func NewRunner(events EventSource, metrics MetricsSource, store ResultStore, cfg Config, logger *monitoring.Logger) *Runner {
	if logger == nil {
		logger = monitoring.NewLogger()
	}
	return &Runner{events: events, metrics: metrics, store: store, cfg: cfg, logger: logger}
}

// Run executes one full analysis for (repo, window). Cancellation is checked
// cooperatively between component boundaries; each algorithm itself runs in
// bounded time.
func (r *Runner) Run(ctx context.Context, repo string, window types.Window) (*Result, error) {
	started := time.Now()

	rawEvents, err := r.events.FetchEvents(ctx, repo, window)
	if err != nil {
		return nil, errors.NewUpstreamDataError("events", err)
	}

	g, err := graph.Build(repo, rawEvents, window, r.cfg.Builder)
	if err != nil {
		return nil, err
	}

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	// Centrality, structural holes and community detection are mutually
	// independent given the read-only graph.
	var (
		centrality  graph.CentralityResult
		holes       graph.StructuralHoleResult
		communities graph.CommunityPartition
	)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		centrality = graph.Centrality(g, r.cfg.Centrality)
	}()
	go func() {
		defer wg.Done()
		holes = graph.StructuralHoles(g, r.cfg.Holes)
	}()
	go func() {
		defer wg.Done()
		communities = graph.Communities(g, r.cfg.Community)
	}()
	wg.Wait()

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	busFactor := graph.BusFactor(g, centrality, r.cfg.BusFactor)
	stats := graph.Stats(g)
	keyContribs := graph.KeyContributors(g, centrality, holes, r.cfg.TopContributors)

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	health, err := r.scoreHealth(ctx, repo, window, rawEvents, stats)
	if err != nil {
		return nil, err
	}

	churn, err := r.predictChurn(ctx, repo, window, rawEvents, g, centrality)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:           uuid.NewString(),
		Repository:      repo,
		Window:          window,
		Stats:           stats,
		Centrality:      centrality,
		Holes:           holes,
		Communities:     communities,
		BusFactor:       busFactor,
		KeyContributors: keyContribs,
		Health:          health,
		Churn:           churn,
		Export:          graph.Export(g),
		Approximate:     centrality.Approximate() || !communities.Converged,
	}

	if err := r.persist(ctx, result); err != nil {
		return nil, err
	}

	r.logger.RunLogger(repo, stats.Nodes, stats.Edges, communities.Count, busFactor.Count, time.Since(started), result.Approximate)
	return result, nil
}

func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.NewTimeoutError("analysis run cancelled", err)
	}
	return nil
}

func (r *Runner) scoreHealth(ctx context.Context, repo string, window types.Window, events []types.ContributionEvent, stats graph.NetworkStats) (analysis.HealthScore, error) {
	points, err := r.metrics.FetchRawMetrics(ctx, repo, window)
	if err != nil {
		return analysis.HealthScore{}, errors.NewUpstreamDataError("metrics", err)
	}
	dims := analysis.Dimensions(points, r.cfg.Baselines)

	// Trailing activity delta: current window half versus prior half.
	buckets := bucketTotals(events, window, 2)
	lc := analysis.LifecycleInputs{
		CoreContributors: stats.Nodes,
		CurrentActivity:  buckets[1],
		PriorActivity:    buckets[0],
	}

	var prior *analysis.LifecycleState
	if r.store != nil {
		if prev, err := r.store.PriorHealthScore(ctx, repo, window.End); err == nil && prev != nil {
			prior = &analysis.LifecycleState{Stage: prev.Stage}
		}
	}

	return analysis.Score(repo, window.End, dims, lc, prior, r.cfg.Health)
}

func (r *Runner) predictChurn(ctx context.Context, repo string, window types.Window, events []types.ContributionEvent, g *graph.Graph, centrality graph.CentralityResult) ([]analysis.ChurnPrediction, error) {
	activity := contributorSeries(events, window, r.cfg.Periods, nil)
	engagement := contributorSeries(events, window, r.cfg.Periods, map[types.EventKind]bool{
		types.EventIssue: true,
		types.EventPR:    true,
	})

	contributors := g.IDs()
	sort.Strings(contributors)

	out := make([]analysis.ChurnPrediction, 0, len(contributors))
	for _, id := range contributors {
		c := centrality.Scores[id]
		current := &analysis.CentralitySnapshot{Degree: c.Degree, Betweenness: c.Betweenness}

		var baseline *analysis.CentralitySnapshot
		if r.store != nil {
			if prev, err := r.store.PriorCentrality(ctx, repo, id, window.Start); err == nil {
				baseline = prev
			}
		}

		prediction, err := analysis.PredictChurn(repo, window.End, analysis.ChurnInputs{
			Contributor: id,
			InGraph:     true,
			Activity:    activity[id],
			Engagement:  engagement[id],
			Current:     current,
			Baseline:    baseline,
		}, r.cfg.Churn)
		if err != nil {
			return nil, err
		}

		if r.store != nil {
			if prev, err := r.store.PriorChurnPrediction(ctx, repo, id, window.End); err == nil && prev != nil {
				prediction.Escalated = prediction.RiskLevel > prev.RiskLevel
			}
		}
		out = append(out, prediction)
	}
	return out, nil
}

func (r *Runner) persist(ctx context.Context, result *Result) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveHealthScore(ctx, result.Health); err != nil {
		return errors.WrapError(err, "persisting health score for %s", result.Repository)
	}
	r.logger.PersistLogger("health_score", result.Repository, 1)
	if err := r.store.SaveChurnPredictions(ctx, result.Churn); err != nil {
		return errors.WrapError(err, "persisting churn predictions for %s", result.Repository)
	}
	r.logger.PersistLogger("churn_predictions", result.Repository, len(result.Churn))
	if err := r.store.SaveCentrality(ctx, result.Repository, result.Window.End, result.Centrality); err != nil {
		return errors.WrapError(err, "persisting centrality for %s", result.Repository)
	}
	r.logger.PersistLogger("centrality", result.Repository, len(result.Centrality.Scores))
	snapshot := NetworkSnapshot{
		Repository:  result.Repository,
		Date:        result.Window.End,
		Stats:       result.Stats,
		Communities: result.Communities,
		BusFactor:   result.BusFactor,
		Export:      result.Export,
	}
	if err := r.store.SaveNetworkSnapshot(ctx, snapshot); err != nil {
		return errors.WrapError(err, "persisting network snapshot for %s", result.Repository)
	}
	r.logger.PersistLogger("network_snapshot", result.Repository, 1)
	return nil
}

// bucketTotals splits the window into n equal buckets and sums event
// weights per bucket.
func bucketTotals(events []types.ContributionEvent, window types.Window, n int) []float64 {
	out := make([]float64, n)
	span := window.End.Sub(window.Start)
	if span <= 0 {
		return out
	}
	for _, ev := range events {
		if !window.Contains(ev.Timestamp) {
			continue
		}
		idx := int(float64(n) * float64(ev.Timestamp.Sub(window.Start)) / float64(span))
		if idx >= n {
			idx = n - 1
		}
		out[idx] += ev.Weight
	}
	return out
}

// contributorSeries buckets per-contributor event counts into n periods,
// oldest first. kinds restricts the counted event kinds; nil counts all.
func contributorSeries(events []types.ContributionEvent, window types.Window, n int, kinds map[types.EventKind]bool) map[string][]float64 {
	out := make(map[string][]float64)
	span := window.End.Sub(window.Start)
	if span <= 0 || n <= 0 {
		return out
	}
	for _, ev := range events {
		if !window.Contains(ev.Timestamp) {
			continue
		}
		if kinds != nil && !kinds[ev.Kind] {
			continue
		}
		series, ok := out[ev.ActorID]
		if !ok {
			series = make([]float64, n)
			out[ev.ActorID] = series
		}
		idx := int(float64(n) * float64(ev.Timestamp.Sub(window.Start)) / float64(span))
		if idx >= n {
			idx = n - 1
		}
		series[idx]++
	}
	return out
}
