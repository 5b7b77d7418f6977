package analysis

import (
	"math"
	"time"

	"github.com/openpulse/community-pulse/internal/errors"
)

// ChurnWeights maps the four risk factors onto the overall risk. Must sum to
// 1 within tolerance.
type ChurnWeights struct {
	BehavioralDecay        float64
	NetworkMarginalization float64
	TemporalAnomaly        float64
	CommunityEngagement    float64
}

func (w ChurnWeights) sum() float64 {
	return w.BehavioralDecay + w.NetworkMarginalization + w.TemporalAnomaly + w.CommunityEngagement
}

// ChurnConfig carries every churn-prediction tunable.
type ChurnConfig struct {
	Weights ChurnWeights

	// Risk bands: overall risk below YellowMin is green, below OrangeMin
	// yellow, below RedMin orange, else red.
	YellowMin float64
	OrangeMin float64
	RedMin    float64

	// MinPeriods is the minimum viable history length; shorter histories
	// degrade confidence toward ConfidenceFloor instead of failing.
	MinPeriods      int
	ConfidenceFloor float64

	// RecentShare is the fraction of the series treated as the recent
	// window when comparing against the contributor's own baseline.
	RecentShare float64
	// DecayTau discounts older recent-window periods, in periods.
	DecayTau float64
	// HorizonMonths is the prediction horizon.
	HorizonMonths int
}

// DefaultChurnConfig returns the standard factor weighting and bands.
func DefaultChurnConfig() ChurnConfig {
	return ChurnConfig{
		Weights: ChurnWeights{
			BehavioralDecay:        0.30,
			NetworkMarginalization: 0.25,
			TemporalAnomaly:        0.25,
			CommunityEngagement:    0.20,
		},
		YellowMin:       25,
		OrangeMin:       50,
		RedMin:          75,
		MinPeriods:      6,
		ConfidenceFloor: 0.2,
		RecentShare:     1.0 / 3.0,
		DecayTau:        3,
		HorizonMonths:   3,
	}
}

func (c ChurnConfig) alertFor(risk float64) AlertLevel {
	switch {
	case risk >= c.RedMin:
		return AlertRed
	case risk >= c.OrangeMin:
		return AlertOrange
	case risk >= c.YellowMin:
		return AlertYellow
	default:
		return AlertGreen
	}
}

// CentralitySnapshot is the slice of a centrality result the churn engine
// compares across windows.
type CentralitySnapshot struct {
	Degree      float64 `json:"degree_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
}

// ChurnInputs are the per-contributor signals for one prediction. Activity
// and Engagement are per-period counts, oldest first. Baseline is nil when
// no prior window has been analyzed; Current is nil when the contributor
// carries no edges in the current graph.
type ChurnInputs struct {
	Contributor string
	InGraph     bool
	Activity    []float64
	Engagement  []float64
	Current     *CentralitySnapshot
	Baseline    *CentralitySnapshot
}

// PredictChurn computes the decay-weighted four-factor churn risk for one
// contributor. Fails with an unknown-contributor error when the contributor
// has no events in the graph; short history degrades confidence, never
// aborts.
func PredictChurn(repo string, date time.Time, in ChurnInputs, cfg ChurnConfig) (ChurnPrediction, error) {
	const tolerance = 1e-9
	if s := cfg.Weights.sum(); s < 1-tolerance || s > 1+tolerance {
		return ChurnPrediction{}, errors.NewConfigurationError("churn factor weights must sum to 1.0", nil)
	}
	if !in.InGraph {
		return ChurnPrediction{}, errors.NewUnknownContributorError(in.Contributor, repo)
	}

	factors := ChurnFactors{
		BehavioralDecay:        behavioralDecay(in.Activity, cfg),
		NetworkMarginalization: networkMarginalization(in.Current, in.Baseline),
		TemporalAnomaly:        temporalAnomaly(in.Activity, cfg),
		CommunityEngagement:    engagementDecline(in.Engagement, cfg),
	}

	overall := cfg.Weights.BehavioralDecay*factors.BehavioralDecay +
		cfg.Weights.NetworkMarginalization*factors.NetworkMarginalization +
		cfg.Weights.TemporalAnomaly*factors.TemporalAnomaly +
		cfg.Weights.CommunityEngagement*factors.CommunityEngagement

	return ChurnPrediction{
		Repository:     repo,
		Contributor:    in.Contributor,
		PredictionDate: date,
		OverallRisk:    overall,
		RiskLevel:      cfg.alertFor(overall),
		Confidence:     confidence(in, cfg),
		Factors:        factors,
		Suggestions:    retentionSuggestions(factors),
	}, nil
}

// splitRecent slices the series into baseline and recent windows, recent
// being the trailing RecentShare of periods (at least one).
func splitRecent(series []float64, cfg ChurnConfig) (baseline, recent []float64) {
	if len(series) == 0 {
		return nil, nil
	}
	k := int(math.Round(float64(len(series)) * cfg.RecentShare))
	if k < 1 {
		k = 1
	}
	if k >= len(series) {
		return nil, series
	}
	return series[:len(series)-k], series[len(series)-k:]
}

// behavioralDecay scores the decline of recent decay-weighted activity
// versus the contributor's own trailing baseline. 0 = steady, 100 = full
// stop. Returns a neutral 50 when there is no usable baseline.
func behavioralDecay(activity []float64, cfg ChurnConfig) float64 {
	baseline, recent := splitRecent(activity, cfg)
	if len(baseline) == 0 {
		return 50
	}
	base := mean(baseline)
	if base <= 0 {
		return 50
	}
	rec := DecayWeightedMean(recent, cfg.DecayTau)
	return clip((base-rec)/base, 0, 1) * 100
}

// networkMarginalization scores centrality decline versus the prior-window
// baseline. Contributors with no edges at all sit high; without a baseline
// the current position alone gives a softer signal.
func networkMarginalization(current, baseline *CentralitySnapshot) float64 {
	if current == nil {
		return 80
	}
	composite := 0.6*current.Degree + 0.4*current.Betweenness
	if baseline == nil {
		return clip(1-composite, 0, 1) * 50
	}
	base := 0.6*baseline.Degree + 0.4*baseline.Betweenness
	if base <= 0 {
		return clip(1-composite, 0, 1) * 50
	}
	return clip((base-composite)/base, 0, 1) * 100
}

// temporalAnomaly scores how far the recent activity rhythm deviates from
// the contributor's own historical pattern, as a robust z-score of the
// recent level against the historical sample.
func temporalAnomaly(activity []float64, cfg ChurnConfig) float64 {
	baseline, recent := splitRecent(activity, cfg)
	if len(baseline) < 2 {
		return 50
	}
	z := math.Abs(RobustZ(mean(recent), baseline))
	return clip(z/3, 0, 1) * 100
}

// engagementDecline scores the drop in issue/PR participation versus the
// trailing baseline. Missing engagement data reads neutral.
func engagementDecline(engagement []float64, cfg ChurnConfig) float64 {
	if len(engagement) == 0 {
		return 50
	}
	baseline, recent := splitRecent(engagement, cfg)
	if len(baseline) == 0 {
		return 50
	}
	base := mean(baseline)
	if base <= 0 {
		return 50
	}
	rec := mean(recent)
	return clip((base-rec)/base, 0, 1) * 100
}

// confidence reflects data sufficiency: shorter history and missing
// baselines lower it, bounded below by the configured floor.
func confidence(in ChurnInputs, cfg ChurnConfig) float64 {
	c := 1.0
	if cfg.MinPeriods > 0 {
		c = clip(float64(len(in.Activity))/float64(cfg.MinPeriods), 0, 1)
	}
	if in.Baseline == nil {
		c *= 0.9
	}
	if len(in.Engagement) == 0 {
		c *= 0.9
	}
	if c < cfg.ConfidenceFloor {
		c = cfg.ConfidenceFloor
	}
	return c
}

func retentionSuggestions(f ChurnFactors) []string {
	var out []string
	if f.BehavioralDecay > 50 {
		out = append(out, "Contribution activity has declined significantly; reach out to check for blockers.")
	}
	if f.NetworkMarginalization > 60 {
		out = append(out, "Contributor is drifting to the edge of the collaboration network; pair them with core members.")
	}
	if f.TemporalAnomaly > 60 {
		out = append(out, "Activity rhythm has shifted from its historical pattern; a 1-on-1 may surface what changed.")
	}
	if f.CommunityEngagement > 60 {
		out = append(out, "Issue and review participation is dropping; invite them into discussions and reviews.")
	}
	if len(out) == 0 {
		out = append(out, "Contributor looks healthy; keep up regular engagement and recognition.")
	}
	return out
}
