package analysis

import (
	"time"

	"github.com/openpulse/community-pulse/internal/errors"
)

// HealthWeights maps the six dimensions onto the overall score. Must sum to
// 1 within tolerance.
type HealthWeights struct {
	Activity            float64
	Diversity           float64
	ResponseTime        float64
	CodeQuality         float64
	Documentation       float64
	CommunityAtmosphere float64
}

func (w HealthWeights) sum() float64 {
	return w.Activity + w.Diversity + w.ResponseTime + w.CodeQuality +
		w.Documentation + w.CommunityAtmosphere
}

// HealthConfig carries every health-scoring tunable. Passed explicitly into
// Score so concurrent runs with different tuning never interfere.
type HealthConfig struct {
	Weights HealthWeights

	// Level thresholds: scores below WarningMin are critical, below
	// HealthyMin warning, below ExcellentMin healthy, else excellent.
	WarningMin   float64
	HealthyMin   float64
	ExcellentMin float64

	// Lifecycle thresholds.
	EmbryonicMaxCore int     // core contributors below this => embryonic
	DeclineDrop      float64 // trailing activity drop beyond this => decline
	GrowthRise       float64 // trailing activity rise beyond this => growth

	// StageStickiness requires this many consecutive windows proposing the
	// same new stage before transitioning. 1 disables hysteresis.
	StageStickiness int
}

// DefaultHealthConfig mirrors the platform's standard weighting and bands.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Weights: HealthWeights{
			Activity:            0.25,
			Diversity:           0.15,
			ResponseTime:        0.15,
			CodeQuality:         0.15,
			Documentation:       0.15,
			CommunityAtmosphere: 0.15,
		},
		WarningMin:       40,
		HealthyMin:       60,
		ExcellentMin:     80,
		EmbryonicMaxCore: 3,
		DeclineDrop:      0.30,
		GrowthRise:       0.20,
		StageStickiness:  1,
	}
}

// LifecycleInputs are the trend signals the stage machine runs on, sourced
// from the upstream raw metrics for the trailing and prior windows.
type LifecycleInputs struct {
	CoreContributors int
	CurrentActivity  float64
	PriorActivity    float64
}

// LifecycleState carries the previous stage and its streak for optional
// hysteresis across analysis dates.
type LifecycleState struct {
	Stage  LifecycleStage
	Streak int
}

// Score aggregates the six dimension scores into the overall health record
// for one analysis date. prior is nil on the first assessment. Deterministic
// for identical inputs.
func Score(repo string, date time.Time, dims DimensionScores, lc LifecycleInputs, prior *LifecycleState, cfg HealthConfig) (HealthScore, error) {
	const tolerance = 1e-9
	if s := cfg.Weights.sum(); s < 1-tolerance || s > 1+tolerance {
		return HealthScore{}, errors.NewConfigurationError("health dimension weights must sum to 1.0", nil)
	}

	for _, v := range []float64{dims.Activity, dims.Diversity, dims.ResponseTime, dims.CodeQuality, dims.Documentation, dims.CommunityAtmosphere} {
		if v < 0 || v > 100 {
			return HealthScore{}, errors.NewValidationError("dimension scores must be within [0,100]")
		}
	}

	overall := cfg.Weights.Activity*dims.Activity +
		cfg.Weights.Diversity*dims.Diversity +
		cfg.Weights.ResponseTime*dims.ResponseTime +
		cfg.Weights.CodeQuality*dims.CodeQuality +
		cfg.Weights.Documentation*dims.Documentation +
		cfg.Weights.CommunityAtmosphere*dims.CommunityAtmosphere

	return HealthScore{
		Repository:   repo,
		AnalysisDate: date,
		Overall:      overall,
		Dimensions:   dims,
		Level:        cfg.levelFor(overall),
		Stage:        determineStage(lc, prior, cfg),
	}, nil
}

func (c HealthConfig) levelFor(overall float64) HealthLevel {
	switch {
	case overall >= c.ExcellentMin:
		return HealthExcellent
	case overall >= c.HealthyMin:
		return HealthHealthy
	case overall >= c.WarningMin:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// determineStage recomputes the lifecycle stage fresh from current inputs.
// With StageStickiness > 1, a transition away from the prior stage only
// lands after the candidate stage repeats for that many windows.
func determineStage(lc LifecycleInputs, prior *LifecycleState, cfg HealthConfig) LifecycleStage {
	candidate := candidateStage(lc, cfg)

	if cfg.StageStickiness <= 1 || prior == nil {
		return candidate
	}
	if candidate == prior.Stage {
		return candidate
	}
	if prior.Streak+1 >= cfg.StageStickiness {
		return candidate
	}
	return prior.Stage
}

// NextLifecycleState advances the hysteresis state after an assessment. The
// streak counts consecutive windows whose candidate stage disagreed with the
// emitted one.
func NextLifecycleState(prior *LifecycleState, lc LifecycleInputs, cfg HealthConfig) LifecycleState {
	candidate := candidateStage(lc, cfg)
	emitted := determineStage(lc, prior, cfg)
	if prior == nil || candidate == emitted {
		return LifecycleState{Stage: emitted, Streak: 0}
	}
	return LifecycleState{Stage: emitted, Streak: prior.Streak + 1}
}

func candidateStage(lc LifecycleInputs, cfg HealthConfig) LifecycleStage {
	if lc.CoreContributors < cfg.EmbryonicMaxCore {
		return StageEmbryonic
	}
	if lc.PriorActivity > 0 {
		delta := (lc.CurrentActivity - lc.PriorActivity) / lc.PriorActivity
		if delta < -cfg.DeclineDrop {
			return StageDecline
		}
		if delta > cfg.GrowthRise {
			return StageGrowth
		}
	}
	return StageMature
}
