package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulse/community-pulse/internal/errors"
)

var healthDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func uniformDims(v float64) DimensionScores {
	return DimensionScores{
		Activity:            v,
		Diversity:           v,
		ResponseTime:        v,
		CodeQuality:         v,
		Documentation:       v,
		CommunityAtmosphere: v,
	}
}

func matureInputs() LifecycleInputs {
	return LifecycleInputs{CoreContributors: 10, CurrentActivity: 100, PriorActivity: 100}
}

func TestScoreWeightedOverall(t *testing.T) {
	dims := DimensionScores{
		Activity:            80,
		Diversity:           60,
		ResponseTime:        40,
		CodeQuality:         70,
		Documentation:       50,
		CommunityAtmosphere: 90,
	}

	score, err := Score("test/repo", healthDate, dims, matureInputs(), nil, DefaultHealthConfig())
	require.NoError(t, err)

	// 0.25*80 + 0.15*(60+40+70+50+90)
	assert.InDelta(t, 66.5, score.Overall, 1e-9)
	assert.Equal(t, HealthHealthy, score.Level)
	assert.Equal(t, StageMature, score.Stage)
	assert.Equal(t, "test/repo", score.Repository)
}

func TestScoreDeterministic(t *testing.T) {
	dims := uniformDims(72.5)

	first, err := Score("test/repo", healthDate, dims, matureInputs(), nil, DefaultHealthConfig())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Score("test/repo", healthDate, dims, matureInputs(), nil, DefaultHealthConfig())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScoreRejectsBadWeights(t *testing.T) {
	cfg := DefaultHealthConfig()
	cfg.Weights.Activity = 0.5 // sum now 1.25

	_, err := Score("test/repo", healthDate, uniformDims(50), matureInputs(), nil, cfg)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CategoryConfiguration, appErr.Category)
}

func TestScoreRejectsOutOfRangeDimensions(t *testing.T) {
	tests := []struct {
		name string
		dims DimensionScores
	}{
		{"negative", DimensionScores{Activity: -1, Diversity: 50, ResponseTime: 50, CodeQuality: 50, Documentation: 50, CommunityAtmosphere: 50}},
		{"above hundred", DimensionScores{Activity: 50, Diversity: 101, ResponseTime: 50, CodeQuality: 50, Documentation: 50, CommunityAtmosphere: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Score("test/repo", healthDate, tt.dims, matureInputs(), nil, DefaultHealthConfig())
			assert.Error(t, err)
		})
	}
}

func TestHealthLevelBands(t *testing.T) {
	cfg := DefaultHealthConfig()

	tests := []struct {
		overall float64
		want    HealthLevel
	}{
		{0, HealthCritical},
		{39.999, HealthCritical},
		{40, HealthWarning},
		{59.999, HealthWarning},
		{60, HealthHealthy},
		{79.999, HealthHealthy},
		{80, HealthExcellent},
		{100, HealthExcellent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.levelFor(tt.overall), "overall %v", tt.overall)
	}
}

func TestLifecycleStages(t *testing.T) {
	cfg := DefaultHealthConfig()

	tests := []struct {
		name string
		lc   LifecycleInputs
		want LifecycleStage
	}{
		{"embryonic wins regardless of trend", LifecycleInputs{CoreContributors: 2, CurrentActivity: 10, PriorActivity: 100}, StageEmbryonic},
		{"decline on sharp drop", LifecycleInputs{CoreContributors: 10, CurrentActivity: 60, PriorActivity: 100}, StageDecline},
		{"growth on sharp rise", LifecycleInputs{CoreContributors: 10, CurrentActivity: 130, PriorActivity: 100}, StageGrowth},
		{"mature when steady", LifecycleInputs{CoreContributors: 10, CurrentActivity: 105, PriorActivity: 100}, StageMature},
		{"mature at exactly the drop threshold", LifecycleInputs{CoreContributors: 10, CurrentActivity: 70, PriorActivity: 100}, StageMature},
		{"mature with no prior activity", LifecycleInputs{CoreContributors: 10, CurrentActivity: 50, PriorActivity: 0}, StageMature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, candidateStage(tt.lc, cfg))
		})
	}
}

func TestLifecycleHysteresis(t *testing.T) {
	cfg := DefaultHealthConfig()
	cfg.StageStickiness = 2

	decline := LifecycleInputs{CoreContributors: 10, CurrentActivity: 50, PriorActivity: 100}

	// First window proposing decline: the prior stage holds.
	state := LifecycleState{Stage: StageMature, Streak: 0}
	next := NextLifecycleState(&state, decline, cfg)
	assert.Equal(t, StageMature, next.Stage)
	assert.Equal(t, 1, next.Streak)

	// Second consecutive window lands the transition.
	final := NextLifecycleState(&next, decline, cfg)
	assert.Equal(t, StageDecline, final.Stage)
	assert.Equal(t, 0, final.Streak)
}

func TestLifecycleHysteresisResets(t *testing.T) {
	cfg := DefaultHealthConfig()
	cfg.StageStickiness = 3

	decline := LifecycleInputs{CoreContributors: 10, CurrentActivity: 50, PriorActivity: 100}
	steady := matureInputs()

	state := LifecycleState{Stage: StageMature}
	state = NextLifecycleState(&state, decline, cfg)
	assert.Equal(t, StageMature, state.Stage)
	assert.Equal(t, 1, state.Streak)

	// A steady window clears the pending transition.
	state = NextLifecycleState(&state, steady, cfg)
	assert.Equal(t, StageMature, state.Stage)
	assert.Equal(t, 0, state.Streak)
}
