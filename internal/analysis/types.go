package analysis

import "time"

// HealthLevel bands the overall health score.
type HealthLevel int

const (
	HealthCritical HealthLevel = iota
	HealthWarning
	HealthHealthy
	HealthExcellent
)

func (l HealthLevel) String() string {
	switch l {
	case HealthExcellent:
		return "excellent"
	case HealthHealthy:
		return "healthy"
	case HealthWarning:
		return "warning"
	default:
		return "critical"
	}
}

// MarshalJSON renders the level as its categorical name.
func (l HealthLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// LifecycleStage classifies where a community sits in its life.
type LifecycleStage int

const (
	StageEmbryonic LifecycleStage = iota
	StageGrowth
	StageMature
	StageDecline
)

func (s LifecycleStage) String() string {
	switch s {
	case StageGrowth:
		return "growth"
	case StageMature:
		return "mature"
	case StageDecline:
		return "decline"
	default:
		return "embryonic"
	}
}

// MarshalJSON renders the stage as its categorical name.
func (s LifecycleStage) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// AlertLevel is the churn-risk alert band, ordered green < red.
type AlertLevel int

const (
	AlertGreen AlertLevel = iota
	AlertYellow
	AlertOrange
	AlertRed
)

func (l AlertLevel) String() string {
	switch l {
	case AlertRed:
		return "red"
	case AlertOrange:
		return "orange"
	case AlertYellow:
		return "yellow"
	default:
		return "green"
	}
}

// MarshalJSON renders the level as its categorical name.
func (l AlertLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// ParseHealthLevel maps a stored categorical name back to its level.
func ParseHealthLevel(s string) HealthLevel {
	switch s {
	case "excellent":
		return HealthExcellent
	case "healthy":
		return HealthHealthy
	case "warning":
		return HealthWarning
	default:
		return HealthCritical
	}
}

// ParseLifecycleStage maps a stored categorical name back to its stage.
func ParseLifecycleStage(s string) LifecycleStage {
	switch s {
	case "growth":
		return StageGrowth
	case "mature":
		return StageMature
	case "decline":
		return StageDecline
	default:
		return StageEmbryonic
	}
}

// ParseAlertLevel maps a stored categorical name back to its level.
func ParseAlertLevel(s string) AlertLevel {
	switch s {
	case "red":
		return AlertRed
	case "orange":
		return AlertOrange
	case "yellow":
		return AlertYellow
	default:
		return AlertGreen
	}
}

// DimensionScores are the six externally computed health dimensions, each in
// [0,100].
type DimensionScores struct {
	Activity            float64 `json:"activity_score"`
	Diversity           float64 `json:"diversity_score"`
	ResponseTime        float64 `json:"response_time_score"`
	CodeQuality         float64 `json:"code_quality_score"`
	Documentation       float64 `json:"documentation_score"`
	CommunityAtmosphere float64 `json:"community_atmosphere_score"`
}

// HealthScore is the write-once health record for one analysis date.
type HealthScore struct {
	Repository   string          `json:"repository"`
	AnalysisDate time.Time       `json:"analysis_date"`
	Overall      float64         `json:"overall_score"`
	Dimensions   DimensionScores `json:"dimensions"`
	Level        HealthLevel     `json:"health_level"`
	Stage        LifecycleStage  `json:"lifecycle_stage"`
}

// ChurnFactors are the four churn-risk factor scores, each in [0,100].
type ChurnFactors struct {
	BehavioralDecay        float64 `json:"behavioral_decay"`
	NetworkMarginalization float64 `json:"network_marginalization"`
	TemporalAnomaly        float64 `json:"temporal_anomaly"`
	CommunityEngagement    float64 `json:"community_engagement"`
}

// ChurnPrediction is the write-once churn record for one contributor and
// prediction date.
type ChurnPrediction struct {
	Repository     string       `json:"repository"`
	Contributor    string       `json:"contributor"`
	PredictionDate time.Time    `json:"prediction_date"`
	OverallRisk    float64      `json:"overall_risk"`
	RiskLevel      AlertLevel   `json:"risk_level"`
	Confidence     float64      `json:"confidence"`
	Factors        ChurnFactors `json:"factors"`
	Suggestions    []string     `json:"retention_suggestions"`

	// Escalated is set when the risk level rose versus the contributor's
	// most recent prior prediction. Derived per run, not persisted.
	Escalated bool `json:"escalated,omitempty"`
}
