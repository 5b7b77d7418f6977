package analysis

import "github.com/openpulse/community-pulse/internal/types"

// Metric keys expected in upstream raw metric points.
const (
	MetricCommits            = "commits"
	MetricPullRequests       = "pull_requests"
	MetricIssuesOpened       = "issues_opened"
	MetricIssuesClosed       = "issues_closed"
	MetricIssueResponseHours = "issue_response_time"
	MetricActiveContributors = "active_contributors"
)

// DimensionBaselines hold the "healthy project" reference levels the raw
// metrics are normalized against over one analysis window.
type DimensionBaselines struct {
	Commits         float64
	PullRequests    float64
	IssuesOpened    float64
	Contributors    float64
	FastResponseHrs float64
	SlowResponseHrs float64
}

// DefaultDimensionBaselines are tuned for a 90-day window.
func DefaultDimensionBaselines() DimensionBaselines {
	return DimensionBaselines{
		Commits:         100,
		PullRequests:    20,
		IssuesOpened:    30,
		Contributors:    10,
		FastResponseHrs: 24,
		SlowResponseHrs: 168,
	}
}

// Dimensions derives the six [0,100] dimension scores from upstream raw
// metric points. Missing series fall back to neutral scores so sparse data
// degrades instead of failing.
func Dimensions(points []types.RawMetricPoint, base DimensionBaselines) DimensionScores {
	if len(points) == 0 {
		return DimensionScores{ResponseTime: 50, CodeQuality: 50, Documentation: 50, CommunityAtmosphere: 50}
	}

	sum := func(key string) float64 {
		s := 0.0
		for _, p := range points {
			s += p.Values[key]
		}
		return s
	}

	commits := sum(MetricCommits)
	prs := sum(MetricPullRequests)
	opened := sum(MetricIssuesOpened)
	closed := sum(MetricIssuesClosed)

	return DimensionScores{
		Activity:            activityScore(commits, prs, opened, base),
		Diversity:           diversityScore(points, base),
		ResponseTime:        responseTimeScore(points, base),
		CodeQuality:         codeQualityScore(commits, prs),
		Documentation:       70, // needs doc analysis upstream; neutral-positive until then
		CommunityAtmosphere: atmosphereScore(opened, closed),
	}
}

func activityScore(commits, prs, issues float64, base DimensionBaselines) float64 {
	commitScore := clip(commits/base.Commits, 0, 1) * 40
	prScore := clip(prs/base.PullRequests, 0, 1) * 30
	issueScore := clip(issues/base.IssuesOpened, 0, 1) * 30
	return commitScore + prScore + issueScore
}

func diversityScore(points []types.RawMetricPoint, base DimensionBaselines) float64 {
	avg := 0.0
	for _, p := range points {
		avg += p.Values[MetricActiveContributors]
	}
	avg /= float64(len(points))
	return clip(avg/base.Contributors, 0, 1) * 100
}

// responseTimeScore maps mean issue response hours linearly from fast=100
// down to slow=0.
func responseTimeScore(points []types.RawMetricPoint, base DimensionBaselines) float64 {
	var samples []float64
	for _, p := range points {
		if v, ok := p.Values[MetricIssueResponseHours]; ok && v > 0 {
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return 50
	}
	avg := mean(samples)
	switch {
	case avg <= base.FastResponseHrs:
		return 100
	case avg >= base.SlowResponseHrs:
		return 0
	default:
		return 100 - (avg-base.FastResponseHrs)/(base.SlowResponseHrs-base.FastResponseHrs)*100
	}
}

// codeQualityScore uses the PR-to-commit ratio as a review-coverage proxy;
// a 20-50% ratio reads as healthy.
func codeQualityScore(commits, prs float64) float64 {
	if commits == 0 {
		return 50
	}
	ratio := prs / commits
	switch {
	case ratio >= 0.2 && ratio <= 0.5:
		return 100
	case ratio < 0.2:
		return ratio / 0.2 * 100
	default:
		return clip(100-(ratio-0.5)*100, 0, 100)
	}
}

func atmosphereScore(opened, closed float64) float64 {
	if opened == 0 {
		return 70
	}
	return clip(closed/opened/0.7, 0, 1) * 100
}
