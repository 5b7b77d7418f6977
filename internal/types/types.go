package types

import "time"

// EventKind classifies a contribution event.
type EventKind string

const (
	EventCommit EventKind = "commit"
	EventReview EventKind = "review"
	EventIssue  EventKind = "issue"
	EventPR     EventKind = "pr"
)

// ContributionEvent is a normalized collaboration event from the ingest
// adapter. TargetID is empty for solo activity (e.g. a direct commit with no
// reviewer), in which case the event contributes node presence but no edge.
type ContributionEvent struct {
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id,omitempty"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Weight    float64   `json:"weight"`
}

// Window is a half-open analysis interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// RawMetricPoint is one sample of an upstream per-repository metric series
// (commits, pull_requests, issues_opened, active_contributors, ...).
type RawMetricPoint struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// ActivitySeries is a per-contributor series of contribution counts, one
// entry per period, oldest first.
type ActivitySeries struct {
	Contributor string    `json:"contributor"`
	Periods     []float64 `json:"periods"`
}

// AnalyzeRequest is the request body for the analysis endpoints.
type AnalyzeRequest struct {
	Platform string `json:"platform" binding:"required"`
	Owner    string `json:"owner" binding:"required"`
	Repo     string `json:"repo" binding:"required"`
}

// FullName joins owner and repo the way upstream feeds key repositories.
func (r AnalyzeRequest) FullName() string {
	return r.Owner + "/" + r.Repo
}
