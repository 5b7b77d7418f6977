// Package adapters implements the ingest boundary: clients for the upstream
// data providers the analysis pipeline consumes events and raw metrics from.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/openpulse/community-pulse/internal/errors"
	"github.com/openpulse/community-pulse/internal/monitoring"
	"github.com/openpulse/community-pulse/internal/resilience"
	"github.com/openpulse/community-pulse/internal/types"
)

const defaultOpenDiggerBase = "https://oss.x-lab.info/open_digger"

// metric feed name -> RawMetricPoint key
var metricFeeds = map[string]string{
	"activity.json":            "activity",
	"openrank.json":            "openrank",
	"participants.json":        "active_contributors",
	"issue_response_time.json": "issue_response_time",
	"issues_new.json":          "issues_opened",
	"issues_closed.json":       "issues_closed",
	"change_requests.json":     "pull_requests",
	"code_change_commits.json": "commits",
}

// OpenDiggerClient fetches per-repository metric feeds and normalized
// collaboration events from an OpenDigger-compatible endpoint. Implements
// the pipeline's EventSource and MetricsSource boundaries.
type OpenDiggerClient struct {
	baseURL string
	http    *resilience.HTTPClient
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	logger  *monitoring.Logger
}

// NewOpenDiggerClient creates a client with circuit breaking, pooling and a
// polite request rate against the public endpoint. logger may be nil.
func NewOpenDiggerClient(baseURL string, logger *monitoring.Logger) *OpenDiggerClient {
	if baseURL == "" {
		baseURL = defaultOpenDiggerBase
	}
	if logger == nil {
		logger = monitoring.NewLogger()
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})

	return &OpenDiggerClient{
		baseURL: baseURL,
		http:    resilience.NewHTTPClient(10, 20, 30*time.Second, cb),
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		retry:   resilience.DefaultRetryConfig(),
		logger:  logger,
	}
}

// wireEvent is the upstream representation of one collaboration event.
type wireEvent struct {
	Actor     string  `json:"actor"`
	Target    string  `json:"target,omitempty"`
	Kind      string  `json:"kind"`
	Timestamp string  `json:"timestamp"`
	Weight    float64 `json:"weight"`
}

// FetchEvents retrieves the normalized collaboration event feed and filters
// it to the window. A missing feed reads as zero events; the pipeline turns
// that into an empty-window error.
func (c *OpenDiggerClient) FetchEvents(ctx context.Context, repo string, window types.Window) ([]types.ContributionEvent, error) {
	url := fmt.Sprintf("%s/github/%s/collaboration_events.json", c.baseURL, repo)

	body, found, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var wire []wireEvent
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decoding collaboration events for %s: %w", repo, err)
	}

	events := make([]types.ContributionEvent, 0, len(wire))
	for _, w := range wire {
		ts, err := time.Parse(time.RFC3339, w.Timestamp)
		if err != nil {
			continue
		}
		if !window.Contains(ts) {
			continue
		}
		weight := w.Weight
		if weight <= 0 {
			weight = 1
		}
		events = append(events, types.ContributionEvent{
			ActorID:   w.Actor,
			TargetID:  w.Target,
			Kind:      types.EventKind(w.Kind),
			Timestamp: ts,
			Weight:    weight,
		})
	}
	return events, nil
}

// FetchRawMetrics retrieves the per-month metric feeds and merges them into
// one point per month inside the window. Feeds that 404 upstream are simply
// absent from the points.
func (c *OpenDiggerClient) FetchRawMetrics(ctx context.Context, repo string, window types.Window) ([]types.RawMetricPoint, error) {
	byMonth := make(map[string]map[string]float64)

	for feed, key := range metricFeeds {
		url := fmt.Sprintf("%s/github/%s/%s", c.baseURL, repo, feed)
		body, found, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		var series map[string]float64
		if err := json.Unmarshal(body, &series); err != nil {
			return nil, fmt.Errorf("decoding %s for %s: %w", feed, repo, err)
		}
		for month, value := range series {
			if _, ok := byMonth[month]; !ok {
				byMonth[month] = make(map[string]float64)
			}
			byMonth[month][key] = value
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	points := make([]types.RawMetricPoint, 0, len(months))
	for _, m := range months {
		ts, err := time.Parse("2006-01", m)
		if err != nil {
			continue
		}
		if ts.Before(window.Start.AddDate(0, -1, 0)) || !ts.Before(window.End) {
			continue
		}
		points = append(points, types.RawMetricPoint{Timestamp: ts, Values: byMonth[m]})
	}
	return points, nil
}

// fetch performs one rate-limited, retried GET. found is false on 404.
func (c *OpenDiggerClient) fetch(ctx context.Context, url string) (body []byte, found bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	err = resilience.RetryWithConfig(ctx, c.retry, func() error {
		started := time.Now()
		resp, reqErr := c.http.Do(ctx, http.MethodGet, url, map[string]string{
			"Accept": "application/json",
		})
		if reqErr != nil {
			c.logger.UpstreamLogger("opendigger", url, 0, time.Since(started), false)
			return reqErr
		}
		defer errors.SafeClose(resp.Body, url)

		ok := resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound
		c.logger.UpstreamLogger("opendigger", url, resp.StatusCode, time.Since(started), ok)

		switch {
		case resp.StatusCode == http.StatusNotFound:
			found = false
			body = nil
			return nil
		case resp.StatusCode != http.StatusOK:
			data, _ := io.ReadAll(resp.Body)
			return errors.NewUpstreamDataError("opendigger",
				fmt.Errorf("status %d for %s: %s", resp.StatusCode, url, string(data)))
		}

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return readErr
		}
		body = data
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return body, found, nil
}

// Close releases the underlying transport.
func (c *OpenDiggerClient) Close() error {
	return c.http.Close()
}
