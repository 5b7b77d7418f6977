package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpulse/community-pulse/internal/types"
)

func adapterWindow() types.Window {
	return types.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/github/test/repo/collaboration_events.json", r.URL.Path)
		w.Write([]byte(`[
			{"actor":"alice","target":"bob","kind":"review","timestamp":"2024-02-10T12:00:00Z","weight":2},
			{"actor":"carol","kind":"commit","timestamp":"2024-03-01T00:00:00Z"},
			{"actor":"dave","target":"alice","kind":"commit","timestamp":"2023-01-01T00:00:00Z","weight":1},
			{"actor":"mallory","target":"bob","kind":"commit","timestamp":"not-a-time","weight":1}
		]`))
	}))
	defer server.Close()

	client := NewOpenDiggerClient(server.URL, nil)
	defer client.Close()

	events, err := client.FetchEvents(context.Background(), "test/repo", adapterWindow())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "alice", events[0].ActorID)
	assert.Equal(t, "bob", events[0].TargetID)
	assert.Equal(t, types.EventReview, events[0].Kind)
	assert.Equal(t, 2.0, events[0].Weight)

	// Missing weight defaults to 1; solo events keep an empty target.
	assert.Equal(t, "carol", events[1].ActorID)
	assert.Empty(t, events[1].TargetID)
	assert.Equal(t, 1.0, events[1].Weight)
}

func TestFetchEventsMissingFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewOpenDiggerClient(server.URL, nil)
	defer client.Close()

	events, err := client.FetchEvents(context.Background(), "test/repo", adapterWindow())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFetchRawMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/github/test/repo/code_change_commits.json":
			w.Write([]byte(`{"2024-01": 40, "2024-02": 35, "2022-01": 99}`))
		case "/github/test/repo/change_requests.json":
			w.Write([]byte(`{"2024-01": 8}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewOpenDiggerClient(server.URL, nil)
	defer client.Close()

	points, err := client.FetchRawMetrics(context.Background(), "test/repo", adapterWindow())
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Sorted by month, feeds merged per point, out-of-window months dropped.
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Timestamp)
	assert.Equal(t, 40.0, points[0].Values["commits"])
	assert.Equal(t, 8.0, points[0].Values["pull_requests"])
	assert.Equal(t, 35.0, points[1].Values["commits"])
}

func TestFetchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenDiggerClient(server.URL, nil)
	client.retry.MaxAttempts = 1
	client.retry.InitialDelay = time.Millisecond
	defer client.Close()

	_, err := client.FetchEvents(context.Background(), "test/repo", adapterWindow())
	assert.Error(t, err)
}
