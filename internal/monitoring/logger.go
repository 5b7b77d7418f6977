package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with analysis-domain helpers.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// NewLogger creates a JSON slog logger with RFC3339 timestamps.
func NewLogger() *Logger {
	level := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler), level: level}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// RunLogger logs one completed analysis run.
func (l *Logger) RunLogger(repo string, nodes, edges int, communities int, busFactor int, duration time.Duration, approximate bool) {
	l.Info("Analysis Run Completed",
		"repository", repo,
		"nodes", nodes,
		"edges", edges,
		"communities", communities,
		"bus_factor", busFactor,
		"duration_ms", duration.Milliseconds(),
		"approximate", approximate,
	)
}

// UpstreamLogger logs calls to the upstream metrics provider.
func (l *Logger) UpstreamLogger(source, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "Upstream Fetch",
		"source", source,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// PersistLogger logs result persistence.
func (l *Logger) PersistLogger(entity, repo string, count int) {
	l.Debug("Result Persisted",
		"entity", entity,
		"repository", repo,
		"count", count,
	)
}

// SetLevel adjusts the minimum logged level without replacing the handler.
func (l *Logger) SetLevel(level slog.Level) {
	if l.level != nil {
		l.level.Set(level)
	}
}
