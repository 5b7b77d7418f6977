package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/openpulse/community-pulse/internal/adapters"
	"github.com/openpulse/community-pulse/internal/cache"
	"github.com/openpulse/community-pulse/internal/database"
	"github.com/openpulse/community-pulse/internal/errors"
	"github.com/openpulse/community-pulse/internal/monitoring"
	"github.com/openpulse/community-pulse/internal/pipeline"
	"github.com/openpulse/community-pulse/internal/types"
)

const version = "1.0.0"

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	port := getEnvOrDefault("PORT", "8080")
	openDiggerBase := getEnvOrDefault("OPENDIGGER_BASE_URL", "")
	windowMonths := getEnvIntOrDefault("ANALYSIS_WINDOW_MONTHS", 6)
	cacheTTL := getEnvDurationOrDefault("CACHE_TTL", 15*time.Minute)
	analyzeTimeout := getEnvDurationOrDefault("ANALYZE_TIMEOUT", 60*time.Second)

	// Initialize database and result store
	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer errors.SafeClose(db, "database")

	store := database.NewStore(db)

	appLogger := monitoring.NewLogger()
	appLogger.SetLevel(logLevelFor(logLevel))

	// Initialize upstream metrics client and the run pipeline
	openDigger := adapters.NewOpenDiggerClient(openDiggerBase, appLogger)
	defer errors.SafeClose(openDigger, "opendigger client")

	runner := pipeline.NewRunner(openDigger, openDigger, store, pipeline.DefaultConfig(), appLogger)

	// Completed runs are cached per (repo, window)
	resultCache := cache.NewCache(cacheTTL)
	defer resultCache.Close()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appLogger.RequestLogger(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	})
	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api/v1")

	runAnalysis := func(c *gin.Context) (*pipeline.Result, bool) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), analyzeTimeout)
		defer cancel()

		var req types.AnalyzeRequest
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid request body: " + err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return nil, false
		}
		if !strings.EqualFold(req.Platform, "github") {
			appErr := errors.NewValidationError(fmt.Sprintf("unsupported platform %q", req.Platform))
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return nil, false
		}

		window := windowFor(c, windowMonths)
		repo := req.FullName()
		key := cacheKey(repo, window)

		if cached, ok := resultCache.Get(key); ok {
			return cached.(*pipeline.Result), true
		}

		result, err := runner.Run(ctx, repo, window)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return nil, false
		}

		resultCache.Set(key, result)
		return result, true
	}

	// Full analysis run: network metrics, health and churn in one response.
	api.POST("/analyze", func(c *gin.Context) {
		result, ok := runAnalysis(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.POST("/analyze/health", func(c *gin.Context) {
		result, ok := runAnalysis(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id":     result.RunID,
			"repository": result.Repository,
			"window":     result.Window,
			"health":     result.Health,
			"stats":      result.Stats,
		})
	})

	api.POST("/analyze/churn", func(c *gin.Context) {
		result, ok := runAnalysis(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id":            result.RunID,
			"repository":        result.Repository,
			"window":            result.Window,
			"churn_predictions": result.Churn,
		})
	})

	// Latest persisted network snapshot for a repository.
	api.GET("/network/:owner/:repo", func(c *gin.Context) {
		repo := c.Param("owner") + "/" + c.Param("repo")

		snapshot, err := store.LatestNetworkSnapshot(c.Request.Context(), repo)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		if snapshot == nil {
			appErr := errors.NewNotFoundError("network snapshot", repo)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, snapshot)
	})

	// Trailing health history for a repository.
	api.GET("/health/:owner/:repo", func(c *gin.Context) {
		repo := c.Param("owner") + "/" + c.Param("repo")
		limit := 12
		if limitStr := c.Query("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
				limit = l
			}
		}

		scores, err := store.HealthHistory(c.Request.Context(), repo, limit)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"repository": repo,
			"scores":     scores,
		})
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// windowFor derives the analysis window from the optional months query
// parameter, ending at the start of the current UTC day.
func windowFor(c *gin.Context, defaultMonths int) types.Window {
	months := defaultMonths
	if monthsStr := c.Query("months"); monthsStr != "" {
		if m, err := strconv.Atoi(monthsStr); err == nil && m > 0 && m <= 36 {
			months = m
		}
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	return types.Window{Start: end.AddDate(0, -months, 0), End: end}
}

func logLevelFor(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func cacheKey(repo string, w types.Window) string {
	return repo + "|" + w.Start.Format(time.RFC3339) + "|" + w.End.Format(time.RFC3339)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
