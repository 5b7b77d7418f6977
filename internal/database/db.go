// Package database persists analysis result records in SQLite. Records are
// write-once: later analysis dates supersede, nothing is mutated in place.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with pooling configured for concurrent
// analysis runs.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the results database under dataDir.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "community_pulse.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{DB: db}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized", "path", dbPath)
	return database, nil
}

func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS health_scores (
			id TEXT PRIMARY KEY,
			repository TEXT NOT NULL,
			analysis_date DATETIME NOT NULL,
			overall_score REAL NOT NULL,
			activity_score REAL NOT NULL,
			diversity_score REAL NOT NULL,
			response_time_score REAL NOT NULL,
			code_quality_score REAL NOT NULL,
			documentation_score REAL NOT NULL,
			community_atmosphere_score REAL NOT NULL,
			health_level TEXT NOT NULL,
			lifecycle_stage TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE(repository, analysis_date)
		)`,

		`CREATE TABLE IF NOT EXISTS churn_predictions (
			id TEXT PRIMARY KEY,
			repository TEXT NOT NULL,
			contributor TEXT NOT NULL,
			prediction_date DATETIME NOT NULL,
			overall_risk REAL NOT NULL,
			risk_level TEXT NOT NULL,
			confidence REAL NOT NULL,
			behavioral_decay REAL NOT NULL,
			network_marginalization REAL NOT NULL,
			temporal_anomaly REAL NOT NULL,
			community_engagement REAL NOT NULL,
			suggestions TEXT, -- JSON array
			created_at DATETIME NOT NULL,
			UNIQUE(repository, contributor, prediction_date)
		)`,

		`CREATE TABLE IF NOT EXISTS centrality_snapshots (
			id TEXT PRIMARY KEY,
			repository TEXT NOT NULL,
			contributor TEXT NOT NULL,
			analysis_date DATETIME NOT NULL,
			degree_centrality REAL NOT NULL,
			betweenness_centrality REAL NOT NULL,
			closeness_centrality REAL NOT NULL,
			pagerank REAL NOT NULL,
			UNIQUE(repository, contributor, analysis_date)
		)`,

		`CREATE TABLE IF NOT EXISTS network_snapshots (
			id TEXT PRIMARY KEY,
			repository TEXT NOT NULL,
			analysis_date DATETIME NOT NULL,
			nodes INTEGER NOT NULL,
			edges INTEGER NOT NULL,
			density REAL NOT NULL,
			modularity REAL NOT NULL,
			communities INTEGER NOT NULL,
			bus_factor INTEGER NOT NULL,
			bus_risk TEXT NOT NULL,
			export TEXT, -- JSON nodes/edges payload
			created_at DATETIME NOT NULL,
			UNIQUE(repository, analysis_date)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_health_scores_repo_date ON health_scores(repository, analysis_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_churn_repo_contrib_date ON churn_predictions(repository, contributor, prediction_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_centrality_repo_contrib_date ON centrality_snapshots(repository, contributor, analysis_date DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
