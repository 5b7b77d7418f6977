package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openpulse/community-pulse/internal/analysis"
	"github.com/openpulse/community-pulse/internal/graph"
	"github.com/openpulse/community-pulse/internal/pipeline"
)

// Store implements the pipeline's ResultStore boundary over SQLite.
type Store struct {
	db *DB
}

// NewStore wraps an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// SaveHealthScore inserts one write-once health record.
func (s *Store) SaveHealthScore(ctx context.Context, score analysis.HealthScore) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_scores (
			id, repository, analysis_date, overall_score,
			activity_score, diversity_score, response_time_score,
			code_quality_score, documentation_score, community_atmosphere_score,
			health_level, lifecycle_stage, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), score.Repository, score.AnalysisDate, score.Overall,
		score.Dimensions.Activity, score.Dimensions.Diversity, score.Dimensions.ResponseTime,
		score.Dimensions.CodeQuality, score.Dimensions.Documentation, score.Dimensions.CommunityAtmosphere,
		score.Level.String(), score.Stage.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting health score: %w", err)
	}
	return nil
}

// SaveChurnPredictions inserts one write-once churn record per contributor.
func (s *Store) SaveChurnPredictions(ctx context.Context, predictions []analysis.ChurnPrediction) error {
	if len(predictions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning churn insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO churn_predictions (
			id, repository, contributor, prediction_date,
			overall_risk, risk_level, confidence,
			behavioral_decay, network_marginalization, temporal_anomaly, community_engagement,
			suggestions, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing churn insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range predictions {
		suggestions, err := json.Marshal(p.Suggestions)
		if err != nil {
			return fmt.Errorf("encoding suggestions: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), p.Repository, p.Contributor, p.PredictionDate,
			p.OverallRisk, p.RiskLevel.String(), p.Confidence,
			p.Factors.BehavioralDecay, p.Factors.NetworkMarginalization,
			p.Factors.TemporalAnomaly, p.Factors.CommunityEngagement,
			string(suggestions), now,
		); err != nil {
			return fmt.Errorf("inserting churn prediction for %s: %w", p.Contributor, err)
		}
	}

	return tx.Commit()
}

// SaveCentrality inserts one snapshot row per contributor.
func (s *Store) SaveCentrality(ctx context.Context, repo string, date time.Time, result graph.CentralityResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning centrality insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO centrality_snapshots (
			id, repository, contributor, analysis_date,
			degree_centrality, betweenness_centrality, closeness_centrality, pagerank
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing centrality insert: %w", err)
	}
	defer stmt.Close()

	for contributor, c := range result.Scores {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), repo, contributor, date,
			c.Degree, c.Betweenness, c.Closeness, c.PageRank,
		); err != nil {
			return fmt.Errorf("inserting centrality for %s: %w", contributor, err)
		}
	}

	return tx.Commit()
}

// SaveNetworkSnapshot inserts the graph-level summary for one run.
func (s *Store) SaveNetworkSnapshot(ctx context.Context, snapshot pipeline.NetworkSnapshot) error {
	export, err := json.Marshal(snapshot.Export)
	if err != nil {
		return fmt.Errorf("encoding network export: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO network_snapshots (
			id, repository, analysis_date, nodes, edges, density,
			modularity, communities, bus_factor, bus_risk, export, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), snapshot.Repository, snapshot.Date,
		snapshot.Stats.Nodes, snapshot.Stats.Edges, snapshot.Stats.Density,
		snapshot.Communities.Modularity, snapshot.Communities.Count,
		snapshot.BusFactor.Count, snapshot.BusFactor.RiskLevel.String(),
		string(export), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting network snapshot: %w", err)
	}
	return nil
}

// SnapshotRecord is the read model of a persisted network snapshot.
type SnapshotRecord struct {
	Repository  string              `json:"repository"`
	Date        time.Time           `json:"analysis_date"`
	Nodes       int                 `json:"nodes"`
	Edges       int                 `json:"edges"`
	Density     float64             `json:"density"`
	Modularity  float64             `json:"modularity"`
	Communities int                 `json:"communities"`
	BusFactor   int                 `json:"bus_factor"`
	BusRisk     string              `json:"bus_risk"`
	Export      graph.NetworkExport `json:"export"`
}

// LatestNetworkSnapshot returns the newest snapshot for the repository, or
// nil when none has been recorded.
func (s *Store) LatestNetworkSnapshot(ctx context.Context, repo string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT analysis_date, nodes, edges, density,
			modularity, communities, bus_factor, bus_risk, export
		FROM network_snapshots
		WHERE repository = ?
		ORDER BY analysis_date DESC
		LIMIT 1`, repo)

	rec := SnapshotRecord{Repository: repo}
	var export string
	err := row.Scan(
		&rec.Date, &rec.Nodes, &rec.Edges, &rec.Density,
		&rec.Modularity, &rec.Communities, &rec.BusFactor, &rec.BusRisk, &export,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying network snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(export), &rec.Export); err != nil {
		return nil, fmt.Errorf("decoding network export: %w", err)
	}
	return &rec, nil
}

// HealthHistory returns up to limit health records for the repository,
// newest first.
func (s *Store) HealthHistory(ctx context.Context, repo string, limit int) ([]analysis.HealthScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT analysis_date, overall_score,
			activity_score, diversity_score, response_time_score,
			code_quality_score, documentation_score, community_atmosphere_score,
			health_level, lifecycle_stage
		FROM health_scores
		WHERE repository = ?
		ORDER BY analysis_date DESC
		LIMIT ?`, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("querying health history: %w", err)
	}
	defer rows.Close()

	var out []analysis.HealthScore
	for rows.Next() {
		var (
			score        analysis.HealthScore
			level, stage string
		)
		score.Repository = repo
		if err := rows.Scan(
			&score.AnalysisDate, &score.Overall,
			&score.Dimensions.Activity, &score.Dimensions.Diversity, &score.Dimensions.ResponseTime,
			&score.Dimensions.CodeQuality, &score.Dimensions.Documentation, &score.Dimensions.CommunityAtmosphere,
			&level, &stage,
		); err != nil {
			return nil, fmt.Errorf("scanning health history row: %w", err)
		}
		score.Level = analysis.ParseHealthLevel(level)
		score.Stage = analysis.ParseLifecycleStage(stage)
		out = append(out, score)
	}
	return out, rows.Err()
}

// PriorHealthScore returns the most recent health record strictly before
// the given date, or nil when none exists.
func (s *Store) PriorHealthScore(ctx context.Context, repo string, before time.Time) (*analysis.HealthScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT analysis_date, overall_score,
			activity_score, diversity_score, response_time_score,
			code_quality_score, documentation_score, community_atmosphere_score,
			health_level, lifecycle_stage
		FROM health_scores
		WHERE repository = ? AND analysis_date < ?
		ORDER BY analysis_date DESC
		LIMIT 1`, repo, before)

	var (
		score        analysis.HealthScore
		level, stage string
	)
	score.Repository = repo
	err := row.Scan(
		&score.AnalysisDate, &score.Overall,
		&score.Dimensions.Activity, &score.Dimensions.Diversity, &score.Dimensions.ResponseTime,
		&score.Dimensions.CodeQuality, &score.Dimensions.Documentation, &score.Dimensions.CommunityAtmosphere,
		&level, &stage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying prior health score: %w", err)
	}
	score.Level = analysis.ParseHealthLevel(level)
	score.Stage = analysis.ParseLifecycleStage(stage)
	return &score, nil
}

// PriorCentrality returns the contributor's most recent centrality snapshot
// strictly before the given date, or nil when none exists.
func (s *Store) PriorCentrality(ctx context.Context, repo, contributor string, before time.Time) (*analysis.CentralitySnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT degree_centrality, betweenness_centrality
		FROM centrality_snapshots
		WHERE repository = ? AND contributor = ? AND analysis_date < ?
		ORDER BY analysis_date DESC
		LIMIT 1`, repo, contributor, before)

	var snap analysis.CentralitySnapshot
	err := row.Scan(&snap.Degree, &snap.Betweenness)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying prior centrality: %w", err)
	}
	return &snap, nil
}

// PriorChurnPrediction returns the contributor's most recent churn record
// strictly before the given date, or nil when none exists.
func (s *Store) PriorChurnPrediction(ctx context.Context, repo, contributor string, before time.Time) (*analysis.ChurnPrediction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT prediction_date, overall_risk, risk_level, confidence,
			behavioral_decay, network_marginalization, temporal_anomaly, community_engagement
		FROM churn_predictions
		WHERE repository = ? AND contributor = ? AND prediction_date < ?
		ORDER BY prediction_date DESC
		LIMIT 1`, repo, contributor, before)

	p := analysis.ChurnPrediction{Repository: repo, Contributor: contributor}
	var level string
	err := row.Scan(
		&p.PredictionDate, &p.OverallRisk, &level, &p.Confidence,
		&p.Factors.BehavioralDecay, &p.Factors.NetworkMarginalization,
		&p.Factors.TemporalAnomaly, &p.Factors.CommunityEngagement,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying prior churn prediction: %w", err)
	}
	p.RiskLevel = analysis.ParseAlertLevel(level)
	return &p, nil
}
