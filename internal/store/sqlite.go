package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/matchforge/matchcast/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS predictions (
	id            TEXT PRIMARY KEY,
	fixture_id    TEXT NOT NULL,
	batch_id      TEXT,
	home_team     TEXT NOT NULL,
	away_team     TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	probabilities TEXT NOT NULL,
	confidence    REAL NOT NULL,
	half_time     TEXT NOT NULL,
	reasoning     TEXT,
	sources       TEXT NOT NULL,
	method        TEXT NOT NULL,
	quality       TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS results (
	fixture_id  TEXT PRIMARY KEY,
	home_goals  INTEGER NOT NULL,
	away_goals  INTEGER NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_predictions_fixture ON predictions(fixture_id);
CREATE INDEX IF NOT EXISTS idx_predictions_batch ON predictions(batch_id);
CREATE INDEX IF NOT EXISTS idx_predictions_quality ON predictions(quality);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePrediction(ctx context.Context, p *model.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	probsJSON, halfJSON, sourcesJSON, err := marshalPredictionFields(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO predictions
		 (id, fixture_id, batch_id, home_team, away_team, outcome, probabilities, confidence, half_time, reasoning, sources, method, quality, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FixtureID, nullable(p.BatchID), p.HomeTeam, p.AwayTeam, string(p.Outcome),
		probsJSON, p.Confidence, halfJSON, p.Reasoning, sourcesJSON, p.Method, string(p.Quality), p.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert prediction")
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, batchID string, preds []*model.Prediction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin batch")
	}
	defer tx.Rollback()

	for _, p := range preds {
		p.BatchID = batchID
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		probsJSON, halfJSON, sourcesJSON, err := marshalPredictionFields(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO predictions
			 (id, fixture_id, batch_id, home_team, away_team, outcome, probabilities, confidence, half_time, reasoning, sources, method, quality, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.FixtureID, batchID, p.HomeTeam, p.AwayTeam, string(p.Outcome),
			probsJSON, p.Confidence, halfJSON, p.Reasoning, sourcesJSON, p.Method, string(p.Quality), p.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert batch prediction %s", p.FixtureID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit batch")
}

func (s *SQLiteStore) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	row := s.db.QueryRowContext(ctx, selectPrediction+` WHERE id = ?`, id)
	return scanPrediction(row)
}

func (s *SQLiteStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.Prediction, error) {
	query := selectPrediction + ` WHERE 1=1`
	var args []any

	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	if filter.Quality != "" {
		query += ` AND quality = ?`
		args = append(args, string(filter.Quality))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list predictions")
	}
	defer rows.Close()

	var preds []model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		preds = append(preds, *p)
	}
	return preds, eris.Wrap(rows.Err(), "sqlite: list predictions iterate")
}

func (s *SQLiteStore) RecordResult(ctx context.Context, r model.MatchResult) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (fixture_id, home_goals, away_goals, recorded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(fixture_id) DO UPDATE SET home_goals = excluded.home_goals, away_goals = excluded.away_goals, recorded_at = excluded.recorded_at`,
		r.FixtureID, r.HomeGoals, r.AwayGoals, recordedAt,
	)
	return eris.Wrap(err, "sqlite: record result")
}

func (s *SQLiteStore) Accuracy(ctx context.Context) (*model.AccuracyReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.outcome, p.quality, r.home_goals, r.away_goals
		 FROM predictions p JOIN results r ON r.fixture_id = p.fixture_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: accuracy query")
	}
	defer rows.Close()

	report := &model.AccuracyReport{ByQuality: map[model.Quality]model.AccuracyBucket{}}
	for rows.Next() {
		var outcome, quality string
		var homeGoals, awayGoals int
		if err := rows.Scan(&outcome, &quality, &homeGoals, &awayGoals); err != nil {
			return nil, eris.Wrap(err, "sqlite: accuracy scan")
		}
		tally(report, model.Outcome(outcome), model.Quality(quality), homeGoals, awayGoals)
	}
	return report, eris.Wrap(rows.Err(), "sqlite: accuracy iterate")
}

