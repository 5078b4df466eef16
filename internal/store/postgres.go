package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/matchforge/matchcast/internal/model"
	"github.com/matchforge/matchcast/internal/resilience"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock implements it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	// The database may still be coming up; give it a few seconds.
	pingCfg := resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		ShouldRetry:    func(error) bool { return true },
		OnRetry:        resilience.RetryLogger("postgres", "ping"),
	}
	if err := resilience.Do(ctx, pingCfg, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used in tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS predictions (
	id            TEXT PRIMARY KEY,
	fixture_id    TEXT NOT NULL,
	batch_id      TEXT,
	home_team     TEXT NOT NULL,
	away_team     TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	probabilities JSONB NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	half_time     JSONB NOT NULL,
	reasoning     TEXT,
	sources       JSONB NOT NULL,
	method        TEXT NOT NULL,
	quality       TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
	fixture_id  TEXT PRIMARY KEY,
	home_goals  INTEGER NOT NULL,
	away_goals  INTEGER NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_predictions_fixture ON predictions(fixture_id);
CREATE INDEX IF NOT EXISTS idx_predictions_batch ON predictions(batch_id);
CREATE INDEX IF NOT EXISTS idx_predictions_quality ON predictions(quality);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const insertPrediction = `INSERT INTO predictions
 (id, fixture_id, batch_id, home_team, away_team, outcome, probabilities, confidence, half_time, reasoning, sources, method, quality, created_at)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (s *PostgresStore) SavePrediction(ctx context.Context, p *model.Prediction) error {
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

	_, err = s.pool.Exec(ctx, insertPrediction,
		p.ID, p.FixtureID, nullable(p.BatchID), p.HomeTeam, p.AwayTeam, string(p.Outcome),
		probsJSON, p.Confidence, halfJSON, p.Reasoning, sourcesJSON, p.Method, string(p.Quality), p.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert prediction")
}

func (s *PostgresStore) SaveBatch(ctx context.Context, batchID string, preds []*model.Prediction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin batch")
	}
	defer tx.Rollback(ctx)

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
		_, err = tx.Exec(ctx, insertPrediction,
			p.ID, p.FixtureID, batchID, p.HomeTeam, p.AwayTeam, string(p.Outcome),
			probsJSON, p.Confidence, halfJSON, p.Reasoning, sourcesJSON, p.Method, string(p.Quality), p.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert batch prediction %s", p.FixtureID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit batch")
}

func (s *PostgresStore) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	row := s.pool.QueryRow(ctx, selectPrediction+` WHERE id = $1`, id)
	return scanPrediction(row)
}

func (s *PostgresStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.Prediction, error) {
	query := selectPrediction + ` WHERE 1=1`
	var args []any

	if filter.BatchID != "" {
		args = append(args, filter.BatchID)
		query += ` AND batch_id = $` + strconv.Itoa(len(args))
	}
	if filter.Quality != "" {
		args = append(args, string(filter.Quality))
		query += ` AND quality = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list predictions")
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
	return preds, eris.Wrap(rows.Err(), "postgres: list predictions iterate")
}

func (s *PostgresStore) RecordResult(ctx context.Context, r model.MatchResult) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (fixture_id, home_goals, away_goals, recorded_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (fixture_id) DO UPDATE SET home_goals = EXCLUDED.home_goals, away_goals = EXCLUDED.away_goals, recorded_at = EXCLUDED.recorded_at`,
		r.FixtureID, r.HomeGoals, r.AwayGoals, recordedAt,
	)
	return eris.Wrap(err, "postgres: record result")
}

func (s *PostgresStore) Accuracy(ctx context.Context) (*model.AccuracyReport, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.outcome, p.quality, r.home_goals, r.away_goals
		 FROM predictions p JOIN results r ON r.fixture_id = p.fixture_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: accuracy query")
	}
	defer rows.Close()

	report := &model.AccuracyReport{ByQuality: map[model.Quality]model.AccuracyBucket{}}
	for rows.Next() {
		var outcome, quality string
		var homeGoals, awayGoals int
		if err := rows.Scan(&outcome, &quality, &homeGoals, &awayGoals); err != nil {
			return nil, eris.Wrap(err, "postgres: accuracy scan")
		}
		tally(report, model.Outcome(outcome), model.Quality(quality), homeGoals, awayGoals)
	}
	return report, eris.Wrap(rows.Err(), "postgres: accuracy iterate")
}
