package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchforge/matchcast/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS predictions`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePrediction(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO predictions`).
		WithArgs(pgxmock.AnyArg(), "fix-1", nil, "Arsenal", "Wrexham", "home_win",
			pgxmock.AnyArg(), 72.5, pgxmock.AnyArg(), "strong home form", pgxmock.AnyArg(),
			model.MethodFusion, "high", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p := &model.Prediction{
		FixtureID:   "fix-1",
		HomeTeam:    "Arsenal",
		AwayTeam:    "Wrexham",
		Outcome:     model.OutcomeHomeWin,
		Confidence:  72.5,
		Reasoning:   "strong home form",
		Method:      model.MethodFusion,
		Quality:     model.QualityHigh,
		SourcesUsed: []string{"strength-model", "forebet"},
	}
	require.NoError(t, s.SavePrediction(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBatch_Transactional(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO predictions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO predictions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	preds := []*model.Prediction{
		{FixtureID: "fix-1", HomeTeam: "Arsenal", AwayTeam: "Wrexham", Outcome: model.OutcomeHomeWin, Method: model.MethodStatisticalOnly, Quality: model.QualityLow},
		{FixtureID: "fix-2", HomeTeam: "Leeds", AwayTeam: "Hull", Outcome: model.OutcomeDraw, Method: model.MethodStatisticalOnly, Quality: model.QualityLow},
	}
	require.NoError(t, s.SaveBatch(context.Background(), "batch-7", preds))
	for _, p := range preds {
		assert.Equal(t, "batch-7", p.BatchID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPrediction_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, fixture_id, batch_id`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPrediction(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPredictions_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "fixture_id", "batch_id", "home_team", "away_team", "outcome",
		"probabilities", "confidence", "half_time", "reasoning", "sources", "method", "quality", "created_at",
	}).AddRow(
		"p1", "fix-1", "batch-7", "Arsenal", "Wrexham", "home_win",
		`{"home_win":75,"draw":10,"away_win":15}`, 72.5,
		`{"home_collapse":3.5,"away_collapse":5.1}`, "strong home form",
		`["strength-model","forebet"]`, model.MethodFusion, "high", time.Now().UTC(),
	)

	mock.ExpectQuery(`SELECT id, fixture_id, batch_id .* WHERE 1=1 AND batch_id = \$1 AND quality = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("batch-7", "high", 50).
		WillReturnRows(rows)

	preds, err := s.ListPredictions(context.Background(), PredictionFilter{
		BatchID: "batch-7",
		Quality: model.QualityHigh,
		Limit:   50,
	})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "p1", preds[0].ID)
	assert.Equal(t, model.OutcomeHomeWin, preds[0].Outcome)
	assert.Equal(t, 75.0, preds[0].Probabilities.HomeWin)
	assert.Equal(t, []string{"strength-model", "forebet"}, preds[0].SourcesUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPredictions_NumbersEveryPlaceholder(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE 1=1 AND batch_id = \$1 AND quality = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("batch-7", "high", 25, 100).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "fixture_id", "batch_id", "home_team", "away_team", "outcome",
			"probabilities", "confidence", "half_time", "reasoning", "sources", "method", "quality", "created_at",
		}))

	preds, err := s.ListPredictions(context.Background(), PredictionFilter{
		BatchID: "batch-7",
		Quality: model.QualityHigh,
		Limit:   25,
		Offset:  100,
	})
	require.NoError(t, err)
	assert.Empty(t, preds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordResult_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs("fix-1", 2, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordResult(context.Background(), model.MatchResult{
		FixtureID: "fix-1", HomeGoals: 2, AwayGoals: 0,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Accuracy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"outcome", "quality", "home_goals", "away_goals"}).
		AddRow("home_win", "high", 2, 0).  // correct
		AddRow("home_win", "high", 1, 1).  // wrong (draw)
		AddRow("away_win", "medium", 0, 3) // correct

	mock.ExpectQuery(`FROM predictions p JOIN results r`).WillReturnRows(rows)

	report, err := s.Accuracy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Overall.Total)
	assert.Equal(t, 2, report.Overall.Correct)
	assert.Equal(t, model.AccuracyBucket{Total: 2, Correct: 1}, report.ByQuality[model.QualityHigh])
	assert.Equal(t, model.AccuracyBucket{Total: 1, Correct: 1}, report.ByQuality[model.QualityMedium])
	assert.NoError(t, mock.ExpectationsWereMet())
}
