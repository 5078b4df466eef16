package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchforge/matchcast/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "matchcast.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func samplePrediction(fixtureID string) *model.Prediction {
	return &model.Prediction{
		FixtureID:     fixtureID,
		HomeTeam:      "Arsenal",
		AwayTeam:      "Wrexham",
		Outcome:       model.OutcomeHomeWin,
		Probabilities: model.Probabilities{HomeWin: 75, Draw: 10, AwayWin: 15},
		Confidence:    72.5,
		HalfTime:      model.HalfTimeScenarios{HomeCollapse: 3.5, AwayCollapse: 5.1},
		Reasoning:     "Arsenal in significantly better form",
		SourcesUsed:   []string{"strength-model", "forebet", "bbc"},
		Method:        model.MethodFusion,
		Quality:       model.QualityHigh,
	}
}

func TestSQLiteStore_SaveAndGetRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	p := samplePrediction("fix-1")
	require.NoError(t, s.SavePrediction(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.GetPrediction(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.FixtureID, got.FixtureID)
	assert.Equal(t, p.Outcome, got.Outcome)
	assert.Equal(t, p.Probabilities, got.Probabilities)
	assert.Equal(t, p.Confidence, got.Confidence)
	assert.Equal(t, p.HalfTime, got.HalfTime)
	assert.Equal(t, p.SourcesUsed, got.SourcesUsed)
	assert.Equal(t, p.Method, got.Method)
	assert.Equal(t, p.Quality, got.Quality)
}

func TestSQLiteStore_GetPrediction_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetPrediction(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_SaveBatchStampsBatchID(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	preds := []*model.Prediction{samplePrediction("fix-1"), samplePrediction("fix-2")}
	require.NoError(t, s.SaveBatch(ctx, "batch-7", preds))

	for _, p := range preds {
		assert.Equal(t, "batch-7", p.BatchID)
	}

	listed, err := s.ListPredictions(ctx, PredictionFilter{BatchID: "batch-7"})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestSQLiteStore_ListPredictions_QualityFilterAndLimit(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for i, quality := range []model.Quality{model.QualityHigh, model.QualityHigh, model.QualityLow} {
		p := samplePrediction("fix-" + string(rune('a'+i)))
		p.Quality = quality
		p.CreatedAt = time.Date(2026, 8, 1, 12, i, 0, 0, time.UTC)
		require.NoError(t, s.SavePrediction(ctx, p))
	}

	high, err := s.ListPredictions(ctx, PredictionFilter{Quality: model.QualityHigh})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	limited, err := s.ListPredictions(ctx, PredictionFilter{Quality: model.QualityHigh, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	// Newest first.
	assert.Equal(t, "fix-b", limited[0].FixtureID)
}

func TestSQLiteStore_RecordResult_Upsert(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordResult(ctx, model.MatchResult{FixtureID: "fix-1", HomeGoals: 1, AwayGoals: 1}))
	// Correcting the score replaces the earlier row.
	require.NoError(t, s.RecordResult(ctx, model.MatchResult{FixtureID: "fix-1", HomeGoals: 2, AwayGoals: 1}))

	p := samplePrediction("fix-1")
	require.NoError(t, s.SavePrediction(ctx, p))

	report, err := s.Accuracy(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AccuracyBucket{Total: 1, Correct: 1}, report.Overall)
}

func TestSQLiteStore_AccuracyByQuality(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	cases := []struct {
		fixtureID string
		outcome   model.Outcome
		quality   model.Quality
		home      int
		away      int
	}{
		{"fix-1", model.OutcomeHomeWin, model.QualityHigh, 2, 0},   // correct
		{"fix-2", model.OutcomeHomeWin, model.QualityHigh, 0, 0},   // wrong
		{"fix-3", model.OutcomeAwayWin, model.QualityMedium, 0, 2}, // correct
		{"fix-4", model.OutcomeDraw, model.QualityLow, 1, 0},       // wrong
	}
	for _, c := range cases {
		p := samplePrediction(c.fixtureID)
		p.Outcome = c.outcome
		p.Quality = c.quality
		require.NoError(t, s.SavePrediction(ctx, p))
		require.NoError(t, s.RecordResult(ctx, model.MatchResult{
			FixtureID: c.fixtureID, HomeGoals: c.home, AwayGoals: c.away,
		}))
	}

	report, err := s.Accuracy(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AccuracyBucket{Total: 4, Correct: 2}, report.Overall)
	assert.Equal(t, model.AccuracyBucket{Total: 2, Correct: 1}, report.ByQuality[model.QualityHigh])
	assert.Equal(t, model.AccuracyBucket{Total: 1, Correct: 1}, report.ByQuality[model.QualityMedium])
	assert.Equal(t, model.AccuracyBucket{Total: 1, Correct: 0}, report.ByQuality[model.QualityLow])
	assert.InDelta(t, 0.5, report.Overall.Rate(), 1e-9)
}

func TestSQLiteStore_PredictionWithoutResultNotScored(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePrediction(ctx, samplePrediction("fix-unscored")))

	report, err := s.Accuracy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Overall.Total)
}
