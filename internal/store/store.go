// Package store persists predictions and recorded results so batch runs can
// be reviewed and scored for accuracy later.
package store

import (
	"context"

	"github.com/matchforge/matchcast/internal/model"
)

// PredictionFilter specifies criteria for listing predictions.
type PredictionFilter struct {
	BatchID string        `json:"batch_id,omitempty"`
	Quality model.Quality `json:"quality,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for predictions and results.
type Store interface {
	// Predictions
	SavePrediction(ctx context.Context, p *model.Prediction) error
	SaveBatch(ctx context.Context, batchID string, preds []*model.Prediction) error
	GetPrediction(ctx context.Context, id string) (*model.Prediction, error)
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]model.Prediction, error)

	// Results and scoring
	RecordResult(ctx context.Context, r model.MatchResult) error
	Accuracy(ctx context.Context) (*model.AccuracyReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
