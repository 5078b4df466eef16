package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/matchforge/matchcast/internal/model"
)

// Shared row plumbing for both store backends.

const selectPrediction = `SELECT id, fixture_id, batch_id, home_team, away_team, outcome, probabilities, confidence, half_time, reasoning, sources, method, quality, created_at FROM predictions`

func marshalPredictionFields(p *model.Prediction) (probs, half, sources string, err error) {
	pj, err := json.Marshal(p.Probabilities)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal probabilities")
	}
	hj, err := json.Marshal(p.HalfTime)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal half time")
	}
	sj, err := json.Marshal(p.SourcesUsed)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal sources")
	}
	return string(pj), string(hj), string(sj), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPrediction(row scannable) (*model.Prediction, error) {
	var p model.Prediction
	var batchID sql.NullString
	var outcome, quality, probsJSON, halfJSON, sourcesJSON string

	err := row.Scan(&p.ID, &p.FixtureID, &batchID, &p.HomeTeam, &p.AwayTeam, &outcome,
		&probsJSON, &p.Confidence, &halfJSON, &p.Reasoning, &sourcesJSON, &p.Method, &quality, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("store: prediction not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan prediction")
	}

	p.BatchID = batchID.String
	p.Outcome = model.Outcome(outcome)
	p.Quality = model.Quality(quality)
	if err := json.Unmarshal([]byte(probsJSON), &p.Probabilities); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal probabilities")
	}
	if err := json.Unmarshal([]byte(halfJSON), &p.HalfTime); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal half time")
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &p.SourcesUsed); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal sources")
	}
	return &p, nil
}

func tally(report *model.AccuracyReport, predicted model.Outcome, quality model.Quality, homeGoals, awayGoals int) {
	actual := model.MatchResult{HomeGoals: homeGoals, AwayGoals: awayGoals}.Outcome()
	correct := predicted == actual

	report.Overall.Total++
	bucket := report.ByQuality[quality]
	bucket.Total++
	if correct {
		report.Overall.Correct++
		bucket.Correct++
	}
	report.ByQuality[quality] = bucket
}
