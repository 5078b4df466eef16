package model

import "time"

// Quality grades how much corroboration backs a prediction.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Prediction method labels.
const (
	MethodFusion          = "multi-source-fusion"
	MethodStatisticalOnly = "statistical-only"
)

// Prediction is the engine's final output for one fixture.
type Prediction struct {
	ID            string            `json:"id,omitempty"`
	FixtureID     string            `json:"fixture_id,omitempty"`
	HomeTeam      string            `json:"home_team"`
	AwayTeam      string            `json:"away_team"`
	Outcome       Outcome           `json:"outcome"`
	Probabilities Probabilities     `json:"probabilities"`
	Confidence    float64           `json:"confidence"`
	HalfTime      HalfTimeScenarios `json:"half_time"`
	Reasoning     string            `json:"reasoning"`
	SourcesUsed   []string          `json:"sources_used"`
	Method        string            `json:"prediction_method"`
	Quality       Quality           `json:"prediction_quality"`
	CreatedAt     time.Time         `json:"created_at,omitempty"`
	BatchID       string            `json:"batch_id,omitempty"`
}

// Correct reports whether the prediction matched an actual result.
func (p Prediction) Correct(r MatchResult) bool {
	return p.Outcome == r.Outcome()
}
