package model

import "time"

// MatchResult is the recorded final score for a fixture.
type MatchResult struct {
	FixtureID  string    `json:"fixture_id"`
	HomeGoals  int       `json:"home_goals"`
	AwayGoals  int       `json:"away_goals"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Outcome derives the full-time outcome from the score.
func (r MatchResult) Outcome() Outcome {
	switch {
	case r.HomeGoals > r.AwayGoals:
		return OutcomeHomeWin
	case r.HomeGoals < r.AwayGoals:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// AccuracyBucket aggregates hit rate for one slice of predictions.
type AccuracyBucket struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Rate returns the hit rate in [0,1], or 0 when the bucket is empty.
func (b AccuracyBucket) Rate() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Correct) / float64(b.Total)
}

// AccuracyReport summarizes resolved predictions overall and per quality tier.
type AccuracyReport struct {
	Overall   AccuracyBucket             `json:"overall"`
	ByQuality map[Quality]AccuracyBucket `json:"by_quality"`
}
