package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Mode selects how much work a prediction is allowed to do.
type Mode string

const (
	// ModeFast uses the statistical estimator only.
	ModeFast Mode = "fast"
	// ModeFull fans out to every configured source and fuses the results.
	ModeFull Mode = "full"
)

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFast:
		return ModeFast, nil
	case ModeFull:
		return ModeFull, nil
	default:
		return "", eris.Errorf("model: unknown mode %q (want fast or full)", s)
	}
}

// Fixture identifies a single upcoming match.
type Fixture struct {
	ID          string    `json:"id"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	Competition string    `json:"competition,omitempty"`
	KickoffAt   time.Time `json:"kickoff_at,omitempty"`
}

// Validate checks the caller-supplied fields. A fixture that fails here is a
// contract violation, not a degraded input.
func (f Fixture) Validate() error {
	if strings.TrimSpace(f.HomeTeam) == "" {
		return eris.New("model: fixture home team is required")
	}
	if strings.TrimSpace(f.AwayTeam) == "" {
		return eris.New("model: fixture away team is required")
	}
	if strings.EqualFold(strings.TrimSpace(f.HomeTeam), strings.TrimSpace(f.AwayTeam)) {
		return eris.New("model: fixture teams must differ")
	}
	return nil
}

// TeamStrength is the rating snapshot the statistical estimator consumes.
// Ratings are on a 0-100 scale.
type TeamStrength struct {
	Team         string  `json:"team"`
	Attack       float64 `json:"attack"`
	Defense      float64 `json:"defense"`
	GoalsPerGame float64 `json:"goals_per_game"`
	Matches      int     `json:"matches"`
}

// Rating is the single-number strength used for the differential.
func (t TeamStrength) Rating() float64 {
	return (t.Attack + t.Defense) / 2
}
