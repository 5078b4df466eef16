// Package statistical derives match-outcome probabilities from team strength
// ratings alone. It is pure and deterministic: the same fixture and ratings
// always produce the same signal, and estimation never fails.
package statistical

import (
	"fmt"
	"math"
	"strings"

	"github.com/matchforge/matchcast/internal/model"
)

const (
	// baseHomeAdvantage is the standard rating bump for playing at home.
	baseHomeAdvantage = 3.5

	// Defaults applied when a team has no strength record.
	defaultRating       = 50.0
	defaultGoalsPerGame = 1.4

	// defaultedConfidenceScale discounts confidence when one or both
	// strengths had to be defaulted.
	defaultedConfidenceScale = 0.75

	// DefaultConfidenceCeiling caps how certain the statistical source is
	// allowed to be. Ratings alone never justify near-certainty.
	DefaultConfidenceCeiling = 88.0
)

// Estimate is the statistical source's full output: the fused-engine signal
// plus the half-time scenarios that only this source produces.
type Estimate struct {
	Signal        model.SourceSignal
	Probabilities model.Probabilities
	HalfTime      model.HalfTimeScenarios
	StrengthDiff  float64
	Defaulted     bool
}

// Estimator turns strength differentials into outcome probabilities.
// The zero value is not usable; call New.
type Estimator struct {
	ceiling     float64
	reliability float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithConfidenceCeiling overrides the confidence cap.
func WithConfidenceCeiling(c float64) Option {
	return func(e *Estimator) { e.ceiling = c }
}

// WithReliability overrides the reliability weight stamped on signals.
func WithReliability(r float64) Option {
	return func(e *Estimator) { e.reliability = r }
}

// New creates an Estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{ceiling: DefaultConfidenceCeiling, reliability: 0.7}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate produces the statistical signal for a fixture. Nil strengths fall
// back to league-average defaults with discounted confidence.
func (e *Estimator) Estimate(fixture model.Fixture, home, away *model.TeamStrength) Estimate {
	homeRating, homeGPG, homeDefaulted := resolveStrength(home)
	awayRating, awayGPG, awayDefaulted := resolveStrength(away)
	defaulted := homeDefaulted || awayDefaulted

	advantage := homeAdvantage(homeRating)
	diff := (homeRating + advantage) - awayRating

	probs := tierProbabilities(diff)
	probs = applyGoalsNudge(probs, homeGPG, awayGPG)
	probs = normalize(probs)

	outcome, top := probs.Top()
	confidence := top
	if defaulted {
		confidence *= defaultedConfidenceScale
	}
	if confidence > e.ceiling {
		confidence = e.ceiling
	}

	return Estimate{
		Signal: model.SourceSignal{
			Type:          model.SourceStatistical,
			Name:          "strength-model",
			Outcome:       outcome,
			Confidence:    confidence,
			Reliability:   e.reliability,
			Rationale:     reasoning(fixture, diff, advantage, homeGPG, awayGPG, defaulted),
			Probabilities: &probs,
		},
		Probabilities: probs,
		HalfTime: model.HalfTimeScenarios{
			HomeCollapse: collapseProbability(homeRating, awayRating, false),
			AwayCollapse: collapseProbability(awayRating, homeRating, true),
		},
		StrengthDiff: diff,
		Defaulted:    defaulted,
	}
}

func resolveStrength(s *model.TeamStrength) (rating, gpg float64, defaulted bool) {
	if s == nil || s.Matches == 0 {
		return defaultRating, defaultGoalsPerGame, true
	}
	return s.Rating(), s.GoalsPerGame, false
}

func homeAdvantage(homeRating float64) float64 {
	adv := baseHomeAdvantage
	switch {
	case homeRating > 60:
		adv += 1.5
	case homeRating < 40:
		adv -= 0.5
	}
	return adv
}

// tierProbabilities maps a home-minus-away strength differential onto a
// banded outcome distribution. Bands are asymmetric around zero because the
// differential already includes home advantage.
func tierProbabilities(diff float64) model.Probabilities {
	switch {
	case diff > 20:
		return model.Probabilities{HomeWin: 85, Draw: 7, AwayWin: 8}
	case diff > 15:
		return model.Probabilities{HomeWin: 82, Draw: 8, AwayWin: 10}
	case diff > 10:
		return model.Probabilities{HomeWin: 75, Draw: 10, AwayWin: 15}
	case diff > 5:
		return model.Probabilities{HomeWin: 65, Draw: 15, AwayWin: 20}
	case diff > -5:
		return model.Probabilities{HomeWin: 45, Draw: 20, AwayWin: 35}
	case diff > -10:
		return model.Probabilities{HomeWin: 20, Draw: 15, AwayWin: 65}
	case diff > -15:
		return model.Probabilities{HomeWin: 10, Draw: 8, AwayWin: 82}
	default:
		return model.Probabilities{HomeWin: 8, Draw: 7, AwayWin: 85}
	}
}

// applyGoalsNudge shifts a few points toward the side that scores markedly
// more per game.
func applyGoalsNudge(p model.Probabilities, homeGPG, awayGPG float64) model.Probabilities {
	switch {
	case homeGPG > awayGPG+0.5:
		p.HomeWin += 5
		p.AwayWin -= 3
		p.Draw -= 2
	case awayGPG > homeGPG+0.5:
		p.AwayWin += 5
		p.HomeWin -= 3
		p.Draw -= 2
	}
	return p
}

func normalize(p model.Probabilities) model.Probabilities {
	total := p.Sum()
	if total <= 0 {
		return model.Probabilities{HomeWin: 100.0 / 3, Draw: 100.0 / 3, AwayWin: 100.0 / 3}
	}
	return model.Probabilities{
		HomeWin: p.HomeWin / total * 100,
		Draw:    p.Draw / total * 100,
		AwayWin: p.AwayWin / total * 100,
	}
}

// collapseProbability is the chance a side leads at half-time but loses.
// Moderate mismatches produce the most turnarounds; dominant sides rarely
// collapse, and away leads are slightly more fragile.
func collapseProbability(teamRating, opponentRating float64, away bool) float64 {
	prob := 4.0
	diff := math.Abs(teamRating - opponentRating)
	switch {
	case diff >= 5 && diff <= 15:
		prob += 2.0
	case diff > 20:
		prob -= 1.0
	}
	if away {
		prob += 0.8
	}
	return math.Max(1.5, math.Min(8.5, prob))
}

func reasoning(fixture model.Fixture, diff, advantage, homeGPG, awayGPG float64, defaulted bool) string {
	var parts []string

	switch {
	case diff > 15:
		parts = append(parts, fmt.Sprintf("%s has significantly better form", fixture.HomeTeam))
	case diff < -15:
		parts = append(parts, fmt.Sprintf("%s has significantly better form", fixture.AwayTeam))
	case diff > 8:
		parts = append(parts, fmt.Sprintf("%s has better recent form", fixture.HomeTeam))
	case diff < -8:
		parts = append(parts, fmt.Sprintf("%s has better recent form", fixture.AwayTeam))
	default:
		parts = append(parts, "both teams in similar form")
	}

	if advantage > 4 {
		parts = append(parts, "strong home advantage")
	} else if advantage > 2 {
		parts = append(parts, "home advantage")
	}

	if homeGPG > awayGPG+0.5 {
		parts = append(parts, fmt.Sprintf("%s scoring more goals", fixture.HomeTeam))
	} else if awayGPG > homeGPG+0.5 {
		parts = append(parts, fmt.Sprintf("%s scoring more goals", fixture.AwayTeam))
	}

	if defaulted {
		parts = append(parts, "limited strength data, league-average assumed")
	}

	return strings.Join(parts, "; ")
}
