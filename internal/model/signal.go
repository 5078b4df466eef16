package model

// SourceType classifies where a signal came from. The fusion weights are
// keyed on this, not on the individual source name.
type SourceType string

const (
	SourceStatistical SourceType = "statistical"
	SourceWeb         SourceType = "web"
	SourceAI          SourceType = "ai"
)

// Outcome is a full-time match result from the home side's perspective.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"
)

// Probabilities is a full-time outcome distribution in percent.
type Probabilities struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// Sum returns the total mass, normally 100 after normalization.
func (p Probabilities) Sum() float64 {
	return p.HomeWin + p.Draw + p.AwayWin
}

// Top returns the most likely outcome and its probability. Ties resolve
// home, then draw, then away.
func (p Probabilities) Top() (Outcome, float64) {
	top, best := OutcomeHomeWin, p.HomeWin
	if p.Draw > best {
		top, best = OutcomeDraw, p.Draw
	}
	if p.AwayWin > best {
		top, best = OutcomeAwayWin, p.AwayWin
	}
	return top, best
}

// Of returns the probability for a single outcome.
func (p Probabilities) Of(o Outcome) float64 {
	switch o {
	case OutcomeHomeWin:
		return p.HomeWin
	case OutcomeDraw:
		return p.Draw
	default:
		return p.AwayWin
	}
}

// SourceSignal is one source's opinion about a fixture. Confidence is 0-100,
// Reliability is a 0-1 trust weight owned by the producing source.
type SourceSignal struct {
	Type          SourceType     `json:"type"`
	Name          string         `json:"name"`
	Outcome       Outcome        `json:"outcome"`
	Confidence    float64        `json:"confidence"`
	Reliability   float64        `json:"reliability"`
	Rationale     string         `json:"rationale,omitempty"`
	Probabilities *Probabilities `json:"probabilities,omitempty"`
}

// Weight is the signal's contribution before the source-type multiplier.
func (s SourceSignal) Weight() float64 {
	return s.Confidence * s.Reliability
}

// HalfTimeScenarios carries the collapse probabilities in percent: the
// chance each side leads at half-time but still loses the match.
type HalfTimeScenarios struct {
	HomeCollapse float64 `json:"home_leads_loses"`
	AwayCollapse float64 `json:"away_leads_loses"`
}
