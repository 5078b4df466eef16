package engine

import (
	"math"
	"sort"

	"github.com/matchforge/matchcast/internal/model"
)

// Default per-source-type vote weights. Web consensus carries the most
// weight, the statistical model the least.
var defaultTypeWeights = map[model.SourceType]float64{
	model.SourceStatistical: 0.25,
	model.SourceWeb:         0.35,
	model.SourceAI:          0.30,
}

const (
	// confidenceCap bounds the fused confidence after the agreement boost.
	confidenceCap = 95.0

	// agreementBoostMax is added in full when every signal backs the top
	// outcome; partial agreement scales it down.
	agreementBoostMax = 10.0
)

// fusion is the combined verdict over all collected signals.
type fusion struct {
	Outcome       model.Outcome
	Probabilities model.Probabilities
	Confidence    float64
	TopShare      float64
	AgreeingTypes int
}

// fuse combines signals into one verdict. Each signal votes for its outcome
// with confidence x type weight x reliability; the vote distribution becomes
// the fused probabilities. Confidence is the reliability-weighted mean of
// the source confidences, damped by vote concentration so that split votes
// always land below an uncontested one, then boosted when several source
// types back the same outcome.
func (e *Engine) fuse(signals []model.SourceSignal, statProbs model.Probabilities) fusion {
	votes := map[model.Outcome]float64{}
	var weightSum, confSum float64

	for _, s := range signals {
		w := e.typeWeights[s.Type] * s.Reliability
		if w <= 0 {
			continue
		}
		votes[s.Outcome] += s.Confidence * w
		weightSum += w
		confSum += s.Confidence * w
	}

	total := votes[model.OutcomeHomeWin] + votes[model.OutcomeDraw] + votes[model.OutcomeAwayWin]
	if total <= 0 || weightSum <= 0 {
		// No weighted votes; fall back to the statistical distribution.
		outcome, top := statProbs.Top()
		return fusion{Outcome: outcome, Probabilities: statProbs, Confidence: top, TopShare: top / 100}
	}

	shares := [3]float64{
		votes[model.OutcomeHomeWin] / total,
		votes[model.OutcomeDraw] / total,
		votes[model.OutcomeAwayWin] / total,
	}

	outcome := e.topOutcome(votes, statProbs)
	probs := roundShares(shares)

	// Vote concentration is 1 when every vote backs one outcome and falls
	// toward 1/3 as the votes spread.
	concentration := shares[0]*shares[0] + shares[1]*shares[1] + shares[2]*shares[2]
	confidence := (confSum / weightSum) * concentration

	agreeTypes := map[model.SourceType]bool{}
	agreeing := 0
	for _, s := range signals {
		if s.Outcome == outcome {
			agreeTypes[s.Type] = true
			agreeing++
		}
	}
	if len(agreeTypes) >= 2 {
		confidence += agreementBoostMax * float64(agreeing) / float64(len(signals))
	}
	confidence = math.Min(confidence, confidenceCap)

	topShare := shares[outcomeIndex(outcome)]
	return fusion{
		Outcome:       outcome,
		Probabilities: probs,
		Confidence:    confidence,
		TopShare:      topShare,
		AgreeingTypes: len(agreeTypes),
	}
}

// topOutcome picks the outcome with the largest vote. An exact tie goes to
// the non-draw outcome the statistical model rated higher, and to the draw
// only when the tied outcomes are both non-draw and equally rated.
func (e *Engine) topOutcome(votes map[model.Outcome]float64, statProbs model.Probabilities) model.Outcome {
	type vote struct {
		outcome model.Outcome
		value   float64
	}
	ordered := []vote{
		{model.OutcomeHomeWin, votes[model.OutcomeHomeWin]},
		{model.OutcomeDraw, votes[model.OutcomeDraw]},
		{model.OutcomeAwayWin, votes[model.OutcomeAwayWin]},
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].value > ordered[j].value })

	if ordered[0].value > ordered[1].value {
		return ordered[0].outcome
	}

	// Exact tie between the top two.
	a, b := ordered[0].outcome, ordered[1].outcome
	switch {
	case a != model.OutcomeDraw && b != model.OutcomeDraw:
		if statProbs.Of(b) > statProbs.Of(a) {
			return b
		}
		if statProbs.Of(a) > statProbs.Of(b) {
			return a
		}
		return model.OutcomeDraw
	case a == model.OutcomeDraw:
		return b
	default:
		return a
	}
}

func outcomeIndex(o model.Outcome) int {
	switch o {
	case model.OutcomeHomeWin:
		return 0
	case model.OutcomeDraw:
		return 1
	default:
		return 2
	}
}

// roundShares converts vote shares into whole-percent probabilities that sum
// to exactly 100, assigning leftover points by largest remainder.
func roundShares(shares [3]float64) model.Probabilities {
	raw := [3]float64{shares[0] * 100, shares[1] * 100, shares[2] * 100}
	floors := [3]float64{math.Floor(raw[0]), math.Floor(raw[1]), math.Floor(raw[2])}

	remaining := 100 - int(floors[0]+floors[1]+floors[2])
	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool {
		return raw[order[i]]-floors[order[i]] > raw[order[j]]-floors[order[j]]
	})
	for i := 0; i < remaining && i < len(order); i++ {
		floors[order[i]]++
	}

	return model.Probabilities{HomeWin: floors[0], Draw: floors[1], AwayWin: floors[2]}
}
