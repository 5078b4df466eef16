// Package engine coordinates the prediction sources and fuses their signals
// into a single Prediction. The statistical estimator always contributes;
// web evidence and the narrative enhancer are optional and run under
// independent timeouts. The engine returns an error only when the caller
// breaks the contract (invalid fixture or mode) - degraded sources degrade
// the prediction, never fail it.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matchforge/matchcast/internal/model"
	"github.com/matchforge/matchcast/internal/statistical"
)

const (
	// DefaultEvidenceTimeout bounds the web evidence extraction.
	DefaultEvidenceTimeout = 5 * time.Second

	// DefaultNarrativeTimeout bounds the narrative enhancement.
	DefaultNarrativeTimeout = 8 * time.Second

	// collectGrace covers channel hand-off latency when a source runs all
	// the way to its deadline.
	collectGrace = 100 * time.Millisecond

	// Confidence below this scales the half-time scenarios down.
	halfTimeScaleThreshold = 50.0
	halfTimeScaleFloor     = 0.4
)

// EvidenceSource collects web signals for a fixture under a context budget.
type EvidenceSource interface {
	Extract(ctx context.Context, fixture model.Fixture) []model.SourceSignal
}

// NarrativeSource reconciles collected signals into one more opinion, or
// nil when it cannot contribute.
type NarrativeSource interface {
	Enhance(ctx context.Context, fixture model.Fixture, statistical model.SourceSignal, webSignals []model.SourceSignal) *model.SourceSignal
}

// Engine is the fusion coordinator.
type Engine struct {
	estimator *statistical.Estimator
	evidence  EvidenceSource
	narrative NarrativeSource

	evidenceTimeout  time.Duration
	narrativeTimeout time.Duration
	typeWeights      map[model.SourceType]float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvidence attaches the web evidence source.
func WithEvidence(src EvidenceSource) Option {
	return func(e *Engine) { e.evidence = src }
}

// WithNarrative attaches the narrative source.
func WithNarrative(src NarrativeSource) Option {
	return func(e *Engine) { e.narrative = src }
}

// WithEvidenceTimeout overrides the evidence budget.
func WithEvidenceTimeout(d time.Duration) Option {
	return func(e *Engine) { e.evidenceTimeout = d }
}

// WithNarrativeTimeout overrides the narrative budget.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.narrativeTimeout = d }
}

// New creates an Engine around the statistical estimator.
func New(estimator *statistical.Estimator, opts ...Option) *Engine {
	e := &Engine{
		estimator:        estimator,
		evidenceTimeout:  DefaultEvidenceTimeout,
		narrativeTimeout: DefaultNarrativeTimeout,
		typeWeights:      defaultTypeWeights,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict produces a prediction for one fixture. Strength pointers may be
// nil; the estimator substitutes league-average defaults. The only error
// paths are an invalid fixture or mode.
func (e *Engine) Predict(ctx context.Context, fixture model.Fixture, home, away *model.TeamStrength, mode model.Mode) (*model.Prediction, error) {
	if err := fixture.Validate(); err != nil {
		return nil, eris.Wrap(err, "engine: invalid fixture")
	}
	if mode != model.ModeFast && mode != model.ModeFull {
		return nil, eris.Errorf("engine: unknown mode %q", mode)
	}

	est := e.estimator.Estimate(fixture, home, away)
	signals := []model.SourceSignal{est.Signal}

	if mode == model.ModeFull {
		signals = append(signals, e.collectOptional(ctx, fixture, est.Signal)...)
	}

	f := e.fuse(signals, est.Probabilities)

	prediction := &model.Prediction{
		FixtureID:     fixture.ID,
		HomeTeam:      fixture.HomeTeam,
		AwayTeam:      fixture.AwayTeam,
		Outcome:       f.Outcome,
		Probabilities: f.Probabilities,
		Confidence:    round1(f.Confidence),
		HalfTime:      scaleHalfTime(est.HalfTime, f.Confidence),
		Reasoning:     buildReasoning(signals, f, est),
		SourcesUsed:   sourceNames(signals),
		Method:        methodLabel(signals),
		Quality:       qualityLabel(signals, f),
		CreatedAt:     time.Now().UTC(),
	}

	zap.L().Info("prediction complete",
		zap.String("fixture", fixture.ID),
		zap.String("home", fixture.HomeTeam),
		zap.String("away", fixture.AwayTeam),
		zap.String("outcome", string(f.Outcome)),
		zap.Float64("confidence", prediction.Confidence),
		zap.Int("sources", len(signals)),
		zap.String("quality", string(prediction.Quality)),
	)
	return prediction, nil
}

// collectOptional runs the optional sources concurrently. Both budgets start
// at once: the narrative may consume web signals that land before its own
// deadline, but waiting for them spends its budget, so the overall wait is
// bounded by the larger of the two timeouts, never their sum. Anything still
// running when its budget expires is discarded.
func (e *Engine) collectOptional(ctx context.Context, fixture model.Fixture, statSignal model.SourceSignal) []model.SourceSignal {
	if e.evidence == nil && e.narrative == nil {
		return nil
	}

	evCh := make(chan []model.SourceSignal, 1)
	evForNarrative := make(chan []model.SourceSignal, 1)
	if e.evidence != nil {
		go func() {
			ectx, cancel := context.WithTimeout(ctx, e.evidenceTimeout)
			defer cancel()
			web := e.evidence.Extract(ectx, fixture)
			evCh <- web
			evForNarrative <- web
		}()
	} else {
		evCh <- nil
		evForNarrative <- nil
	}

	narCh := make(chan *model.SourceSignal, 1)
	if e.narrative != nil {
		go func() {
			nctx, cancel := context.WithTimeout(ctx, e.narrativeTimeout)
			defer cancel()
			var web []model.SourceSignal
			select {
			case web = <-evForNarrative:
			case <-nctx.Done():
				// Evidence never landed inside the narrative budget.
				narCh <- nil
				return
			}
			narCh <- e.narrative.Enhance(nctx, fixture, statSignal, web)
		}()
	} else {
		narCh <- nil
	}

	maxBudget := e.evidenceTimeout
	if e.narrativeTimeout > maxBudget {
		maxBudget = e.narrativeTimeout
	}
	deadline := time.NewTimer(maxBudget + collectGrace)
	defer deadline.Stop()

	var out []model.SourceSignal
	var evDone, narDone bool
	for !evDone || !narDone {
		select {
		case web := <-evCh:
			out = append(out, web...)
			evDone = true
			evCh = nil
		case ai := <-narCh:
			if ai != nil {
				out = append(out, *ai)
			}
			narDone = true
			narCh = nil
		case <-deadline.C:
			zap.L().Warn("optional sources discarded at deadline",
				zap.String("fixture", fixture.ID),
				zap.Bool("evidence_done", evDone),
				zap.Bool("narrative_done", narDone),
			)
			return out
		case <-ctx.Done():
			return out
		}
	}
	return out
}

// BatchItem pairs a fixture with its strengths for batch prediction.
type BatchItem struct {
	Fixture model.Fixture
	Home    *model.TeamStrength
	Away    *model.TeamStrength
}

// BatchResult is the per-fixture outcome of a batch run.
type BatchResult struct {
	Fixture    model.Fixture
	Prediction *model.Prediction
	Err        error
}

// PredictBatch predicts a set of fixtures concurrently. Fixtures fail
// independently; one invalid fixture does not stop the rest.
func (e *Engine) PredictBatch(ctx context.Context, items []BatchItem, mode model.Mode, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			pred, err := e.Predict(gctx, item.Fixture, item.Home, item.Away, mode)
			results[i] = BatchResult{Fixture: item.Fixture, Prediction: pred, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// scaleHalfTime shrinks the collapse scenarios when the fused confidence is
// weak; a shaky full-time call should not carry confident turnaround odds.
func scaleHalfTime(ht model.HalfTimeScenarios, confidence float64) model.HalfTimeScenarios {
	if confidence >= halfTimeScaleThreshold {
		return model.HalfTimeScenarios{
			HomeCollapse: round1(ht.HomeCollapse),
			AwayCollapse: round1(ht.AwayCollapse),
		}
	}
	scale := math.Max(halfTimeScaleFloor, confidence/halfTimeScaleThreshold)
	return model.HalfTimeScenarios{
		HomeCollapse: round1(ht.HomeCollapse * scale),
		AwayCollapse: round1(ht.AwayCollapse * scale),
	}
}

func methodLabel(signals []model.SourceSignal) string {
	if len(signals) > 1 {
		return model.MethodFusion
	}
	return model.MethodStatisticalOnly
}

// qualityLabel grades corroboration: low with the statistical signal alone,
// high when at least two source types contributed and the winning outcome
// holds a clear majority of the vote, medium in between.
func qualityLabel(signals []model.SourceSignal, f fusion) model.Quality {
	types := map[model.SourceType]bool{}
	for _, s := range signals {
		types[s.Type] = true
	}
	switch {
	case len(types) <= 1:
		return model.QualityLow
	case f.TopShare >= 0.55:
		return model.QualityHigh
	default:
		return model.QualityMedium
	}
}

func sourceNames(signals []model.SourceSignal) []string {
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.Name)
	}
	return names
}

func buildReasoning(signals []model.SourceSignal, f fusion, est statistical.Estimate) string {
	if len(signals) == 1 {
		return est.Signal.Rationale
	}

	agreeing := 0
	for _, s := range signals {
		if s.Outcome == f.Outcome {
			agreeing++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d sources back %s", agreeing, len(signals), outcomeText(f.Outcome))
	if f.AgreeingTypes >= 2 {
		b.WriteString(" across independent source types")
	}
	fmt.Fprintf(&b, "; statistical view: %s", est.Signal.Rationale)
	return b.String()
}

func outcomeText(o model.Outcome) string {
	switch o {
	case model.OutcomeHomeWin:
		return "a home win"
	case model.OutcomeAwayWin:
		return "an away win"
	default:
		return "a draw"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
