// Package narrative reconciles statistical and web signals through a
// generative backend. The enhancer is an optional source: any backend
// failure, quota error, or malformed response yields no signal instead of
// an error.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matchforge/matchcast/internal/model"
	"github.com/matchforge/matchcast/internal/resilience"
	"github.com/matchforge/matchcast/pkg/anthropic"
)

const (
	// DefaultModel is the generative backend model.
	DefaultModel = "claude-haiku-4-5-20251001"

	// DefaultReliability is the trust weight stamped on AI signals.
	DefaultReliability = 0.85

	defaultMaxTokens   = 800
	defaultTemperature = 0.3
)

// Enhancer asks the backend to reconcile the signals already collected for
// a fixture into one more opinion.
type Enhancer struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	reliability float64
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithModel overrides the backend model.
func WithModel(m string) Option {
	return func(e *Enhancer) { e.model = m }
}

// WithReliability overrides the trust weight on AI signals.
func WithReliability(r float64) Option {
	return func(e *Enhancer) { e.reliability = r }
}

// WithMaxTokens overrides the response budget.
func WithMaxTokens(n int64) Option {
	return func(e *Enhancer) { e.maxTokens = n }
}

// New creates an Enhancer.
func New(client anthropic.Client, opts ...Option) *Enhancer {
	e := &Enhancer{
		client:      client,
		model:       DefaultModel,
		maxTokens:   defaultMaxTokens,
		reliability: DefaultReliability,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// analysis is the JSON contract the backend is asked to produce.
type analysis struct {
	Prediction    string   `json:"prediction"`
	Confidence    float64  `json:"confidence"`
	Probabilities *triplet `json:"probabilities"`
	Reasoning     string   `json:"reasoning"`
}

type triplet struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// Enhance produces the AI signal for a fixture, or nil when the backend
// cannot contribute. It never returns an error.
func (e *Enhancer) Enhance(ctx context.Context, fixture model.Fixture, statistical model.SourceSignal, webSignals []model.SourceSignal) *model.SourceSignal {
	if e.client == nil {
		return nil
	}

	req := e.buildRequest(fixture, statistical, webSignals)
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "enhance")
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, req)
	})
	if err != nil {
		zap.L().Warn("narrative: backend call failed",
			zap.String("fixture", fixture.ID),
			zap.Error(err),
		)
		return nil
	}
	resp.Usage.LogUsage(e.model, "enhance")

	sig := e.parse(fixture, resp.Text())
	if sig == nil {
		zap.L().Warn("narrative: unusable backend response",
			zap.String("fixture", fixture.ID),
		)
	}
	return sig
}

func (e *Enhancer) buildRequest(fixture model.Fixture, statistical model.SourceSignal, webSignals []model.SourceSignal) anthropic.MessageRequest {
	var sources strings.Builder
	fmt.Fprintf(&sources, "- %s (statistical): %s (%.0f%%) - %s\n",
		statistical.Name, statistical.Outcome, statistical.Confidence, statistical.Rationale)
	for _, s := range webSignals {
		fmt.Fprintf(&sources, "- %s (web): %s (%.0f%%) - %s\n",
			s.Name, s.Outcome, s.Confidence, s.Rationale)
	}

	var when string
	if !fixture.KickoffAt.IsZero() {
		when = fixture.KickoffAt.Format("2006-01-02")
	}

	prompt := fmt.Sprintf(`Analyze this match and reconcile the predictions below.

MATCH: %s vs %s
COMPETITION: %s
DATE: %s

COLLECTED PREDICTIONS:
%s
Consider home advantage, the consistency of the collected predictions, and
playing styles suggested by the team names. Do not invent statistics or
results that are not in the predictions above.

Respond with only this JSON:
{
  "prediction": "home_win" | "draw" | "away_win",
  "confidence": <0-100>,
  "probabilities": {"home_win": <pct>, "draw": <pct>, "away_win": <pct>},
  "reasoning": "<short explanation>"
}`,
		fixture.HomeTeam, fixture.AwayTeam, fixture.Competition, when, sources.String())

	temp := defaultTemperature
	return anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.SystemBlock{
			{Text: "You are a football analyst reconciling match predictions from multiple sources into one verdict."},
		},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}
}

// parse extracts the JSON object from the response text. Prose around the
// object is tolerated; anything that fails validation yields nil.
func (e *Enhancer) parse(fixture model.Fixture, text string) *model.SourceSignal {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil
	}

	var a analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return nil
	}

	outcome, ok := parseOutcome(a.Prediction)
	if !ok {
		return nil
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		return nil
	}

	sig := &model.SourceSignal{
		Type:        model.SourceAI,
		Name:        "narrative",
		Outcome:     outcome,
		Confidence:  a.Confidence,
		Reliability: e.reliability,
		Rationale:   strings.TrimSpace(a.Reasoning),
	}

	if p := a.Probabilities; p != nil {
		sum := p.HomeWin + p.Draw + p.AwayWin
		if sum > 90 && sum < 110 {
			sig.Probabilities = &model.Probabilities{
				HomeWin: p.HomeWin,
				Draw:    p.Draw,
				AwayWin: p.AwayWin,
			}
		}
	}

	return sig
}

func parseOutcome(s string) (model.Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home_win", "home win", "home":
		return model.OutcomeHomeWin, true
	case "away_win", "away win", "away":
		return model.OutcomeAwayWin, true
	case "draw", "tie":
		return model.OutcomeDraw, true
	default:
		return "", false
	}
}
