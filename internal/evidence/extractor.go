// Package evidence collects match predictions published on the web and
// turns them into weighted signals. Every failure inside the extractor is
// isolated: a bad result, a dead page, or an expired budget costs at most
// the signals not yet extracted, never an error.
package evidence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matchforge/matchcast/internal/model"
	"github.com/matchforge/matchcast/pkg/jina"
)

const (
	// DefaultResultCap bounds how many search results are examined.
	DefaultResultCap = 3

	// defaultMinSnippetLen is the snippet length below which the extractor
	// fetches the full page before parsing.
	defaultMinSnippetLen = 80

	// defaultFetchTimeout bounds a single page fetch inside the overall
	// extraction budget.
	defaultFetchTimeout = 4 * time.Second
)

// Extractor searches the web for predictions about a fixture.
type Extractor struct {
	search      jina.Client
	parser      SignalParser
	reliability *ReliabilityTable

	resultCap     int
	minSnippetLen int
	fetchTimeout  time.Duration
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithParser replaces the default keyword parser.
func WithParser(p SignalParser) ExtractorOption {
	return func(e *Extractor) { e.parser = p }
}

// WithReliabilityTable replaces the built-in domain weights.
func WithReliabilityTable(t *ReliabilityTable) ExtractorOption {
	return func(e *Extractor) { e.reliability = t }
}

// WithResultCap bounds how many search results are examined.
func WithResultCap(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.resultCap = n
		}
	}
}

// WithFetchTimeout bounds a single page fetch.
func WithFetchTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) { e.fetchTimeout = d }
}

// NewExtractor creates an Extractor backed by a Jina client.
func NewExtractor(search jina.Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		search:        search,
		parser:        NewKeywordParser(),
		reliability:   NewReliabilityTable(),
		resultCap:     DefaultResultCap,
		minSnippetLen: defaultMinSnippetLen,
		fetchTimeout:  defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract searches for predictions about the fixture and parses each result
// independently. The caller sets the overall budget through ctx; whatever
// has been extracted when the budget expires is what gets returned. Zero
// signals is a valid outcome, not an error.
func (e *Extractor) Extract(ctx context.Context, fixture model.Fixture) []model.SourceSignal {
	query := fmt.Sprintf("%s vs %s prediction preview", fixture.HomeTeam, fixture.AwayTeam)
	if !fixture.KickoffAt.IsZero() {
		query += " " + fixture.KickoffAt.Format("2006-01-02")
	}

	resp, err := e.search.Search(ctx, query, jina.WithCount(e.resultCap))
	if err != nil {
		zap.L().Warn("evidence: search failed",
			zap.String("fixture", fixture.ID),
			zap.Error(err),
		)
		return nil
	}

	results := resp.Data
	if len(results) > e.resultCap {
		results = results[:e.resultCap]
	}

	signals := make([]*model.SourceSignal, len(results))
	g, gctx := errgroup.WithContext(ctx)
	for i, res := range results {
		g.Go(func() error {
			signals[i] = e.extractOne(gctx, fixture, res)
			// Per-result failures never abort the group.
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.SourceSignal, 0, len(results))
	for _, s := range signals {
		if s != nil {
			out = append(out, *s)
		}
	}

	zap.L().Debug("evidence: extraction complete",
		zap.String("fixture", fixture.ID),
		zap.Int("results", len(results)),
		zap.Int("signals", len(out)),
	)
	return out
}

// extractOne parses a single search result, fetching the full page when the
// snippet is too thin to score.
func (e *Extractor) extractOne(ctx context.Context, fixture model.Fixture, res jina.SearchResult) *model.SourceSignal {
	snippet := res.Description
	if snippet == "" {
		snippet = res.Content
	}

	sig := e.parser.Parse(fixture, res.Title, snippet, res.URL)
	if sig == nil && len(snippet) < e.minSnippetLen && res.URL != "" {
		sig = e.parseFromPage(ctx, fixture, res)
	}
	if sig == nil {
		return nil
	}

	sig.Type = model.SourceWeb
	sig.Reliability = e.reliability.Weight(res.URL)
	if sig.Name == "" {
		sig.Name = SourceName(res.URL)
	}
	return sig
}

func (e *Extractor) parseFromPage(ctx context.Context, fixture model.Fixture, res jina.SearchResult) *model.SourceSignal {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	page, err := e.search.Read(fetchCtx, res.URL)
	if err != nil {
		zap.L().Debug("evidence: page fetch failed",
			zap.String("url", res.URL),
			zap.Error(err),
		)
		return nil
	}
	return e.parser.Parse(fixture, page.Data.Title, page.Data.Content, res.URL)
}
