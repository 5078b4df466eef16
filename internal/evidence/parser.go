package evidence

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/matchforge/matchcast/internal/model"
)

// SignalParser turns one search result into a signal, or nil when the text
// carries no usable prediction.
type SignalParser interface {
	Parse(fixture model.Fixture, title, snippet, url string) *model.SourceSignal
}

// keywordParser is the default heuristic: keyword and mention counting over
// the result title and snippet.
type keywordParser struct {
	folder cases.Caser
}

// NewKeywordParser returns the default parser.
func NewKeywordParser() SignalParser {
	return &keywordParser{folder: cases.Fold()}
}

var (
	percentRe = regexp.MustCompile(`(\d{1,3})%`)

	winWords  = []string{"to win", "will win", "favored", "favourites", "favorites", "victory", "beat", "defeat"}
	drawWords = []string{"draw", "stalemate", "share the points", "even match", "all square"}
)

// Parse scores the folded title+snippet for outcome keywords. Confidence
// starts at 60 (or a percentage quoted in the text, clamped to [35,85]) and
// gains 10 per supporting hit, capped at 90.
func (p *keywordParser) Parse(fixture model.Fixture, title, snippet, url string) *model.SourceSignal {
	text := p.folder.String(title + " " + snippet)
	home := p.folder.String(fixture.HomeTeam)
	away := p.folder.String(fixture.AwayTeam)

	homeMentions := strings.Count(text, home)
	awayMentions := strings.Count(text, away)
	if homeMentions == 0 && awayMentions == 0 {
		// Not about this fixture.
		return nil
	}

	homeHits := phraseHits(text, home, winWords)
	awayHits := phraseHits(text, away, winWords)
	drawHits := 0
	for _, w := range drawWords {
		if strings.Contains(text, w) {
			drawHits++
		}
	}

	// A generic win verb leans toward the side mentioned more often.
	if hasAny(text, winWords) {
		switch {
		case homeMentions > awayMentions:
			homeHits++
		case awayMentions > homeMentions:
			awayHits++
		}
	}

	var outcome model.Outcome
	var hits int
	switch {
	case homeHits > awayHits && homeHits > drawHits:
		outcome, hits = model.OutcomeHomeWin, homeHits
	case awayHits > homeHits && awayHits > drawHits:
		outcome, hits = model.OutcomeAwayWin, awayHits
	case drawHits > 0 && homeHits == awayHits:
		outcome, hits = model.OutcomeDraw, drawHits
	default:
		return nil
	}

	base := 60.0
	if m := percentRe.FindStringSubmatch(text); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			base = clamp(pct, 35, 85)
		}
	}
	confidence := clamp(base+10*float64(hits), 0, 90)

	rationale := truncate(title, 80)

	return &model.SourceSignal{
		Type:       model.SourceWeb,
		Name:       SourceName(url),
		Outcome:    outcome,
		Confidence: confidence,
		Rationale:  strings.TrimSpace(rationale),
	}
}

// phraseHits counts win phrases attached to the team, e.g. "arsenal to win".
func phraseHits(text, team string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(text, team+" "+w) {
			hits++
		}
	}
	return hits
}

func hasAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
