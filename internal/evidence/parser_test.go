package evidence

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchforge/matchcast/internal/model"
)

var parserFixture = model.Fixture{ID: "f1", HomeTeam: "Arsenal", AwayTeam: "Chelsea"}

func TestParse_HomeFavored(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Arsenal vs Chelsea prediction",
		"Arsenal to win this London derby. Arsenal have dominated at home.",
		"https://www.forebet.com/en/arsenal-chelsea")

	require.NotNil(t, sig)
	assert.Equal(t, model.OutcomeHomeWin, sig.Outcome)
	assert.Equal(t, model.SourceWeb, sig.Type)
	assert.Equal(t, "forebet", sig.Name)
	assert.GreaterOrEqual(t, sig.Confidence, 60.0)
	assert.LessOrEqual(t, sig.Confidence, 90.0)
}

func TestParse_AwayFavored(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Chelsea favored at the Emirates",
		"Chelsea will win according to our model. Chelsea have the stronger squad.",
		"https://www.predictz.com/predictions/")

	require.NotNil(t, sig)
	assert.Equal(t, model.OutcomeAwayWin, sig.Outcome)
}

func TestParse_Draw(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Arsenal vs Chelsea preview",
		"Two evenly matched sides; a draw looks the most likely result.",
		"https://example.com")

	require.NotNil(t, sig)
	assert.Equal(t, model.OutcomeDraw, sig.Outcome)
}

func TestParse_UnrelatedResult(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Liverpool vs Everton prediction",
		"Liverpool to win the Merseyside derby.",
		"https://example.com")

	assert.Nil(t, sig)
}

func TestParse_NoPredictionKeywords(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Arsenal announce new shirt sponsor",
		"The club confirmed a record commercial deal today.",
		"https://example.com")

	assert.Nil(t, sig)
}

func TestParse_PercentInText(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Arsenal vs Chelsea tips",
		"Arsenal to win with 72% probability.",
		"https://www.footystats.org/match")

	require.NotNil(t, sig)
	// Quoted percentage becomes the base, plus one keyword hit.
	assert.InDelta(t, 82.0, sig.Confidence, 1e-9)
}

func TestParse_ConfidenceCappedAt90(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"Arsenal vs Chelsea: Arsenal to win",
		"Arsenal to win. Arsenal victory expected, they will beat Chelsea comfortably. 85% chance. Arsenal favored by every model. Arsenal mentioned again.",
		"https://example.com")

	require.NotNil(t, sig)
	assert.LessOrEqual(t, sig.Confidence, 90.0)
}

func TestParse_RationaleTruncatedOnRuneBoundary(t *testing.T) {
	p := NewKeywordParser()
	// 15 ASCII bytes then two-byte runes, so the 80-byte cut lands mid-rune.
	title := "Arsenal to win " + strings.Repeat("é", 40)
	sig := p.Parse(parserFixture, title,
		"Arsenal favored by the pundits.",
		"https://example.com")

	require.NotNil(t, sig)
	assert.True(t, utf8.ValidString(sig.Rationale))
	assert.LessOrEqual(t, len(sig.Rationale), 80)
}

func TestParse_CaseFolded(t *testing.T) {
	p := NewKeywordParser()
	sig := p.Parse(parserFixture,
		"ARSENAL VS CHELSEA",
		"ARSENAL TO WIN comfortably. ARSENAL look unstoppable.",
		"https://example.com")

	require.NotNil(t, sig)
	assert.Equal(t, model.OutcomeHomeWin, sig.Outcome)
}
