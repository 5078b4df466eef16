package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReliabilityWeight(t *testing.T) {
	table := NewReliabilityTable()

	tests := []struct {
		url  string
		want float64
	}{
		{"https://www.bbc.com/sport/football/12345", 0.95},
		{"https://www.espn.com/soccer/preview", 0.90},
		{"https://www.forebet.com/en/predictions", 0.85},
		{"https://www.betexplorer.com/soccer/", 0.82},
		{"https://www.predictz.com/predictions/", 0.80},
		{"https://footystats.org/matches", 0.78},
		{"https://www.soccervista.com/results.php", 0.75},
		{"https://random-tipster.blog/post", 0.70},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, table.Weight(tt.url), 1e-9, "url %s", tt.url)
	}
}

func TestLoadReliabilityTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliability.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: 0.5
domains:
  forebet: 0.9
  mytrustedsite: 0.88
`), 0o644))

	table, err := LoadReliabilityTable(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, table.Weight("https://www.forebet.com/x"), 1e-9)
	assert.InDelta(t, 0.88, table.Weight("https://mytrustedsite.io/preview"), 1e-9)
	// Built-in entries survive the merge.
	assert.InDelta(t, 0.95, table.Weight("https://www.bbc.com/sport"), 1e-9)
	// Overridden fallback.
	assert.InDelta(t, 0.5, table.Weight("https://unknown.example"), 1e-9)
}

func TestLoadReliabilityTable_InvalidWeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliability.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domains:\n  foo: 1.5\n"), 0o644))

	_, err := LoadReliabilityTable(path)
	assert.Error(t, err)
}

func TestLoadReliabilityTable_MissingFile(t *testing.T) {
	_, err := LoadReliabilityTable("/nonexistent/reliability.yaml")
	assert.Error(t, err)
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "forebet", SourceName("https://www.forebet.com/en/predictions"))
	assert.Equal(t, "bbc", SourceName("https://bbc.co.uk/sport"))
	assert.Equal(t, "web", SourceName(""))
}
