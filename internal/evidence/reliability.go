package evidence

import (
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultReliability is the trust weight for domains not in the table.
const DefaultReliability = 0.70

// defaultDomainWeights maps publisher domains to trust weights. Mainstream
// sports outlets rank above tipster sites.
var defaultDomainWeights = map[string]float64{
	"bbc":         0.95,
	"espn":        0.90,
	"skysports":   0.90,
	"forebet":     0.85,
	"betexplorer": 0.82,
	"predictz":    0.80,
	"goal":        0.80,
	"footystats":  0.78,
	"soccervista": 0.75,
}

// ReliabilityTable resolves a per-domain trust weight for web signals.
type ReliabilityTable struct {
	weights  map[string]float64
	fallback float64
}

// NewReliabilityTable returns the built-in table.
func NewReliabilityTable() *ReliabilityTable {
	weights := make(map[string]float64, len(defaultDomainWeights))
	for k, v := range defaultDomainWeights {
		weights[k] = v
	}
	return &ReliabilityTable{weights: weights, fallback: DefaultReliability}
}

// reliabilityFile is the yaml shape for overrides.
type reliabilityFile struct {
	Default float64            `yaml:"default"`
	Domains map[string]float64 `yaml:"domains"`
}

// LoadReliabilityTable reads a yaml override file and merges it over the
// built-in weights. Domains map substrings to weights in (0,1].
func LoadReliabilityTable(path string) (*ReliabilityTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evidence: read reliability file %s", path)
	}

	var f reliabilityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "evidence: parse reliability file")
	}

	t := NewReliabilityTable()
	if f.Default > 0 {
		t.fallback = f.Default
	}
	for domain, w := range f.Domains {
		if w <= 0 || w > 1 {
			return nil, eris.Errorf("evidence: reliability for %q must be in (0,1], got %v", domain, w)
		}
		t.weights[strings.ToLower(domain)] = w
	}
	return t, nil
}

// Weight returns the trust weight for a result URL.
func (t *ReliabilityTable) Weight(rawURL string) float64 {
	host := hostOf(rawURL)
	for domain, w := range t.weights {
		if strings.Contains(host, domain) {
			return w
		}
	}
	return t.fallback
}

// SourceName derives a readable source name from a result URL.
func SourceName(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return "web"
	}
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Host)
}
