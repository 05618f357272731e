package config

// Source kinds form a closed set; adding a feed family means adding a kind
// here and an adapter in app/source.
const (
	KindArxiv   = "arxiv"
	KindJournal = "journal"
)

// Source represents one configured paper feed.
type Source struct {
	Name string // Derived from filename (without extension)

	Kind       string `yaml:"kind"`
	Title      string `yaml:"title"`       // Human-readable source name, e.g. "PRX Quantum"
	Symbol     string `yaml:"symbol"`      // Short form for notification subjects
	URL        string `yaml:"url"`
	Category   string `yaml:"category"`    // arXiv category, e.g. "hep-th"
	OpenAccess bool   `yaml:"open_access"` // Journal feeds only, carried through for display

	Settings   Settings   `yaml:"settings"`
	Keywords   Keywords   `yaml:"keywords"`
	Reputation Reputation `yaml:"reputation"`
}

type Settings struct {
	Enabled  bool `yaml:"enabled"`
	Timeout  int  `yaml:"timeout"`   // seconds
	MaxItems int  `yaml:"max_items"`
}

// Keywords holds the per-source include/exclude filter rules. Matching is
// case-folded substring; exclude always wins over include.
type Keywords struct {
	Enabled bool     `yaml:"enabled"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Reputation controls whether papers from this source go through the
// author-reputation gate. Unset defaults to true for arXiv sources and
// false for journals (journal acceptance is signal enough).
type Reputation struct {
	Enabled *bool `yaml:"enabled"`
}

// ReputationEnabled reports the resolved reputation setting. Defaults are
// applied by the loader, so a nil pointer only occurs on hand-built configs
// and means disabled.
func (s *Source) ReputationEnabled() bool {
	return s.Reputation.Enabled != nil && *s.Reputation.Enabled
}
