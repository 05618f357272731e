package paper

import (
	"strings"
	"time"
)

// Metrics holds reputation numbers resolved from Semantic Scholar.
// A nil *Metrics on an Author means the author has not been resolved
// (or the lookup failed); callers must handle the absent case.
type Metrics struct {
	HIndex        int
	CitationCount int
	PaperCount    int
	ProfileURL    string
}

// Author is a paper author as given by the source. FirstName may be empty
// for single-token names.
type Author struct {
	FirstName string
	LastName  string
	FullName  string
	Metrics   *Metrics
}

// ParseAuthor splits a name string on the last space, so "Jean van Dam"
// becomes first "Jean van", last "Dam".
func ParseAuthor(name string) Author {
	name = strings.Join(strings.Fields(name), " ")
	if idx := strings.LastIndex(name, " "); idx >= 0 {
		return Author{
			FirstName: name[:idx],
			LastName:  name[idx+1:],
			FullName:  name,
		}
	}
	return Author{LastName: name, FullName: name}
}

// Paper is the unified representation of one feed entry across source kinds.
// All fields are set by a source adapter at construction and read-only
// afterwards, except Authors[].Metrics which the evaluator populates.
type Paper struct {
	Title        string
	Abstract     string
	URL          string
	Source       string // e.g. "arXiv:hep-th", "PRX Quantum"
	SourceSymbol string // short form for notification subjects

	Authors    []Author
	Categories []string
	Published  time.Time

	ArxivID    string
	DOI        string
	PDFURL     string
	OpenAccess bool

	MatchedKeywords []string
	Filtered        bool
	FilterReason    string
}

// Identifier returns the stable dedup key for the paper: the DOI when known,
// else the arXiv id, else the entry URL. Identical papers from the same
// source always yield the same identifier.
func (p Paper) Identifier() string {
	if p.DOI != "" {
		return "doi:" + p.DOI
	}
	if p.ArxivID != "" {
		return "arxiv:" + p.ArxivID
	}
	return p.URL
}

// Same reports whether two papers refer to the same publication. Equality is
// defined solely on the identifier.
func (p Paper) Same(other Paper) bool {
	return p.Identifier() == other.Identifier()
}

// MaxHIndex returns the highest h-index among resolved authors. The second
// return value is false when no author has resolved metrics, which callers
// must treat differently from a resolved zero.
func MaxHIndex(p Paper) (int, bool) {
	max, resolved := 0, false
	for _, a := range p.Authors {
		if a.Metrics == nil {
			continue
		}
		if !resolved || a.Metrics.HIndex > max {
			max = a.Metrics.HIndex
		}
		resolved = true
	}
	return max, resolved
}
