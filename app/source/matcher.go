package source

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matcher applies include/exclude keyword rules to entry text.
//
// Matching is case-folded substring matching: multi-word keywords match as
// literal phrases, and no word-boundary handling is done. An entry passes
// when no exclude keyword matches AND (no include list is configured OR at
// least one include keyword matches). Exclude always dominates include.
type Matcher struct {
	include       []string // folded
	exclude       []string // folded
	reportInclude []string // original casing, for MatchedKeywords
}

// NewMatcher builds a matcher from include/exclude keyword lists.
func NewMatcher(include, exclude []string) *Matcher {
	caser := cases.Fold()
	m := &Matcher{
		include:       make([]string, 0, len(include)),
		exclude:       make([]string, 0, len(exclude)),
		reportInclude: make([]string, 0, len(include)),
	}
	for _, kw := range include {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		m.include = append(m.include, caser.String(kw))
		m.reportInclude = append(m.reportInclude, kw)
	}
	for _, kw := range exclude {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		m.exclude = append(m.exclude, caser.String(kw))
	}
	return m
}

// Match checks text against the configured rules and returns whether the
// entry passes plus the include keywords that matched (in original casing).
func (m *Matcher) Match(text string) (bool, []string) {
	folded := cases.Fold().String(text)

	for _, kw := range m.exclude {
		if strings.Contains(folded, kw) {
			return false, nil
		}
	}

	var matched []string
	for i, kw := range m.include {
		if strings.Contains(folded, kw) {
			matched = append(matched, m.reportInclude[i])
		}
	}

	if len(m.include) > 0 && len(matched) == 0 {
		return false, nil
	}

	return true, matched
}
