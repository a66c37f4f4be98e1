// Package filter drops routine corporate headlines before classification and
// normalizes text for the lexicon classifier.
package filter

import (
	"regexp"
	"strings"
)

type NoiseFilter struct {
	keywords []string
}

// NewNoiseFilter builds a filter over keywords. Matching is case-insensitive
// substring matching; blank keywords are ignored.
func NewNoiseFilter(keywords []string) *NoiseFilter {
	f := &NoiseFilter{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

// Match returns the first keyword found in text.
func (f *NoiseFilter) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, k := range f.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

func (f *NoiseFilter) IsNoisy(text string) bool {
	_, ok := f.Match(text)
	return ok
}

var (
	urlPattern      = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
	nonAlphaPattern = regexp.MustCompile(`[^a-z\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// CleanText lower-cases text, removes URLs and non-letter characters and
// collapses runs of whitespace.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = nonAlphaPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
