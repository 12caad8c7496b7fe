// Package prefilter detects heading lines, the lines whose first test case
// identifier declares the test case.
package prefilter

import (
	"bytes"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// DefaultKeywords are the heading keywords used when none are configured.
var DefaultKeywords = []string{
	"Scenario:",
	"Scenario Outline:",
	"Example:",
	"Test Case:",
	"Test:",
	"TC:",
}

// markers are stripped from the start of a line before keywords are checked.
const markers = " \t#-*>|"

// Prefilter uses Aho-Corasick for efficient keyword matching. It is safe
// for concurrent use.
type Prefilter struct {
	matcher  *ahocorasick.Matcher
	keywords []string // keyword at each index
}

// New creates a prefilter for the given heading keywords. Duplicate and
// empty keywords are ignored. A nil slice selects DefaultKeywords.
func New(keywords []string) *Prefilter {
	if keywords == nil {
		keywords = DefaultKeywords
	}

	pf := &Prefilter{}
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		pf.keywords = append(pf.keywords, kw)
	}

	// Build Aho-Corasick matcher if we have keywords
	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Keywords returns the configured keywords in matcher order.
func (pf *Prefilter) Keywords() []string {
	return append([]string(nil), pf.keywords...)
}

// MayContainHeadings reports whether content could hold a heading line at
// all. A false result lets callers skip per-line checks.
func (pf *Prefilter) MayContainHeadings(content []byte) bool {
	if bytes.IndexByte(content, '#') >= 0 {
		return true
	}
	if pf.matcher == nil {
		return false
	}
	return len(pf.matcher.MatchThreadSafe(content)) > 0
}

// IsHeading reports whether line is a heading: a markdown heading, or a
// line starting with a keyword once leading whitespace and markdown
// markers are removed.
func (pf *Prefilter) IsHeading(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if pf.matcher == nil {
		return false
	}

	stripped := strings.TrimLeft(trimmed, markers)
	if stripped == "" {
		return false
	}

	// Hits only say which keywords occur somewhere in the line.
	for _, hit := range pf.matcher.MatchThreadSafe([]byte(stripped)) {
		if strings.HasPrefix(stripped, pf.keywords[hit]) {
			return true
		}
	}
	return false
}
