// Package tcid recognizes test case identifiers (TC-IDs) in free-form text.
//
// Two shapes are accepted, both case-sensitive:
//
//	TC-NNN, TC-SEG-NNN   long form; SEG is 1-6 of [A-Z0-9] with at least one digit
//	PREFIX+DIGITS        short form; 1-4 letters (not starting with TC), 1-3 digits
//
// A match must not touch an ASCII letter or digit on either side, so
// "XTC-001Y" and "preC02post" yield nothing while "pre C02 post" yields "C02".
//
// Every function in this package is pure and safe for concurrent use.
// Absence of a match or an invalid candidate is reported through the
// return value, never as an error.
package tcid

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Match is one identifier occurrence inside a larger text.
// Start and End are byte offsets forming the half-open span [Start, End),
// so text[m.Start:m.End] == m.ID.
type Match struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Len returns the byte length of the match.
func (m Match) Len() int {
	return m.End - m.Start
}

// ExtractFirst returns the leftmost identifier in text.
func ExtractFirst(text string) (string, bool) {
	var (
		id    string
		found bool
	)
	scan(text, func(m Match) bool {
		id, found = m.ID, true
		return false
	})
	return id, found
}

// ExtractAll returns every non-overlapping identifier in source order.
func ExtractAll(text string) []string {
	var ids []string
	scan(text, func(m Match) bool {
		ids = append(ids, m.ID)
		return true
	})
	return ids
}

// FindWithPositions returns every non-overlapping identifier in source order
// together with its byte span.
func FindWithPositions(text string) []Match {
	var matches []Match
	scan(text, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

// IsValid reports whether the whole of candidate is an identifier. It does
// not search and does not trim.
func IsValid(candidate string) bool {
	if candidate == "" {
		return false
	}
	ok, err := exactRe.MatchString(candidate)
	if err != nil {
		panic(fmt.Sprintf("tcid: validating %q: %v", candidate, err))
	}
	return ok
}

// Normalize trims surrounding whitespace. Case and leading zeros are kept.
func Normalize(id string) string {
	return strings.TrimSpace(id)
}

// FilterValid keeps the valid candidates, preserving input order.
func FilterValid(candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if IsValid(c) {
			out = append(out, c)
		}
	}
	return out
}

// scan walks text left to right and hands each match to yield until yield
// returns false. regexp2 works on runes, so rune indexes are translated back
// to byte offsets as the walk advances.
func scan(text string, yield func(Match) bool) {
	if text == "" {
		return
	}

	cur := byteCursor{text: text}
	m, err := searchRe.FindRunesMatch([]rune(text))
	for ; m != nil && err == nil; m, err = searchRe.FindNextMatch(m) {
		start := cur.seek(m.Index)
		end := cur.seek(m.Index + m.Length)
		if !yield(Match{ID: text[start:end], Start: start, End: end}) {
			return
		}
	}
	// regexp2 only fails on a match timeout and none is configured.
	if err != nil {
		panic(fmt.Sprintf("tcid: searching text: %v", err))
	}
}

// byteCursor converts increasing rune indexes of text into byte offsets.
// Invalid UTF-8 bytes count as one rune each, the same way []rune(text)
// decodes them.
type byteCursor struct {
	text string
	r    int
	b    int
}

func (c *byteCursor) seek(r int) int {
	for c.r < r && c.b < len(c.text) {
		_, size := utf8.DecodeRuneInString(c.text[c.b:])
		c.b += size
		c.r++
	}
	return c.b
}
