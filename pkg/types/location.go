package types

import "fmt"

// OffsetSpan is byte range [Start, End) - half-open interval.
type OffsetSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes in the span.
func (s OffsetSpan) Len() int {
	return s.End - s.Start
}

// SourcePoint is line:column position (1-based, columns count bytes).
type SourcePoint struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String formats the point as line:column.
func (p SourcePoint) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SourceSpan is start-end line:column range. End is exclusive.
type SourceSpan struct {
	Start SourcePoint `json:"start"`
	End   SourcePoint `json:"end"`
}

// Location combines byte offsets and source positions.
type Location struct {
	Offset OffsetSpan `json:"offset"`
	Source SourceSpan `json:"source"`
}
