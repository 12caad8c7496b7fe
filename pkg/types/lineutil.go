package types

import "sort"

// ComputeLineColumn computes line and column numbers from a byte offset in content.
// Lines and columns are 1-indexed (first line is 1, first column is 1).
// Offsets past the end are clamped to the end of content.
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	p := NewLineIndex(string(content)).Position(byteOffset)
	return p.Line, p.Column
}

// LineIndex answers offset-to-position queries for one document without
// rescanning it for every occurrence.
type LineIndex struct {
	text   string
	starts []int // byte offset of the first byte of each line
}

// NewLineIndex records the line starts of text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Lines returns the number of lines (an empty text has one).
func (li *LineIndex) Lines() int {
	return len(li.starts)
}

// Position converts a byte offset to a 1-based line and column.
func (li *LineIndex) Position(offset int) SourcePoint {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.text) {
		offset = len(li.text)
	}
	// Index of the last line start <= offset.
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return SourcePoint{Line: i + 1, Column: offset - li.starts[i] + 1}
}

// Span converts a byte range into a Location.
func (li *LineIndex) Span(start, end int) Location {
	return Location{
		Offset: OffsetSpan{Start: start, End: end},
		Source: SourceSpan{Start: li.Position(start), End: li.Position(end)},
	}
}

// Line returns the text of the 1-based line without its terminator
// ("\n" or "\r\n") along with the byte offset where it starts.
func (li *LineIndex) Line(line int) (text string, start int) {
	if line < 1 || line > len(li.starts) {
		return "", -1
	}
	start = li.starts[line-1]
	end := len(li.text)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	if end > start && li.text[end-1] == '\r' {
		end--
	}
	return li.text[start:end], start
}
