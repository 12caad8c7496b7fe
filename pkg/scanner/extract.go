package scanner

import (
	"strings"

	"github.com/praetorian-inc/testweave/pkg/prefilter"
	"github.com/praetorian-inc/testweave/pkg/tcid"
	"github.com/praetorian-inc/testweave/pkg/types"
)

// titleCutset is stripped between a defining identifier and its title.
const titleCutset = " \t-:|–—"

// ExtractOccurrences finds every identifier in doc. The first identifier
// on a heading line is a definition, every other one a reference. A nil
// headings treats every occurrence as a reference.
func ExtractOccurrences(doc *types.Document, headings *prefilter.Prefilter) []types.Occurrence {
	text := string(doc.Content)
	matches := tcid.FindWithPositions(text)
	if len(matches) == 0 {
		return nil
	}

	idx := types.NewLineIndex(text)
	checkHeadings := headings != nil && headings.MayContainHeadings(doc.Content)
	path, source := doc.Path(), doc.Source()

	occs := make([]types.Occurrence, 0, len(matches))
	prevLine := 0
	for _, m := range matches {
		occ := types.Occurrence{
			ID:         m.ID,
			Kind:       types.KindReference,
			Path:       path,
			Source:     source,
			DocumentID: doc.ID,
			Location:   idx.Span(m.Start, m.End),
		}

		line := occ.Location.Source.Start.Line
		if checkHeadings && line != prevLine {
			lineText, lineStart := idx.Line(line)
			if headings.IsHeading(lineText) {
				occ.Kind = types.KindDefinition
				occ.Title = headingTitle(lineText[m.End-lineStart:])
			}
		}
		prevLine = line

		occs = append(occs, occ)
	}
	return occs
}

// headingTitle cleans the text following a defining identifier.
func headingTitle(rest string) string {
	rest = strings.TrimLeft(rest, titleCutset)
	return strings.TrimRight(rest, " \t|")
}
