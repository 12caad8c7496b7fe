package types

// OccurrenceKind separates the place a test case is declared from places
// that merely mention it.
type OccurrenceKind string

const (
	// KindDefinition is the first identifier on a heading line.
	KindDefinition OccurrenceKind = "definition"
	// KindReference is any other identifier occurrence.
	KindReference OccurrenceKind = "reference"
)

// Occurrence is one identifier found in one document.
type Occurrence struct {
	ID         string         `json:"id"`
	Kind       OccurrenceKind `json:"kind"`
	Title      string         `json:"title,omitempty"`
	Path       string         `json:"path"`
	Source     string         `json:"source"` // provenance kind
	DocumentID ContentID      `json:"document_id"`
	Location   Location       `json:"location"`
}

// IsDefinition reports whether the occurrence declares its test case.
func (o Occurrence) IsDefinition() bool {
	return o.Kind == KindDefinition
}
