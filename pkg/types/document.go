package types

// Document is one piece of text handed to the identifier matcher: a file,
// text extracted from a binary file, or a commit message.
type Document struct {
	ID         ContentID
	Content    []byte
	Provenance Provenance
}

// NewDocument computes the content ID and wraps content.
func NewDocument(content []byte, prov Provenance) *Document {
	return &Document{
		ID:         ComputeContentID(content),
		Content:    content,
		Provenance: prov,
	}
}

// Path returns the provenance path, or "" when provenance is unknown.
func (d *Document) Path() string {
	if d.Provenance == nil {
		return ""
	}
	return d.Provenance.Path()
}

// Source returns the provenance kind, or "" when provenance is unknown.
func (d *Document) Source() string {
	if d.Provenance == nil {
		return ""
	}
	return d.Provenance.Kind()
}
