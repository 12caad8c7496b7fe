package types

import "time"

// Provenance tracks where a document was discovered.
type Provenance interface {
	Kind() string
	// Path returns displayable path (if applicable)
	Path() string
}

// FileProvenance for plain text files in the workspace.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// ArchiveProvenance tracks text extracted from a binary document (pdf, docx).
type ArchiveProvenance struct {
	ArchivePath string // path to the binary file
	MemberPath  string // part within it, e.g. "word/document.xml"
}

// Kind returns "archive".
func (a ArchiveProvenance) Kind() string {
	return "archive"
}

// Path returns the archive path with member path.
func (a ArchiveProvenance) Path() string {
	return a.ArchivePath + ":" + a.MemberPath
}

// CommitProvenance marks a git commit message as the document.
type CommitProvenance struct {
	RepoPath  string
	CommitID  string
	Author    string
	Timestamp time.Time
}

// Kind returns "commit".
func (c CommitProvenance) Kind() string {
	return "commit"
}

// Path returns "commit:" plus the abbreviated hash.
func (c CommitProvenance) Path() string {
	id := c.CommitID
	if len(id) > 12 {
		id = id[:12]
	}
	return "commit:" + id
}
