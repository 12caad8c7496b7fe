package scanner

import "log/slog"

// ContentItem represents an in-memory document to scan.
type ContentItem struct {
	Source  string `json:"source"`  // display path, e.g. "editor:login.feature"
	Content string `json:"content"` // the actual content to scan
}

// Options configures a Core.
type Options struct {
	// Headings are the heading keywords. Nil selects the defaults, an empty
	// slice leaves only markdown headings.
	Headings []string

	// Logger receives progress records. Nil means slog.Default().
	Logger *slog.Logger
}
