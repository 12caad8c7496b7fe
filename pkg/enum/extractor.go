package enum

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/antchfx/xmlquery"
	"github.com/ledongthuc/pdf"
)

// ExtractedContent represents text extracted from a binary file.
type ExtractedContent struct {
	Name    string // part within the file, e.g. "word/document.xml"
	Content []byte // extracted text content
}

// extractors maps a lower-case extension to its text extractor.
var extractors = map[string]func([]byte) ([]ExtractedContent, error){
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractXLSX,
}

// IsExtractable reports whether text can be extracted from files with the
// given extension (".pdf").
func IsExtractable(ext string) bool {
	_, ok := extractors[strings.ToLower(ext)]
	return ok
}

// ExtractText extracts text from supported binary files (pdf, docx, xlsx).
func ExtractText(path string, content []byte) ([]ExtractedContent, error) {
	ext := getExtension(path)
	extract, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	return extract(content)
}

func getExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// extractDOCX extracts paragraphs from word/document.xml, one per line so
// headings keep their own line.
func extractDOCX(content []byte) ([]ExtractedContent, error) {
	return extractZipParts(content, "docx", func(name string) bool {
		return name == "word/document.xml"
	}, "p")
}

// extractXLSX extracts shared strings and inline cell text, one cell per
// line.
func extractXLSX(content []byte) ([]ExtractedContent, error) {
	return extractZipParts(content, "xlsx", func(name string) bool {
		return name == "xl/sharedStrings.xml" ||
			strings.HasPrefix(name, "xl/worksheets/sheet") && strings.HasSuffix(name, ".xml")
	}, "si", "c")
}

func extractZipParts(content []byte, kind string, want func(name string) bool, lineElems ...string) ([]ExtractedContent, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s as zip: %w", kind, err)
	}

	var results []ExtractedContent
	for _, file := range zr.File {
		if !want(file.Name) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		if text := extractXMLText(data, lineElems...); text != "" {
			results = append(results, ExtractedContent{Name: file.Name, Content: []byte(text)})
		}
	}
	return results, nil
}

// extractPDF extracts the plain text of every page using ledongthuc/pdf.
// The parser panics on some malformed files; that is reported as an error.
func extractPDF(content []byte) (results []ExtractedContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Keep what the other pages yield.
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, nil
	}
	return []ExtractedContent{{Name: "content", Content: []byte(extracted)}}, nil
}

// extractXMLText collects the text nodes of an XML document. Text inside
// one of lineElems ends up on its own line, other text nodes are joined
// with a space. Unparseable parts yield no text.
func extractXMLText(data []byte, lineElems ...string) string {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var (
		lines []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if s := cleanText(c.Data); s != "" {
					if cur.Len() > 0 {
						cur.WriteByte(' ')
					}
					cur.WriteString(s)
				}
			case xmlquery.ElementNode:
				walk(c)
				if slices.Contains(lineElems, c.Data) {
					flush()
				}
			}
		}
	}
	walk(doc)
	flush()
	return strings.Join(lines, "\n")
}

// cleanText collapses whitespace and drops non-printable characters.
func cleanText(s string) string {
	var result strings.Builder
	lastSpace := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				result.WriteRune(' ')
				lastSpace = true
			}
		} else if unicode.IsPrint(r) {
			result.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(result.String())
}
