package enum

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText returns content as UTF-8. A UTF-8 byte order mark is dropped
// and UTF-16 with a byte order mark is transcoded. Anything else is
// returned unchanged, invalid bytes included, so offsets stay meaningful.
func DecodeText(content []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return content[len(bomUTF8):], nil
	case bytes.HasPrefix(content, bomUTF16LE), bytes.HasPrefix(content, bomUTF16BE):
		// ExpectBOM picks the byte order from the mark and strips it.
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(content)
		if err != nil {
			return nil, fmt.Errorf("decoding utf-16: %w", err)
		}
		return out, nil
	}
	return content, nil
}

// hasUTF16BOM reports whether content announces itself as UTF-16. Such
// files are full of NUL bytes and must not be mistaken for binaries.
func hasUTF16BOM(content []byte) bool {
	return bytes.HasPrefix(content, bomUTF16LE) || bytes.HasPrefix(content, bomUTF16BE)
}

// isBinary detects if content is binary by checking first 8KB for null bytes.
func isBinary(content []byte) bool {
	checkSize := min(len(content), 8192)
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
