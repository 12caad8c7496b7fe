package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ContentID is a Git-style SHA-1 of a document's content. Two documents with
// the same bytes share an ID regardless of where they were found.
type ContentID [sha1.Size]byte

// ComputeContentID hashes content the way `git hash-object` does:
// SHA-1("blob {len}\0{content}").
func ComputeContentID(content []byte) ContentID {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)

	var id ContentID
	h.Sum(id[:0])
	return id
}

// ParseContentID parses a 40-character hex string.
func ParseContentID(s string) (ContentID, error) {
	var id ContentID
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("invalid content ID length: expected %d, got %d", hex.EncodedLen(len(id)), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ContentID{}, fmt.Errorf("invalid content ID: %w", err)
	}
	return id, nil
}

// String returns the 40-character hex form.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the ID was never set.
func (id ContentID) IsZero() bool {
	return id == ContentID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ContentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ContentID) UnmarshalText(text []byte) error {
	parsed, err := ParseContentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer for SQL serialization.
func (id ContentID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (id *ContentID) Scan(value any) error {
	switch v := value.(type) {
	case string:
		return id.UnmarshalText([]byte(v))
	case []byte:
		return id.UnmarshalText(v)
	case nil:
		return fmt.Errorf("cannot scan nil into ContentID")
	default:
		return fmt.Errorf("cannot scan type %T into ContentID", value)
	}
}
