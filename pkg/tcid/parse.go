package tcid

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ErrInvalid is matched by every error Parse returns.
var ErrInvalid = errors.New("invalid test case identifier")

// Form tells which grammar an identifier belongs to.
type Form int

const (
	FormUnknown Form = iota
	FormLong         // TC-NNN or TC-SEG-NNN
	FormShort        // PREFIX+DIGITS
)

// String returns the string representation of Form
func (f Form) String() string {
	switch f {
	case FormLong:
		return "long"
	case FormShort:
		return "short"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Form) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ID is a validated identifier split into its parts.
type ID struct {
	Value   string `json:"value"`
	Form    Form   `json:"form"`
	Prefix  string `json:"prefix"`            // "TC" for the long form
	Segment string `json:"segment,omitempty"` // long form only
	Number  string `json:"number"`            // leading zeros kept
}

// String returns the identifier as written.
func (id ID) String() string {
	return id.Value
}

// InvalidError describes why a candidate is not an identifier.
type InvalidError struct {
	Input  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalid, e.Input, e.Reason)
}

// Is reports whether target is ErrInvalid.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Parse validates s as a whole (no trimming, see Normalize) and splits it
// into its parts. Invalid input yields an *InvalidError.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, &InvalidError{Input: s, Reason: "empty identifier"}
	}

	m, err := exactRe.FindStringMatch(s)
	if err != nil {
		panic(fmt.Sprintf("tcid: parsing %q: %v", s, err))
	}
	if m == nil {
		return ID{}, &InvalidError{Input: s, Reason: diagnose(s)}
	}

	if prefix := groupText(m, "prefix"); prefix != "" {
		return ID{
			Value:  s,
			Form:   FormShort,
			Prefix: prefix,
			Number: groupText(m, "digits"),
		}, nil
	}
	return ID{
		Value:   s,
		Form:    FormLong,
		Prefix:  "TC",
		Segment: groupText(m, "segment"),
		Number:  groupText(m, "number"),
	}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for
// identifiers written in code.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// groupText returns the text of a named group, or "" when it did not
// participate in the match.
func groupText(m *regexp2.Match, name string) string {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.Captures[0].String()
}

// diagnose explains why s failed the exact match. It only runs on invalid
// input and always returns a reason.
func diagnose(s string) string {
	if upper := strings.ToUpper(s); upper != s && IsValid(upper) {
		return fmt.Sprintf("identifiers are case-sensitive, did you mean %q", upper)
	}
	if strings.TrimSpace(s) != s {
		return "surrounding whitespace is not allowed"
	}

	if rest, ok := strings.CutPrefix(s, "TC-"); ok {
		return diagnoseLong(rest)
	}
	if strings.HasPrefix(s, "TC") {
		if len(s) > 2 && isDigit(s[2]) {
			return "long form needs a hyphen after TC"
		}
		return "short form prefix may not start with TC"
	}
	return diagnoseShort(s)
}

func diagnoseLong(rest string) string {
	fields := strings.Split(rest, "-")
	number := fields[len(fields)-1]
	switch len(fields) {
	case 1:
	case 2:
		if reason := diagnoseSegment(fields[0]); reason != "" {
			return reason
		}
	default:
		return "too many hyphen-separated fields"
	}
	return diagnoseNumber(number, "numeric field")
}

func diagnoseSegment(seg string) string {
	switch {
	case seg == "":
		return "empty segment"
	case len(seg) > 6:
		return "segment longer than 6 characters"
	case strings.IndexFunc(seg, func(r rune) bool { return !isUpper(r) && !isDigitRune(r) }) >= 0:
		return "segment may only contain A-Z and 0-9"
	case strings.IndexFunc(seg, isDigitRune) < 0:
		return "segment must contain at least one digit"
	}
	return ""
}

func diagnoseShort(s string) string {
	i := 0
	for i < len(s) && isUpper(rune(s[i])) {
		i++
	}
	prefix, rest := s[:i], s[i:]
	switch {
	case prefix == "":
		return "must start with an uppercase letter"
	case len(prefix) > 4:
		return "prefix longer than 4 letters"
	}
	return diagnoseNumber(rest, "trailing number")
}

func diagnoseNumber(s, what string) string {
	j := 0
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	switch {
	case j == 0 && s == "":
		return "missing " + what
	case j == 0 || j < len(s) && j <= 3:
		r, _ := utf8.DecodeRuneInString(s[j:])
		return fmt.Sprintf("unexpected character %q", r)
	case j > 3:
		return what + " must be 1 to 3 digits long"
	}
	return "does not match either identifier form"
}

func isDigit(b byte) bool     { return b >= '0' && b <= '9' }
func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }
func isUpper(r rune) bool     { return r >= 'A' && r <= 'Z' }
