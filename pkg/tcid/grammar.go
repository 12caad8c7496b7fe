package tcid

import (
	"github.com/dlclark/regexp2"
)

// Grammar building blocks. Character classes are spelled out instead of
// \d or \w because regexp2 treats those as Unicode classes.
const (
	// segmentPattern is 1-6 of [A-Z0-9] holding at least one digit. The
	// lookahead cannot run past the segment because '-' is not in its class.
	segmentPattern = `(?=[A-Z0-9]{0,5}[0-9])[A-Z0-9]{1,6}`

	numberPattern = `[0-9]{1,3}`

	// longPattern is TC-NNN or TC-SEG-NNN.
	longPattern = `TC-(?:` + segmentPattern + `-)?` + numberPattern

	// shortPattern is PREFIX+DIGITS where PREFIX never starts with TC, so a
	// hyphenless TC131 cannot sneak in as a short form.
	shortPattern = `(?!TC)[A-Z]{1,4}` + numberPattern

	// boundaryClass is what may not touch either end of a match.
	boundaryClass = `[A-Za-z0-9]`

	searchPattern = `(?<!` + boundaryClass + `)(?:` + longPattern + `|` + shortPattern + `)(?!` + boundaryClass + `)`

	// exactPattern anchors both forms to the whole input and names the parts
	// Parse needs. \z rather than $ so a trailing newline is rejected.
	exactPattern = `\A(?:` +
		`TC-(?:(?<segment>` + segmentPattern + `)-)?(?<number>` + numberPattern + `)` +
		`|` +
		`(?<prefix>(?!TC)[A-Z]{1,4})(?<digits>` + numberPattern + `)` +
		`)\z`
)

// Compiled once; regexp2.Regexp is safe for concurrent use and these are
// never mutated after init.
var (
	searchRe = regexp2.MustCompile(searchPattern, regexp2.None)
	exactRe  = regexp2.MustCompile(exactPattern, regexp2.None)
)
