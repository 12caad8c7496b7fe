package types

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/praetorian-inc/testweave/pkg/tcid"
)

// TestCase aggregates every occurrence of one identifier.
type TestCase struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"` // from the first definition
	Definitions []Occurrence `json:"definitions"`
	References  []Occurrence `json:"references"`
}

// Defined reports whether at least one definition was found.
func (tc *TestCase) Defined() bool {
	return len(tc.Definitions) > 0
}

// DiagnosticCode classifies inventory problems.
type DiagnosticCode string

const (
	DiagDuplicateDefinition DiagnosticCode = "duplicate-definition"
	DiagUndefinedReference  DiagnosticCode = "undefined-reference"
)

// Diagnostic is a problem with one test case in the inventory.
type Diagnostic struct {
	Code        DiagnosticCode `json:"code"`
	TestCase    string         `json:"testcase"`
	Message     string         `json:"message"`
	Occurrences []Occurrence   `json:"occurrences"`
}

// Stats summarizes an inventory.
type Stats struct {
	TestCases   int `json:"testcases"`
	Defined     int `json:"defined"`
	Definitions int `json:"definitions"`
	References  int `json:"references"`
}

// Inventory is the test-case index built from a scan.
type Inventory struct {
	TestCases   []*TestCase  `json:"testcases"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Stats       Stats        `json:"stats"`
}

// NewInventory groups occurrences by identifier. Test cases come out in
// identifier order, occurrences in path then offset order.
func NewInventory(occs []Occurrence) *Inventory {
	byID := make(map[string]*TestCase)
	for _, o := range occs {
		tc, ok := byID[o.ID]
		if !ok {
			tc = &TestCase{ID: o.ID, Definitions: []Occurrence{}, References: []Occurrence{}}
			byID[o.ID] = tc
		}
		if o.IsDefinition() {
			tc.Definitions = append(tc.Definitions, o)
		} else {
			tc.References = append(tc.References, o)
		}
	}

	inv := &Inventory{
		TestCases:   make([]*TestCase, 0, len(byID)),
		Diagnostics: []Diagnostic{},
	}
	for _, tc := range byID {
		slices.SortFunc(tc.Definitions, compareOccurrences)
		slices.SortFunc(tc.References, compareOccurrences)
		if tc.Defined() {
			tc.Title = tc.Definitions[0].Title
		}
		inv.TestCases = append(inv.TestCases, tc)
	}
	slices.SortFunc(inv.TestCases, func(a, b *TestCase) int { return CompareIDs(a.ID, b.ID) })

	for _, tc := range inv.TestCases {
		inv.Stats.TestCases++
		inv.Stats.Definitions += len(tc.Definitions)
		inv.Stats.References += len(tc.References)

		switch {
		case len(tc.Definitions) > 1:
			inv.Stats.Defined++
			inv.Diagnostics = append(inv.Diagnostics, Diagnostic{
				Code:        DiagDuplicateDefinition,
				TestCase:    tc.ID,
				Message:     fmt.Sprintf("%s is defined %d times", tc.ID, len(tc.Definitions)),
				Occurrences: tc.Definitions,
			})
		case len(tc.Definitions) == 1:
			inv.Stats.Defined++
		default:
			inv.Diagnostics = append(inv.Diagnostics, Diagnostic{
				Code:        DiagUndefinedReference,
				TestCase:    tc.ID,
				Message:     fmt.Sprintf("%s is referenced but never defined", tc.ID),
				Occurrences: tc.References,
			})
		}
	}

	return inv
}

// Get looks up a test case by identifier.
func (inv *Inventory) Get(id string) (*TestCase, bool) {
	i, found := slices.BinarySearchFunc(inv.TestCases, id, func(tc *TestCase, id string) int {
		return CompareIDs(tc.ID, id)
	})
	if !found {
		return nil, false
	}
	return inv.TestCases[i], true
}

// Occurrences flattens the inventory back into occurrences, definitions
// before references within each test case.
func (inv *Inventory) Occurrences() []Occurrence {
	var out []Occurrence
	for _, tc := range inv.TestCases {
		out = append(out, tc.Definitions...)
		out = append(out, tc.References...)
	}
	return out
}

// CompareIDs orders identifiers naturally: long form before short form,
// then by prefix, segment and numeric value, so C2 sorts before C10.
// Strings that are not identifiers sort last, lexically.
func CompareIDs(a, b string) int {
	pa, errA := tcid.Parse(a)
	pb, errB := tcid.Parse(b)
	switch {
	case errA != nil && errB != nil:
		return cmp.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}

	if c := cmp.Compare(pa.Form, pb.Form); c != 0 {
		return c
	}
	if c := cmp.Compare(pa.Prefix, pb.Prefix); c != 0 {
		return c
	}
	if c := cmp.Compare(pa.Segment, pb.Segment); c != 0 {
		return c
	}
	na, _ := strconv.Atoi(pa.Number)
	nb, _ := strconv.Atoi(pb.Number)
	if c := cmp.Compare(na, nb); c != 0 {
		return c
	}
	// TC-7 and TC-007 are distinct identifiers.
	return cmp.Compare(a, b)
}

func compareOccurrences(a, b Occurrence) int {
	if c := cmp.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	return cmp.Compare(a.Location.Offset.Start, b.Location.Offset.Start)
}
