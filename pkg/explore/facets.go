package explore

import (
	"slices"
	"sort"
)

// facetID identifies a facet category.
type facetID int

const (
	facetStatus facetID = iota
	facetSource
	facetFileType
)

// facetDef defines a facet category.
type facetDef struct {
	ID    facetID
	Label string
}

var facetDefs = []facetDef{
	{facetStatus, "Status"},
	{facetSource, "Source"},
	{facetFileType, "File Type"},
}

// facetValue is a single selectable value within a facet.
type facetValue struct {
	FacetID  facetID
	Value    string
	Count    int
	Selected bool
}

// facetState holds the complete filter state.
type facetState struct {
	Values map[facetID][]*facetValue
}

func newFacetState() *facetState {
	return &facetState{
		Values: make(map[facetID][]*facetValue),
	}
}

// rowValues returns the values a test case has for a facet.
func rowValues(id facetID, tc *testCaseRow) []string {
	switch id {
	case facetStatus:
		return []string{tc.Status}
	case facetSource:
		return tc.Sources
	case facetFileType:
		return tc.FileTypes
	}
	return nil
}

// buildFacets collects every facet value present in testCases.
func buildFacets(testCases []*testCaseRow) *facetState {
	fs := newFacetState()
	for _, def := range facetDefs {
		counts := make(map[string]int)
		for _, tc := range testCases {
			for _, v := range rowValues(def.ID, tc) {
				counts[v]++
			}
		}
		fs.Values[def.ID] = mapToFacetValues(def.ID, counts)
	}
	return fs
}

func mapToFacetValues(id facetID, counts map[string]int) []*facetValue {
	values := make([]*facetValue, 0, len(counts))
	for v, c := range counts {
		values = append(values, &facetValue{FacetID: id, Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].Value < values[j].Value
	})
	return values
}

// selectedValues returns the set of selected values for a facet.
func (fs *facetState) selectedValues(id facetID) map[string]bool {
	selected := make(map[string]bool)
	for _, v := range fs.Values[id] {
		if v.Selected {
			selected[v.Value] = true
		}
	}
	return selected
}

// hasActiveFilters returns true if any facet has selections.
func (fs *facetState) hasActiveFilters() bool {
	for _, values := range fs.Values {
		for _, v := range values {
			if v.Selected {
				return true
			}
		}
	}
	return false
}

// resetAll deselects all facet values.
func (fs *facetState) resetAll() {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Selected = false
		}
	}
}

// matches reports whether a test case passes all active filters.
// Within a facet: OR (union). Across facets: AND (intersection).
func (fs *facetState) matches(tc *testCaseRow) bool {
	for _, def := range facetDefs {
		selected := fs.selectedValues(def.ID)
		if len(selected) == 0 {
			continue
		}
		if !slices.ContainsFunc(rowValues(def.ID, tc), func(v string) bool { return selected[v] }) {
			return false
		}
	}
	return true
}

// updateCounts recounts facet values over the test cases passing the
// current filters.
func (fs *facetState) updateCounts(testCases []*testCaseRow) {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Count = 0
		}
	}

	for _, tc := range testCases {
		if !fs.matches(tc) {
			continue
		}
		for _, def := range facetDefs {
			have := rowValues(def.ID, tc)
			for _, v := range fs.Values[def.ID] {
				if slices.Contains(have, v.Value) {
					v.Count++
				}
			}
		}
	}
}
