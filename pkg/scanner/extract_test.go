package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/prefilter"
	"github.com/praetorian-inc/testweave/pkg/types"
)

const loginFeature = `Feature: Login
  Scenario: TC-001 - User logs in | smoke
    Given C02 exists
  Scenario: TC-002: logout TC-001
# TC-TS1-1 — Overview
Steps for AB12.
`

func TestExtractOccurrences(t *testing.T) {
	doc := types.NewDocument([]byte(loginFeature), types.FileProvenance{FilePath: "login.feature"})
	occs := ExtractOccurrences(doc, prefilter.New(nil))
	require.Len(t, occs, 6)

	tests := []struct {
		id    string
		kind  types.OccurrenceKind
		title string
		line  int
	}{
		{"TC-001", types.KindDefinition, "User logs in | smoke", 2},
		{"C02", types.KindReference, "", 3},
		{"TC-002", types.KindDefinition, "logout TC-001", 4},
		{"TC-001", types.KindReference, "", 4},
		{"TC-TS1-1", types.KindDefinition, "Overview", 5},
		{"AB12", types.KindReference, "", 6},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.id, occs[i].ID, "occurrence %d", i)
		assert.Equal(t, tt.kind, occs[i].Kind, "occurrence %d", i)
		assert.Equal(t, tt.title, occs[i].Title, "occurrence %d", i)
		assert.Equal(t, tt.line, occs[i].Location.Source.Start.Line, "occurrence %d", i)
		assert.Equal(t, "login.feature", occs[i].Path)
		assert.Equal(t, "file", occs[i].Source)
		assert.Equal(t, doc.ID, occs[i].DocumentID)
	}

	first := occs[0].Location
	assert.Equal(t, types.OffsetSpan{Start: 27, End: 33}, first.Offset)
	assert.Equal(t, types.SourcePoint{Line: 2, Column: 13}, first.Source.Start)
	assert.Equal(t, "TC-001", loginFeature[first.Offset.Start:first.Offset.End])
}

func TestExtractOccurrences_CRLF(t *testing.T) {
	doc := types.NewDocument([]byte("Scenario: C1 - first\r\nsee C1\r\n"), types.FileProvenance{FilePath: "a.feature"})
	occs := ExtractOccurrences(doc, prefilter.New(nil))
	require.Len(t, occs, 2)

	assert.True(t, occs[0].IsDefinition())
	assert.Equal(t, "first", occs[0].Title)
	assert.False(t, occs[1].IsDefinition())
	assert.Equal(t, types.SourcePoint{Line: 2, Column: 5}, occs[1].Location.Source.Start)
}

func TestExtractOccurrences_NoHeadings(t *testing.T) {
	doc := types.NewDocument([]byte(loginFeature), types.FileProvenance{FilePath: "login.feature"})
	for _, occ := range ExtractOccurrences(doc, nil) {
		assert.Equal(t, types.KindReference, occ.Kind)
		assert.Empty(t, occ.Title)
	}
}

func TestExtractOccurrences_NoMatches(t *testing.T) {
	doc := types.NewDocument([]byte("Scenario: nothing here"), types.FileProvenance{FilePath: "a.feature"})
	assert.Empty(t, ExtractOccurrences(doc, prefilter.New(nil)))
}

func TestHeadingTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" - Login", "Login"},
		{": Login works", "Login works"},
		{" – Login", "Login"},
		{" | Login | pass |", "Login | pass"},
		{"", ""},
		{" -  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headingTitle(tt.in), "input %q", tt.in)
	}
}
