// Package sarif renders a test case inventory as a SARIF 2.1.0 log.
package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "testweave"
)

// Rule IDs reported by testweave.
const (
	RuleDefinition          = "tcid.definition"
	RuleDuplicateDefinition = "tcid.duplicate-definition"
	RuleUndefinedReference  = "tcid.undefined-reference"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes one kind of result.
type Rule struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	ShortDescription     ShortDescription     `json:"shortDescription"`
	DefaultConfiguration DefaultConfiguration `json:"defaultConfiguration"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// DefaultConfiguration carries the level a rule reports at.
type DefaultConfiguration struct {
	Level string `json:"level"`
}

// Result represents a single result
type Result struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    Message           `json:"message"`
	Locations  []Location        `json:"locations"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range. Lines and columns are 1-based.
type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

var rules = []Rule{
	{
		ID:                   RuleDefinition,
		Name:                 "TestCaseDefinition",
		ShortDescription:     ShortDescription{Text: "A test case is defined by a heading line"},
		DefaultConfiguration: DefaultConfiguration{Level: "note"},
	},
	{
		ID:                   RuleDuplicateDefinition,
		Name:                 "DuplicateDefinition",
		ShortDescription:     ShortDescription{Text: "A test case identifier is defined more than once"},
		DefaultConfiguration: DefaultConfiguration{Level: "warning"},
	},
	{
		ID:                   RuleUndefinedReference,
		Name:                 "UndefinedReference",
		ShortDescription:     ShortDescription{Text: "A test case identifier is referenced but never defined"},
		DefaultConfiguration: DefaultConfiguration{Level: "warning"},
	},
}

// NewReport creates a new SARIF report with the testweave rules and no
// results.
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: toolVersion,
						Rules:   append([]Rule(nil), rules...),
					},
				},
				Results: []Result{},
			},
		},
	}
}

// FromInventory reports every definition as a note and every diagnostic
// occurrence as a warning.
func FromInventory(inv *types.Inventory, toolVersion string) *Report {
	r := NewReport(toolVersion)
	for _, tc := range inv.TestCases {
		for _, def := range tc.Definitions {
			msg := def.ID + " is defined"
			if def.Title != "" {
				msg = fmt.Sprintf("%s is defined: %s", def.ID, def.Title)
			}
			r.AddResult(RuleDefinition, "note", msg, def)
		}
	}
	for _, d := range inv.Diagnostics {
		ruleID := RuleUndefinedReference
		if d.Code == types.DiagDuplicateDefinition {
			ruleID = RuleDuplicateDefinition
		}
		for _, occ := range d.Occurrences {
			r.AddResult(ruleID, "warning", d.Message, occ)
		}
	}
	return r
}

// AddResult adds one result located at occ.
func (r *Report) AddResult(ruleID, level, msg string, occ types.Occurrence) {
	src := occ.Location.Source
	result := Result{
		RuleID: ruleID,
		Level:  level,
		Message: Message{
			Text: msg,
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(occ.Path),
					},
					Region: Region{
						StartLine:   src.Start.Line,
						StartColumn: src.Start.Column,
						EndLine:     src.End.Line,
						EndColumn:   src.End.Column,
					},
				},
			},
		},
		Properties: map[string]string{
			"testcase": occ.ID,
			"kind":     string(occ.Kind),
			"source":   occ.Source,
		},
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
