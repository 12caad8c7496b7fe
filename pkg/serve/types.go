package serve

import (
	"encoding/json"
	"errors"

	"github.com/praetorian-inc/testweave/pkg/scanner"
	"github.com/praetorian-inc/testweave/pkg/tcid"
	"github.com/praetorian-inc/testweave/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "extract" | "validate" | "scan" | "scan_content" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ExtractPayload is the payload for "extract" requests
type ExtractPayload struct {
	Text string `json:"text"`
}

// ExtractResult lists the identifiers found in a text.
type ExtractResult struct {
	Matches []tcid.Match `json:"matches"`
}

// ValidatePayload is the payload for "validate" requests
type ValidatePayload struct {
	IDs []string `json:"ids"`
}

// Validation is the verdict on one candidate identifier.
type Validation struct {
	ID     string `json:"id"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ValidateResult holds one Validation per requested candidate, in order.
type ValidateResult struct {
	Results []Validation `json:"results"`
}

// ScanPayload is the payload for "scan" requests. Globs replace the
// workspace include globs for this scan only.
type ScanPayload struct {
	Globs []string `json:"globs,omitempty"`
}

// ScanResponse is returned by workspace scans.
type ScanResponse struct {
	Workspace string            `json:"workspace"`
	Result    *types.ScanResult `json:"result"`
}

// ContentPayload is the payload for "scan_content" requests
type ContentPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | request type
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version   string `json:"version"`
	Workspace string `json:"workspace"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status     string `json:"status"`
	Product    string `json:"product"`
	Mode       string `json:"mode"`
	ServerRoot string `json:"serverRoot"`
}

// WorkspaceRequest is the body of POST /api/workspace.
type WorkspaceRequest struct {
	Path string `json:"path"`
}

// WorkspaceResponse is returned by GET /api/workspace.
type WorkspaceResponse struct {
	Workspace  string `json:"workspace"`
	ServerRoot string `json:"serverRoot"`
	StoredAt   string `json:"storedAt"`
}

// TestCasesResponse is returned by GET /api/testcases. Result is null
// until a scan has run.
type TestCasesResponse struct {
	Workspace string            `json:"workspace"`
	Result    *types.ScanResult `json:"result"`
	Message   string            `json:"message,omitempty"`
}

// ErrorResponse is the body of every failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Validate checks each candidate as written and explains rejections.
func Validate(ids []string) ValidateResult {
	results := make([]Validation, 0, len(ids))
	for _, id := range ids {
		v := Validation{ID: id, Valid: true}
		if _, err := tcid.Parse(id); err != nil {
			v.Valid = false
			var invalid *tcid.InvalidError
			if errors.As(err, &invalid) {
				v.Reason = invalid.Reason
			} else {
				v.Reason = err.Error()
			}
		}
		results = append(results, v)
	}
	return ValidateResult{Results: results}
}

// Extract finds the identifiers in text. Matches is never nil.
func Extract(text string) ExtractResult {
	matches := tcid.FindWithPositions(text)
	if matches == nil {
		matches = []tcid.Match{}
	}
	return ExtractResult{Matches: matches}
}
