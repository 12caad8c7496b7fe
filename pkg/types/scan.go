package types

import "time"

// ScanResult is the outcome of one workspace scan.
type ScanResult struct {
	ID         string     `json:"id"`
	Workspace  string     `json:"workspace"`
	Cycle      string     `json:"cycle,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Documents  int        `json:"documents"`
	Inventory  *Inventory `json:"inventory"`
}

// Duration returns how long the scan took.
func (r *ScanResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Cycle is a named test cycle (for example "2026-01") that reports are
// grouped under.
type Cycle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
