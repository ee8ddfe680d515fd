// internal/workers/roster/solve-league/models.go
package solveleague

import "roster-optimizer/internal/models"

// Input carries the league either as decoded records or as an inline CSV
// export. Records win when both are present.
type Input struct {
	Records     []map[string]interface{} `json:"records,omitempty"`
	CSV         string                   `json:"csv,omitempty"`
	Requirement []models.CapacitySlot    `json:"requirement,omitempty"`
	Mode        string                   `json:"mode,omitempty"`
	Strict      bool                     `json:"strict,omitempty"`
}

type Output struct {
	RunID     string                  `json:"runId"`
	Standings []models.Standing       `json:"standings"`
	Rejected  []models.RejectedRecord `json:"rejected"`
	ExportCSV string                  `json:"exportCsv"`
	Persisted bool                    `json:"persisted"`
}
