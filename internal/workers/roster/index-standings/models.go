// internal/workers/roster/index-standings/models.go
package indexstandings

import "roster-optimizer/internal/models"

type Input struct {
	RunID     string            `json:"runId"`
	Standings []models.Standing `json:"standings"`
}

type Output struct {
	Index       string   `json:"index"`
	Indexed     int      `json:"indexed"`
	DocumentIDs []string `json:"documentIds"`
}

// StandingDocument is the indexed form of one standing.
type StandingDocument struct {
	RunID     string               `json:"runId"`
	Group     string               `json:"group"`
	Rank      int                  `json:"rank"`
	Total     float64              `json:"total"`
	Complete  bool                 `json:"complete"`
	Method    string               `json:"method"`
	Counts    map[string]int       `json:"counts"`
	Roster    []models.RosterEntry `json:"roster"`
	IndexedAt string               `json:"indexedAt"`
}
