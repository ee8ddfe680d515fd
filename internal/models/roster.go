// internal/models/roster.go
package models

import "time"

// CandidateRecord is a candidate as carried in job variables.
type CandidateRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Group        string   `json:"group"`
	Categories   []string `json:"categories"`
	Value        float64  `json:"value"`
	Affiliation  string   `json:"affiliation,omitempty"`
	RosterStatus string   `json:"rosterStatus,omitempty"`
}

// CapacitySlot is one entry of a capacity requirement. Requirements travel as
// ordered lists so the display order survives config and JSON round trips.
type CapacitySlot struct {
	Category string `json:"category" mapstructure:"category"`
	Slots    int    `json:"slots" mapstructure:"slots"`
}

// RosterEntry is one filled slot of a group's roster.
type RosterEntry struct {
	ID         string  `json:"id" db:"candidate_id"`
	Name       string  `json:"name" db:"name"`
	Category   string  `json:"category" db:"category"`
	Value      float64 `json:"value" db:"value"`
	Categories string  `json:"eligible,omitempty" db:"eligible"`
}

// Standing is a group's position in the ranked league table.
type Standing struct {
	Rank     int            `json:"rank" db:"rank"`
	Group    string         `json:"group" db:"group_name"`
	Total    float64        `json:"total" db:"total"`
	Complete bool           `json:"complete" db:"complete"`
	Method   string         `json:"method" db:"method"`
	Counts   map[string]int `json:"counts"`
	Roster   []RosterEntry  `json:"roster,omitempty"`
}

// RejectedRecord describes an input record that did not make the catalog.
type RejectedRecord struct {
	Row    int    `json:"row"`
	ID     string `json:"id,omitempty"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// RosterRun is the persisted header of one league solve.
type RosterRun struct {
	ID             string    `json:"id" db:"id"`
	Mode           string    `json:"mode" db:"mode"`
	GroupCount     int       `json:"groupCount" db:"group_count"`
	CandidateCount int       `json:"candidateCount" db:"candidate_count"`
	RejectedCount  int       `json:"rejectedCount" db:"rejected_count"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
