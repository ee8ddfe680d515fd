// internal/workers/roster/optimize-group/models.go
package optimizegroup

import "roster-optimizer/internal/models"

type Input struct {
	Group       string                   `json:"group"`
	Candidates  []models.CandidateRecord `json:"candidates"`
	Requirement []models.CapacitySlot    `json:"requirement"`
	Mode        string                   `json:"mode,omitempty"`
}

// Output is the solved roster of a single group.
type Output struct {
	Group       string               `json:"group"`
	Total       float64              `json:"total"`
	Complete    bool                 `json:"complete"`
	Method      string               `json:"method"`
	Assignments []models.RosterEntry `json:"assignments"`
	Counts      map[string]int       `json:"counts"`
	Cached      bool                 `json:"cached"`
}

const inputSchema = `{
  "type": "object",
  "required": ["group", "candidates", "requirement"],
  "properties": {
    "group": {"type": "string", "minLength": 1},
    "mode":  {"type": "string", "enum": ["", "exact", "greedy"]},
    "candidates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "categories"],
        "properties": {
          "id":         {"type": "string", "minLength": 1},
          "name":       {"type": "string"},
          "group":      {"type": "string"},
          "categories": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "value":      {"type": ["number", "null"]}
        }
      }
    },
    "requirement": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category", "slots"],
        "properties": {
          "category": {"type": "string", "minLength": 1},
          "slots":    {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`
