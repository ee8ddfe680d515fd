// internal/workers/roster/solve-league/config.go
package solveleague

import (
	"time"

	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

type Config struct {
	Timeout     time.Duration
	Mode        solver.Mode
	TimeLimit   time.Duration
	Parallelism int
	Requirement solver.Requirement
	// CategoryOrder is only used to render the export; solving ignores it.
	CategoryOrder []string
	Columns       catalog.Columns
	Strict        bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       2 * time.Minute,
		Mode:          solver.ModeExact,
		TimeLimit:     20 * time.Second,
		Parallelism:   4,
		Requirement:   solver.Requirement{"C": 3, "RW": 3, "LW": 3, "D": 4, "G": 3},
		CategoryOrder: []string{"C", "RW", "LW", "D", "G"},
		Columns:       catalog.DefaultColumns(),
	}
}
