// internal/workers/roster/optimize-group/config.go
package optimizegroup

import (
	"time"

	"roster-optimizer/internal/roster/solver"
)

type Config struct {
	Timeout   time.Duration
	CacheTTL  time.Duration
	TimeLimit time.Duration
	Mode      solver.Mode
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		CacheTTL:  time.Hour,
		TimeLimit: 20 * time.Second,
		Mode:      solver.ModeExact,
	}
}
