// internal/workers/roster/index-standings/config.go
package indexstandings

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Index:   "roster-standings",
	}
}
