// internal/workers/roster/publish-standings/config.go
package publishstandings

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	FromEmail    string
	Recipients   []string
	SNSEnabled   bool
	TopicARN     string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
