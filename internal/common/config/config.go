// internal/common/config/config.go
package config

import (
	"fmt"

	"roster-optimizer/internal/models"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Solver        SolverConfig            `mapstructure:"solver"`
	Input         InputConfig             `mapstructure:"input"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Server        ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	StandingsIndex string   `mapstructure:"standings_index"`
}

// GetURL returns the first configured address.
func (e ElasticsearchConfig) GetURL() string {
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Roster Configuration ---

// SolverConfig controls how each group is solved.
type SolverConfig struct {
	Capacity    []models.CapacitySlot `mapstructure:"capacity"`
	Mode        string                `mapstructure:"mode"` // exact | greedy
	Parallelism int                   `mapstructure:"parallelism"`
	TimeLimitMs int                   `mapstructure:"time_limit_ms"` // 0 disables the limit
}

// Requirement returns the capacity as a category -> slots map.
func (s SolverConfig) Requirement() map[string]int {
	req := make(map[string]int, len(s.Capacity))
	for _, slot := range s.Capacity {
		req[slot.Category] += slot.Slots
	}
	return req
}

// CategoryOrder returns the capacity categories in configured order.
func (s SolverConfig) CategoryOrder() []string {
	order := make([]string, 0, len(s.Capacity))
	seen := make(map[string]bool, len(s.Capacity))
	for _, slot := range s.Capacity {
		if seen[slot.Category] {
			continue
		}
		seen[slot.Category] = true
		order = append(order, slot.Category)
	}
	return order
}

// InputConfig maps league export columns onto candidate fields.
type InputConfig struct {
	Columns   ColumnConfig `mapstructure:"columns"`
	Delimiter string       `mapstructure:"delimiter"`
	Strict    bool         `mapstructure:"strict"`
}

type ColumnConfig struct {
	ID           string `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Group        string `mapstructure:"group"`
	Categories   string `mapstructure:"categories"`
	Value        string `mapstructure:"value"`
	Affiliation  string `mapstructure:"affiliation"`
	RosterStatus string `mapstructure:"roster_status"`
}

// NotificationConfig holds settings for the publish-standings worker.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled    bool     `mapstructure:"enabled"`
		FromEmail  string   `mapstructure:"from_email"`
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}
