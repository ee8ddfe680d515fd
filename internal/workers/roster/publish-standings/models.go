// internal/workers/roster/publish-standings/models.go
package publishstandings

import "roster-optimizer/internal/models"

type Input struct {
	RunID      string            `json:"runId"`
	Standings  []models.Standing `json:"standings"`
	Recipients []string          `json:"recipients,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSNS   = "sns"
)
