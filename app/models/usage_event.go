package models

import "time"

// Usage event names recorded against the public API.
const (
	EventAPIResponse = "api_response"
)

// UsageEvent tracks product usage for the dashboard statistics. One row per
// served API response, attributed to the business whose data was served.
type UsageEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index:idx_usage_events_user_event,priority:1" json:"user_id"`
	Event      string    `gorm:"type:varchar(100);not null;index:idx_usage_events_user_event,priority:2" json:"event"`
	BusinessID uint      `gorm:"index" json:"business_id"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
