package models

import "time"

// RateLimitEvent is one admitted request in the durable rate-limit log.
// Append-only; one row per admitted call, never updated or deleted here.
// Retention is handled by an external pruning job.
type RateLimitEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_rate_limit_events_window,priority:1" json:"user_id"`
	EventType string    `gorm:"type:varchar(100);not null;index:idx_rate_limit_events_window,priority:2" json:"event_type"`
	Timestamp time.Time `gorm:"autoCreateTime;index:idx_rate_limit_events_window,priority:3" json:"timestamp"`
}
