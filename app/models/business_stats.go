package models

import "time"

// BusinessStats is an append-only snapshot of a business's aggregate review
// figures. The newest row per business is the current state.
type BusinessStats struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BusinessID  uint      `gorm:"not null;index:idx_business_stats_business_created,priority:1" json:"business_id"`
	ReviewCount int       `gorm:"not null;default:0" json:"review_count"`
	ReviewScore float64   `gorm:"not null;default:0" json:"review_score"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_business_stats_business_created,priority:2" json:"created_at"`
}
