package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Business is a connected Google Business Profile owned by a user.
// MinimumScore filters which reviews are served through the public API.
type Business struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	PlaceID      string         `gorm:"type:varchar(191);not null;index" json:"place_id"`
	Address      string         `gorm:"type:varchar(500)" json:"address"`
	MinimumScore int            `gorm:"default:0" json:"minimum_score"`
	APICallCount uint64         `gorm:"default:0" json:"api_call_count"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == "" {
		b.UUID = uuid.New().String()
	}
	return nil
}
