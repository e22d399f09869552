package ratelimit

import (
	"time"

	"gorm.io/gorm"

	"github.com/bragfeed/bragfeed/app/models"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a rate-limit event store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CountSince(userID uint, eventType string, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.RateLimitEvent{}).
		Where("user_id = ? AND event_type = ? AND timestamp >= ?", userID, eventType, since).
		Count(&count).Error
	return count, err
}

func (s *gormStore) Record(userID uint, eventType string) error {
	return s.db.Create(&models.RateLimitEvent{
		UserID:    userID,
		EventType: eventType,
	}).Error
}
