package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/bragfeed/bragfeed/app/models"
)

// usageEventRepository implements the UsageEventRepository interface
type usageEventRepository struct {
	db *gorm.DB
}

// NewUsageEventRepository creates a new usage event repository instance
func NewUsageEventRepository(db *gorm.DB) UsageEventRepository {
	return &usageEventRepository{db: db}
}

func (r *usageEventRepository) Record(userID uint, event string, businessID uint) error {
	return r.db.Create(&models.UsageEvent{
		UserID:     userID,
		Event:      event,
		BusinessID: businessID,
	}).Error
}

func (r *usageEventRepository) CountByUserAndEvent(userID uint, event string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UsageEvent{}).
		Where("user_id = ? AND event = ?", userID, event).
		Count(&count).Error
	return count, err
}

func (r *usageEventRepository) CountByUserAndEventSince(userID uint, event string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.UsageEvent{}).
		Where("user_id = ? AND event = ? AND timestamp >= ?", userID, event, since).
		Count(&count).Error
	return count, err
}

// FirstTimestamp returns when the user generated their first event, or nil.
func (r *usageEventRepository) FirstTimestamp(userID uint, event string) (*time.Time, error) {
	var ev models.UsageEvent
	err := r.db.Where("user_id = ? AND event = ?", userID, event).
		Order("timestamp ASC").First(&ev).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ev.Timestamp, nil
}

// Latest returns the most recent event for the user, or nil.
func (r *usageEventRepository) Latest(userID uint, event string) (*models.UsageEvent, error) {
	var ev models.UsageEvent
	err := r.db.Where("user_id = ? AND event = ?", userID, event).
		Order("timestamp DESC").First(&ev).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

// CountPerBusiness aggregates event counts grouped by business.
func (r *usageEventRepository) CountPerBusiness(userID uint, event string) (map[uint]int64, error) {
	var rows []struct {
		BusinessID uint
		Total      int64
	}
	err := r.db.Model(&models.UsageEvent{}).
		Select("business_id, COUNT(*) AS total").
		Where("user_id = ? AND event = ?", userID, event).
		Group("business_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.BusinessID] = row.Total
	}
	return out, nil
}
