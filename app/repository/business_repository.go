package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bragfeed/bragfeed/app/models"
)

// businessRepository implements the BusinessRepository interface
type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository creates a new business repository instance
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(business *models.Business) error {
	return r.db.Create(business).Error
}

func (r *businessRepository) GetByID(id uint) (*models.Business, error) {
	var business models.Business
	err := r.db.First(&business, id).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetOwned retrieves a business by its public UUID only if it belongs to the
// given user. A foreign UUID reads the same as a missing one.
func (r *businessRepository) GetOwned(uuid string, userID uint) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("uuid = ? AND user_id = ?", uuid, userID).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) ListByUserID(userID uint) ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&businesses).Error
	return businesses, err
}

func (r *businessRepository) ListAll() ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.Find(&businesses).Error
	return businesses, err
}

func (r *businessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}

// UpdateMinimumScore updates the review filter threshold, scoped to the
// owning user. Returns false when no matching business exists.
func (r *businessRepository) UpdateMinimumScore(id uint, userID uint, minimumScore int) (bool, error) {
	tx := r.db.Model(&models.Business{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("minimum_score", minimumScore)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *businessRepository) Delete(id uint) error {
	return r.db.Delete(&models.Business{}, id).Error
}

// UpsertReviews inserts fetched reviews, updating rows already present for
// the same (business, link) pair so refreshes do not duplicate.
func (r *businessRepository) UpsertReviews(businessID uint, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	for i := range reviews {
		reviews[i].BusinessID = businessID
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "business_id"},
			{Name: "link"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"author_name",
			"author_image",
			"datetime",
			"rating",
			"comments",
			"updated_at",
		}),
	}).Create(&reviews).Error
}

// ListReviews returns reviews at or above the minimum score, newest first.
func (r *businessRepository) ListReviews(businessID uint, minimumScore int) ([]models.Review, error) {
	var reviews []models.Review
	query := r.db.Where("business_id = ?", businessID)
	if minimumScore > 0 {
		query = query.Where("rating >= ?", minimumScore)
	}
	err := query.Order("datetime DESC").Find(&reviews).Error
	return reviews, err
}

func (r *businessRepository) CountReviews(businessID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Review{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}

// LatestReviewTime returns the created_at of the most recently stored review,
// used as the last-refreshed marker.
func (r *businessRepository) LatestReviewTime(businessID uint) (*time.Time, error) {
	var review models.Review
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").First(&review).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &review.CreatedAt, nil
}

func (r *businessRepository) CreateStatsSnapshot(stats *models.BusinessStats) error {
	return r.db.Create(stats).Error
}

// LatestStats returns the newest stats snapshot, or nil when none exists.
func (r *businessRepository) LatestStats(businessID uint) (*models.BusinessStats, error) {
	var stats models.BusinessStats
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").First(&stats).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}
