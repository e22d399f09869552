package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/bragfeed/bragfeed/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
}

// BusinessRepository defines the interface for business-related database operations
type BusinessRepository interface {
	Create(business *models.Business) error
	GetByID(id uint) (*models.Business, error)
	GetOwned(uuid string, userID uint) (*models.Business, error)
	ListByUserID(userID uint) ([]models.Business, error)
	ListAll() ([]models.Business, error)
	Update(business *models.Business) error
	UpdateMinimumScore(id uint, userID uint, minimumScore int) (bool, error)
	Delete(id uint) error

	UpsertReviews(businessID uint, reviews []models.Review) error
	ListReviews(businessID uint, minimumScore int) ([]models.Review, error)
	CountReviews(businessID uint) (int64, error)
	LatestReviewTime(businessID uint) (*time.Time, error)

	CreateStatsSnapshot(stats *models.BusinessStats) error
	LatestStats(businessID uint) (*models.BusinessStats, error)
}

// UsageEventRepository defines the interface for usage tracking operations
type UsageEventRepository interface {
	Record(userID uint, event string, businessID uint) error
	CountByUserAndEvent(userID uint, event string) (int64, error)
	CountByUserAndEventSince(userID uint, event string, since time.Time) (int64, error)
	FirstTimestamp(userID uint, event string) (*time.Time, error)
	Latest(userID uint, event string) (*models.UsageEvent, error)
	CountPerBusiness(userID uint, event string) (map[uint]int64, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User     UserRepository
	Business BusinessRepository
	Usage    UsageEventRepository
}

// NewRepositories creates all repositories with the given database connection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Business: NewBusinessRepository(db),
		Usage:    NewUsageEventRepository(db),
	}
}
