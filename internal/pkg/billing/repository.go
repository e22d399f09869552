package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bragfeed/bragfeed/app/models"
)

// Repository provides DB operations used by the webhook reconciler.
type Repository interface {
	LinkStripeCustomer(userID uint, customerID string) error
	FindUserIDByStripeCustomer(customerID string) (uint, error)
	MarkSubscriptionActive(userID uint) error
	CreateSubscriptionPaymentIfNotExists(payment *models.SubscriptionPayment) (bool, error)
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) LinkStripeCustomer(userID uint, customerID string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"stripe_customer_id":      customerID,
			"has_active_subscription": true,
		}).Error
}

func (r *gormRepository) FindUserIDByStripeCustomer(customerID string) (uint, error) {
	var user models.User
	err := r.db.Select("id").Where("stripe_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r *gormRepository) MarkSubscriptionActive(userID uint) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("has_active_subscription", true).Error
}

func (r *gormRepository) CreateSubscriptionPaymentIfNotExists(payment *models.SubscriptionPayment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "invoice_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
