package models

import "time"

// SubscriptionPayment records one successfully paid invoice. InvoiceID is
// unique so redelivered invoice.payment_succeeded webhooks cannot insert a
// second row for the same invoice.
type SubscriptionPayment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	StripeCustomerID  string    `gorm:"type:varchar(191);not null;index" json:"stripe_customer_id"`
	InvoiceID         string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"invoice_id"`
	Amount            int64     `gorm:"not null" json:"amount"`
	Currency          string    `gorm:"type:varchar(8);not null" json:"currency"`
	BillingReason     string    `gorm:"type:varchar(100)" json:"billing_reason"`
	SubscriptionStart time.Time `gorm:"type:timestamp;not null" json:"subscription_start"`
	SubscriptionEnd   time.Time `gorm:"type:timestamp;not null" json:"subscription_end"`
	CreatedAt         time.Time `gorm:"type:timestamp" json:"created_at"`
}
