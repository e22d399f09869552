package models

import "time"

// Review is a Google review fetched for a business. Rows are upserted on
// refresh keyed by (business_id, link) so re-fetching does not duplicate.
type Review struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	BusinessID  uint       `gorm:"not null;index;index:ux_reviews_business_link,unique,priority:1" json:"business_id"`
	AuthorName  string     `gorm:"type:varchar(255)" json:"author_name"`
	AuthorImage string     `gorm:"type:varchar(500)" json:"author_image"`
	Datetime    *time.Time `gorm:"type:timestamp;default:null;index" json:"datetime"`
	Link        string     `gorm:"type:varchar(191);not null;index:ux_reviews_business_link,unique,priority:2" json:"link"`
	Rating      int        `gorm:"not null" json:"rating"`
	Comments    string     `gorm:"type:text" json:"comments"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
