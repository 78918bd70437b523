package models

import "time"

// Yearbook mirrors one catalog item from the external CMS, keyed by its external id.
type Yearbook struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	YearbookID int64     `gorm:"uniqueIndex;not null" json:"yearbookId"`
	Title      string    `gorm:"size:512" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	Status     string    `gorm:"size:32;index" json:"status"`
	SyncedAt   time.Time `json:"syncedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
