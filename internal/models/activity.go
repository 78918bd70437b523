package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit entry. UserID is nil for anonymous or system events.
type ActivityLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    *uint             `gorm:"index" json:"userId"`
	Action    string            `gorm:"size:255;not null" json:"action"`
	Details   string            `gorm:"type:text" json:"details"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
}
