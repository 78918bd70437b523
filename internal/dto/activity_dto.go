package dto

import (
	"time"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// ActivityListRequest defines filters for retrieving activity logs.
type ActivityListRequest struct {
	Page     int
	PageSize int
	UserID   uint
	Action   string
}

// ActivityResponse serialises an activity log entry.
type ActivityResponse struct {
	ID        uint                   `json:"id"`
	UserID    *uint                  `json:"userId"`
	Action    string                 `json:"action"`
	Details   string                 `json:"details"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an activity log model into a DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	var metadata map[string]interface{}
	if len(entry.Metadata) > 0 {
		metadata = map[string]interface{}(entry.Metadata)
	}
	return ActivityResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   entry.Details,
		Metadata:  metadata,
		CreatedAt: entry.CreatedAt,
	}
}
