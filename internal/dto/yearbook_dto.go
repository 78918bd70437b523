package dto

import (
	"time"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// YearbookResponse serialises a mirrored catalog item.
type YearbookResponse struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Status   string    `json:"status"`
	SyncedAt time.Time `json:"syncedAt"`
}

// YearbookListResponse wraps the mirrored catalog.
type YearbookListResponse struct {
	Items []YearbookResponse `json:"items"`
}

// NewYearbookResponse converts the mirror row into a DTO keyed by the external id.
func NewYearbookResponse(yearbook models.Yearbook) YearbookResponse {
	return YearbookResponse{
		ID:       yearbook.YearbookID,
		Title:    yearbook.Title,
		Content:  yearbook.Content,
		Status:   yearbook.Status,
		SyncedAt: yearbook.SyncedAt,
	}
}
