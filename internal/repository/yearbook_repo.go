package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// YearbookRepository stores the local mirror of the external catalog.
type YearbookRepository interface {
	Upsert(ctx context.Context, yearbook *models.Yearbook) error
	GetByExternalID(ctx context.Context, externalID int64) (models.Yearbook, error)
	List(ctx context.Context) ([]models.Yearbook, error)
}

type yearbookRepository struct {
	db *gorm.DB
}

// NewYearbookRepository constructs the yearbook mirror repository.
func NewYearbookRepository(db *gorm.DB) YearbookRepository {
	return &yearbookRepository{db: db}
}

// Upsert inserts the item or overwrites the mirrored fields of the row with the same external id.
func (r *yearbookRepository) Upsert(ctx context.Context, yearbook *models.Yearbook) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "yearbook_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "status", "synced_at", "updated_at"}),
	}).Create(yearbook).Error
}

func (r *yearbookRepository) GetByExternalID(ctx context.Context, externalID int64) (models.Yearbook, error) {
	var yearbook models.Yearbook
	if err := r.db.WithContext(ctx).Where("yearbook_id = ?", externalID).First(&yearbook).Error; err != nil {
		return models.Yearbook{}, err
	}
	return yearbook, nil
}

func (r *yearbookRepository) List(ctx context.Context) ([]models.Yearbook, error) {
	var yearbooks []models.Yearbook
	if err := r.db.WithContext(ctx).Order("yearbook_id DESC").Find(&yearbooks).Error; err != nil {
		return nil, err
	}
	return yearbooks, nil
}
