package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// ConsentRepository persists guardian consent forms, at most one per student number.
type ConsentRepository interface {
	Submit(ctx context.Context, form *models.ConsentForm) error
	GetByStudentNumber(ctx context.Context, studentNumber string) (models.ConsentForm, error)
	List(ctx context.Context) ([]models.ConsentForm, error)
	ListUnflagged(ctx context.Context) ([]string, error)
}

type consentRepository struct {
	db *gorm.DB
}

// NewConsentRepository constructs a consent form repository.
func NewConsentRepository(db *gorm.DB) ConsentRepository {
	return &consentRepository{db: db}
}

// Submit inserts the form and raises the owner's consent flag in one transaction.
// A second form for the same student fails with ErrDuplicate.
func (r *consentRepository) Submit(ctx context.Context, form *models.ConsentForm) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(form).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicate
			}
			return err
		}
		return markConsentFilled(tx, form.StudentNumber)
	})
}

func (r *consentRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (models.ConsentForm, error) {
	var form models.ConsentForm
	if err := r.db.WithContext(ctx).Where("student_number = ?", studentNumber).First(&form).Error; err != nil {
		return models.ConsentForm{}, err
	}
	return form, nil
}

func (r *consentRepository) List(ctx context.Context) ([]models.ConsentForm, error) {
	var forms []models.ConsentForm
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// ListUnflagged returns student numbers that have a consent form while their account flag is still unset.
func (r *consentRepository) ListUnflagged(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.ConsentForm{}).
		Joins("JOIN accounts ON accounts.student_number = consent_forms.student_number").
		Where("accounts.consent_filled = ?", false).
		Order("consent_forms.id ASC").
		Pluck("consent_forms.student_number", &numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}
