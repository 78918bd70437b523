package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// AccountRepository persists login identities.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByStudentNumber(ctx context.Context, studentNumber string) (models.Account, error)
	GetByID(ctx context.Context, id uint) (models.Account, error)
	UpdateCredentials(ctx context.Context, account *models.Account) error
	MarkConsentFilled(ctx context.Context, studentNumber string) error
	ListByRole(ctx context.Context, role string) ([]models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository constructs an account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *accountRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("student_number = ?", studentNumber).First(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// UpdateCredentials writes only the password material and the password-changed flag,
// leaving the consent flag to its own writer.
func (r *accountRepository) UpdateCredentials(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"encrypted_password": account.EncryptedPassword,
			"encryption_key":     account.EncryptionKey,
			"iv":                 account.IV,
			"password_changed":   account.PasswordChanged,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *accountRepository) MarkConsentFilled(ctx context.Context, studentNumber string) error {
	return markConsentFilled(r.db.WithContext(ctx), studentNumber)
}

func (r *accountRepository) ListByRole(ctx context.Context, role string) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("account_type = ?", role).
		Order("id ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func markConsentFilled(tx *gorm.DB, studentNumber string) error {
	result := tx.Model(&models.Account{}).
		Where("student_number = ?", studentNumber).
		Update("consent_filled", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
