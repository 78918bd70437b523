package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

// ConnectPostgres opens the EYBMS store. Driver errors are translated so a second account or consent form
// for the same student number surfaces as gorm.ErrDuplicatedKey.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the account, consent form, activity log and yearbook mirror tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.ConsentForm{},
		&models.ActivityLog{},
		&models.Yearbook{},
	); err != nil {
		return fmt.Errorf("migrate eybms schema: %w", err)
	}
	return nil
}
