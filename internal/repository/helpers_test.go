package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.ConsentForm{}, &models.ActivityLog{}, &models.Yearbook{}))
	return db
}

func newTestAccount(studentNumber, role string) *models.Account {
	return &models.Account{
		StudentNumber:     studentNumber,
		Email:             studentNumber + "@school.test",
		EncryptedPassword: "cafebabe",
		EncryptionKey:     strings.Repeat("ab", 32),
		IV:                strings.Repeat("cd", 16),
		AccountType:       role,
	}
}
