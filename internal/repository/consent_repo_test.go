package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

func TestConsentRepositorySubmitMarksAccount(t *testing.T) {
	db := setupTestDB(t)
	accounts := NewAccountRepository(db)
	repo := NewConsentRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, newTestAccount("2021001", models.AccountTypeStudent)))

	form := &models.ConsentForm{StudentNumber: "2021001", StudentName: "Ana Cruz", Status: "approved", FilledAt: time.Now()}
	require.NoError(t, repo.Submit(ctx, form))

	account, err := accounts.GetByStudentNumber(ctx, "2021001")
	require.NoError(t, err)
	require.True(t, account.ConsentFilled)
}

func TestConsentRepositoryRejectsSecondForm(t *testing.T) {
	db := setupTestDB(t)
	accounts := NewAccountRepository(db)
	repo := NewConsentRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, newTestAccount("2021001", models.AccountTypeStudent)))
	require.NoError(t, repo.Submit(ctx, &models.ConsentForm{StudentNumber: "2021001", StudentName: "Ana Cruz", Relationship: "Mother"}))

	err := repo.Submit(ctx, &models.ConsentForm{StudentNumber: "2021001", StudentName: "Someone Else", Relationship: "Uncle"})
	require.ErrorIs(t, err, ErrDuplicate)

	stored, err := repo.GetByStudentNumber(ctx, "2021001")
	require.NoError(t, err)
	require.Equal(t, "Ana Cruz", stored.StudentName)
	require.Equal(t, "Mother", stored.Relationship)

	forms, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, forms, 1)
}

func TestConsentRepositorySubmitRollsBackWithoutAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConsentRepository(db)
	ctx := context.Background()

	err := repo.Submit(ctx, &models.ConsentForm{StudentNumber: "ghost", StudentName: "Nobody"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByStudentNumber(ctx, "ghost")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConsentRepositoryListUnflagged(t *testing.T) {
	db := setupTestDB(t)
	accounts := NewAccountRepository(db)
	repo := NewConsentRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, newTestAccount("ok", models.AccountTypeStudent)))
	require.NoError(t, accounts.Create(ctx, newTestAccount("stale", models.AccountTypeStudent)))
	require.NoError(t, repo.Submit(ctx, &models.ConsentForm{StudentNumber: "ok", StudentName: "Ok"}))

	// Simulates a form written by a store without transactions whose flag update never landed.
	require.NoError(t, db.Create(&models.ConsentForm{StudentNumber: "stale", StudentName: "Stale"}).Error)

	numbers, err := repo.ListUnflagged(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"stale"}, numbers)
}
