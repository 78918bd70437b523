package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.ConsentForm{}, &models.ActivityLog{}, &models.Yearbook{}))
	return db
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
	err     error
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *recordingActivity) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func (r *recordingActivity) last() ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return ActivityEntry{}
	}
	return r.entries[len(r.entries)-1]
}

func newValidator() *validator.Validate {
	return validator.New()
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
