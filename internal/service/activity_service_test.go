package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/repository"
)

type capturePublisher struct {
	subject string
	payload []byte
	err     error
}

func (p *capturePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.payload = data
	return p.err
}

type failingActivityRepo struct{}

func (failingActivityRepo) Create(context.Context, *models.ActivityLog) error {
	return errors.New("database unavailable")
}

func (failingActivityRepo) List(context.Context, repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return nil, 0, errors.New("database unavailable")
}

func TestActivityServiceRecordMasksMetadataAndPublishes(t *testing.T) {
	db := setupServiceDB(t)
	publisher := &capturePublisher{}
	svc := NewActivityService(repository.NewActivityLogRepository(db), publisher, "eybms.activity", nopLogger())

	userID := uint(7)
	err := svc.Record(context.Background(), ActivityEntry{
		UserID:  &userID,
		Action:  ActionLoginStudent,
		Details: "  ",
		Metadata: map[string]interface{}{
			"email": "student@school.test",
			"path":  "/student/yearbooks",
		},
	})
	require.NoError(t, err)

	var stored models.ActivityLog
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, ActionLoginStudent, stored.Action)
	require.Empty(t, stored.Details)
	require.Equal(t, "***", stored.Metadata["email"])
	require.Equal(t, "/student/yearbooks", stored.Metadata["path"])

	require.Equal(t, "eybms.activity", publisher.subject)
	var event dto.ActivityResponse
	require.NoError(t, json.Unmarshal(publisher.payload, &event))
	require.Equal(t, ActionLoginStudent, event.Action)
	require.NotNil(t, event.UserID)
	require.Equal(t, userID, *event.UserID)
}

func TestActivityServicePublishFailureDoesNotFailRecord(t *testing.T) {
	db := setupServiceDB(t)
	publisher := &capturePublisher{err: errors.New("nats down")}
	svc := NewActivityService(repository.NewActivityLogRepository(db), publisher, "eybms.activity", nopLogger())

	require.NoError(t, svc.Record(context.Background(), ActivityEntry{Action: ActionLogout}))

	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(repository.NewActivityLogRepository(setupServiceDB(t)), nil, "", nopLogger())
	require.Error(t, svc.Record(context.Background(), ActivityEntry{Action: "  "}))
}

func TestActivityServiceRecordSurfacesStoreFailure(t *testing.T) {
	svc := NewActivityService(failingActivityRepo{}, nil, "", nopLogger())
	require.Error(t, svc.Record(context.Background(), ActivityEntry{Action: ActionLogout}))

	// audit swallows the failure so the caller's flow continues
	require.NotPanics(t, func() {
		audit(context.Background(), svc, nil, ActionLogout, "")
	})
}

func TestActivityServiceListPaginatesNewestFirst(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewActivityService(repository.NewActivityLogRepository(db), nil, "", nopLogger())
	ctx := context.Background()

	for _, action := range []string{ActionLoginFailed, ActionLoginStudent, ActionLogout} {
		require.NoError(t, svc.Record(ctx, ActivityEntry{Action: action}))
	}

	result, err := svc.List(ctx, dto.ActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, ActionLogout, result.Items[0].Action)
	require.EqualValues(t, 3, result.Pagination.TotalItems)
	require.Equal(t, 2, result.Pagination.TotalPages)

	filtered, err := svc.List(ctx, dto.ActivityListRequest{Action: ActionLoginFailed})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, 1, filtered.Pagination.TotalPages)
}
