package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/observability"
	"github.com/noah-isme/eybms-go-api/internal/repository"
)

// Activity labels written to the audit trail.
const (
	ActionAccountCreated        = "Account created"
	ActionAccountCreateError    = "Error creating account"
	ActionLoginFailed           = "Login failed"
	ActionLoginError            = "Error logging in"
	ActionLoginChangePassword   = "Student redirected to change password page"
	ActionLoginConsentForm      = "Student redirected to consent form"
	ActionLoginStudent          = "Logged in as student"
	ActionLoginAdmin            = "Logged in as admin"
	ActionLoginCommittee        = "Logged in as committee"
	ActionLogout                = "Logged out"
	ActionPasswordChanged       = "Password changed"
	ActionPasswordChangeFailed  = "Password change failed"
	ActionPasswordReset         = "Password reset"
	ActionPasswordResetFailed   = "Password reset failed"
	ActionConsentFilled         = "Consent fill"
	ActionConsentFillFailed     = "Consent fill failed"
	ActionConsentSaveError      = "Error saving consent form"
	ActionConsentFetched        = "Fetch consent form data"
	ActionConsentFetchError     = "Error fetching consent forms"
	ActionConsentReconciled     = "Consent flag reconciled"
	ActionUnauthorizedAccess    = "Unauthorized access attempt"
	ActionCatalogSyncFailed     = "Catalog sync failed"
	ActionAccountsListed        = "Fetch account list"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	UserID   *uint
	Action   string
	Details  string
	Metadata map[string]interface{}
}

// ActivityRecorder appends entries to the audit trail.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityPublisher fans persisted entries out to a message broker. *nats.Conn satisfies it.
type ActivityPublisher interface {
	Publish(subject string, data []byte) error
}

// ActivityService records and lists activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	publisher ActivityPublisher
	subject   string
	logger    zerolog.Logger
}

// NewActivityService constructs the activity log service. publisher may be nil.
func NewActivityService(repo repository.ActivityLogRepository, publisher ActivityPublisher, subject string, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		publisher: publisher,
		subject:   subject,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

// Record persists the entry. Failures are logged and counted; callers treat them as non-fatal.
func (s *activityService) Record(ctx context.Context, entry ActivityEntry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return fmt.Errorf("action is required")
	}

	model := models.ActivityLog{
		UserID:   entry.UserID,
		Action:   action,
		Details:  strings.TrimSpace(entry.Details),
		Metadata: sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		observability.ActivityLogFailures().Inc()
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist activity log")
		return err
	}

	s.publish(model)
	return nil
}

func (s *activityService) publish(entry models.ActivityLog) {
	if s.publisher == nil || s.subject == "" {
		return
	}

	payload, err := json.Marshal(dto.NewActivityResponse(entry))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode activity event")
		return
	}
	if err := s.publisher.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.subject).Msg("failed to publish activity event")
	}
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Action:   strings.TrimSpace(req.Action),
	}
	if req.UserID > 0 {
		filter.UserID = &req.UserID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.ActivityListResponse{Items: responses, Pagination: pagination}, nil
}

// audit records an entry and swallows the error; the recorder already logged it.
func audit(ctx context.Context, recorder ActivityRecorder, userID *uint, action, details string) {
	if recorder == nil {
		return
	}
	_ = recorder.Record(ctx, ActivityEntry{UserID: userID, Action: action, Details: details})
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if len(metadata) == 0 {
		return nil
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func uintPtr(v uint) *uint {
	return &v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
