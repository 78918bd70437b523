package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/repository"
)

// ConsentService records guardian consent and keeps the account flag consistent with it.
type ConsentService interface {
	Fill(ctx context.Context, req dto.ConsentFillRequest) (dto.ConsentFillResponse, error)
	List(ctx context.Context, actorID *uint) ([]dto.ConsentFormResponse, error)
	Reconcile(ctx context.Context) (int, error)
}

type consentService struct {
	consents  repository.ConsentRepository
	accounts  repository.AccountRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewConsentService constructs the consent workflow.
func NewConsentService(consents repository.ConsentRepository, accounts repository.AccountRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ConsentService {
	return &consentService{
		consents:  consents,
		accounts:  accounts,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "consent_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/eybms-go-api/internal/service/consent"),
		now:       time.Now,
	}
}

func (s *consentService) Fill(ctx context.Context, req dto.ConsentFillRequest) (dto.ConsentFillResponse, error) {
	ctx, span := s.tracer.Start(ctx, "consent.fill")
	defer span.End()

	req = s.sanitize(req)
	if err := s.validator.Struct(req); err != nil {
		audit(ctx, s.activity, nil, ActionConsentFillFailed, "invalid consent form for "+req.StudentNumber)
		return dto.ConsentFillResponse{}, err
	}
	span.SetAttributes(attribute.String("consent.student_number", req.StudentNumber))

	account, err := s.accounts.GetByStudentNumber(ctx, req.StudentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			audit(ctx, s.activity, nil, ActionConsentFillFailed, "Student "+req.StudentNumber+" not found")
			return dto.ConsentFillResponse{}, ErrAccountNotFound
		}
		audit(ctx, s.activity, nil, ActionConsentSaveError, err.Error())
		return dto.ConsentFillResponse{}, err
	}
	actorID := uintPtr(account.ID)

	if _, err := s.consents.GetByStudentNumber(ctx, req.StudentNumber); err == nil {
		if !account.ConsentFilled {
			s.repairFlag(ctx, req.StudentNumber)
		}
		audit(ctx, s.activity, actorID, ActionConsentFillFailed, "Consent form already exists")
		return dto.ConsentFillResponse{}, ErrConsentAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		audit(ctx, s.activity, actorID, ActionConsentSaveError, err.Error())
		return dto.ConsentFillResponse{}, err
	}

	form := models.ConsentForm{
		StudentNumber:      req.StudentNumber,
		StudentName:        req.StudentName,
		GradeSection:       req.GradeSection,
		ParentGuardianName: req.ParentGuardianName,
		Relationship:       req.Relationship,
		ContactNo:          req.ContactNo,
		Status:             req.FormStatus,
		FilledAt:           s.now(),
	}

	if err := s.consents.Submit(ctx, &form); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			audit(ctx, s.activity, actorID, ActionConsentFillFailed, "Consent form already exists")
			return dto.ConsentFillResponse{}, ErrConsentAlreadyExists
		}
		audit(ctx, s.activity, actorID, ActionConsentSaveError, err.Error())
		return dto.ConsentFillResponse{}, err
	}

	audit(ctx, s.activity, actorID, ActionConsentFilled, "Consent form filled successfully")
	return dto.ConsentFillResponse{RedirectURL: RedirectStudentHome}, nil
}

func (s *consentService) List(ctx context.Context, actorID *uint) ([]dto.ConsentFormResponse, error) {
	forms, err := s.consents.List(ctx)
	if err != nil {
		audit(ctx, s.activity, actorID, ActionConsentFetchError, err.Error())
		return nil, err
	}

	items := make([]dto.ConsentFormResponse, 0, len(forms))
	for _, form := range forms {
		items = append(items, dto.NewConsentFormResponse(form))
	}

	audit(ctx, s.activity, actorID, ActionConsentFetched, "")
	return items, nil
}

// Reconcile raises the consent flag on every account that already owns a form. It returns the number repaired.
func (s *consentService) Reconcile(ctx context.Context) (int, error) {
	numbers, err := s.consents.ListUnflagged(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, number := range numbers {
		if s.repairFlag(ctx, number) {
			repaired++
		}
	}

	if repaired > 0 {
		s.logger.Info().Int("repaired", repaired).Msg("consent flags reconciled")
	}
	return repaired, nil
}

func (s *consentService) repairFlag(ctx context.Context, studentNumber string) bool {
	if err := s.accounts.MarkConsentFilled(ctx, studentNumber); err != nil {
		s.logger.Warn().Err(err).Str("student_number", studentNumber).Msg("failed to repair consent flag")
		return false
	}
	audit(ctx, s.activity, nil, ActionConsentReconciled, "consent flag set for "+studentNumber)
	return true
}

func (s *consentService) sanitize(req dto.ConsentFillRequest) dto.ConsentFillRequest {
	// markup is dropped but the text itself is stored as typed
	clean := func(value string) string {
		return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
	}
	req.StudentNumber = strings.TrimSpace(req.StudentNumber)
	req.StudentName = clean(req.StudentName)
	req.GradeSection = clean(req.GradeSection)
	req.ParentGuardianName = clean(req.ParentGuardianName)
	req.Relationship = clean(req.Relationship)
	req.ContactNo = clean(req.ContactNo)
	req.FormStatus = clean(req.FormStatus)
	return req
}
