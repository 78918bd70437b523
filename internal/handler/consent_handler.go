package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/observability"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

// ConsentHandler accepts consent submissions and serves them to reviewers.
type ConsentHandler struct {
	service  service.ConsentService
	activity service.ActivityRecorder
	logger   zerolog.Logger
}

// NewConsentHandler constructs a consent handler.
func NewConsentHandler(service service.ConsentService, activity service.ActivityRecorder, logger zerolog.Logger) *ConsentHandler {
	return &ConsentHandler{
		service:  service,
		activity: activity,
		logger:   logger.With().Str("component", "consent_handler").Logger(),
	}
}

// Register wires consent routes.
func (h *ConsentHandler) Register(router fiber.Router, gate middleware.Gate) {
	router.Post("/consent-fill", gate.API(models.AccountTypeStudent), h.fill)
	router.Get("/consentformfetch", gate.API(models.AccountTypeAdmin, models.AccountTypeCommittee), h.list)
}

func (h *ConsentHandler) fill(c *fiber.Ctx) error {
	sess, _ := middleware.SessionFromContext(c)

	var payload dto.ConsentFillRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// students may only submit their own form
	if strings.TrimSpace(payload.StudentNumber) != sess.User.StudentNumber {
		observability.ForbiddenRequests().WithLabelValues(c.Path()).Inc()
		if h.activity != nil {
			userID := sess.User.AccountID
			_ = h.activity.Record(c.UserContext(), service.ActivityEntry{
				UserID:  &userID,
				Action:  service.ActionUnauthorizedAccess,
				Details: fmt.Sprintf("Attempted to access %s for another student", c.Path()),
			})
		}
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	}

	response, err := h.service.Fill(c.UserContext(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid consent form")
		case errors.Is(err, service.ErrAccountNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "Student not found")
		case errors.Is(err, service.ErrConsentAlreadyExists):
			return utils.SendError(c, fiber.StatusBadRequest, "Consent form for this student already filled")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to save consent form")
			return utils.SendError(c, fiber.StatusInternalServerError, "Error saving consent form")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Consent filled successfully", response)
}

func (h *ConsentHandler) list(c *fiber.Ctx) error {
	forms, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch consent forms")
		return utils.SendError(c, fiber.StatusInternalServerError, "Error fetching consent forms")
	}
	return utils.SendSuccess(c, "consent forms retrieved", forms)
}
