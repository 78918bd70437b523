package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

// AccountHandler manages account creation, batch imports, resets and listings.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler constructs an account handler.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register wires account routes.
func (h *AccountHandler) Register(router fiber.Router, gate middleware.Gate) {
	router.Post("/create-account", h.create)
	router.Post("/upload-csv", h.uploadBatch)
	router.Post("/reset-password/:id", gate.API(models.AccountTypeAdmin), h.resetPassword)
	router.Get("/students", gate.API(models.AccountTypeAdmin), h.listByRole(models.AccountTypeStudent))
	router.Get("/committee", gate.API(models.AccountTypeAdmin), h.listByRole(models.AccountTypeCommittee))
	// older admin pages still call the misspelled path
	router.Get("/comittee", gate.API(models.AccountTypeAdmin), h.listByRole(models.AccountTypeCommittee))
}

func (h *AccountHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateAccountRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	account, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, service.ErrInvalidBirthday):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid account details")
		case errors.Is(err, service.ErrDuplicateAccount):
			return utils.SendError(c, fiber.StatusBadRequest, "Account already exists")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create account")
			return utils.SendError(c, fiber.StatusInternalServerError, "Error creating account")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Account created successfully", account)
}

func (h *AccountHandler) uploadBatch(c *fiber.Ctx) error {
	var rows []dto.BatchAccountRow
	if err := c.BodyParser(&rows); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.CreateBatch(c.UserContext(), rows)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Int("created", result.Created).Msg("account batch aborted")
		return utils.Fail(c, fiber.StatusInternalServerError, "Error creating accounts", result)
	}

	if len(result.Duplicates) > 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "Some accounts already exist", result)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Accounts created successfully", result)
}

func (h *AccountHandler) resetPassword(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid account id")
	}

	if err := h.service.ResetPassword(c.UserContext(), uint(id), actorFromContext(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		case errors.Is(err, service.ErrBirthdayMissing):
			return utils.SendError(c, fiber.StatusNotFound, "Birthday not found for this student")
		case errors.Is(err, service.ErrCorruptCredential):
			return utils.SendError(c, fiber.StatusBadRequest, "Stored credential material is invalid or corrupted")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint64("account_id", id).Msg("failed to reset password")
			return utils.SendError(c, fiber.StatusInternalServerError, "Error resetting password")
		}
	}

	return utils.SendSuccess(c, "Password reset successfully", nil)
}

func (h *AccountHandler) listByRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accounts, err := h.service.ListByRole(c.UserContext(), role)
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Str("role", role).Msg("failed to list accounts")
			return utils.SendError(c, fiber.StatusInternalServerError, "Error fetching accounts")
		}
		return utils.SendSuccess(c, "accounts retrieved", accounts)
	}
}
