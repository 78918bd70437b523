package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

const (
	defaultActivityPageSize = 20
	maxActivityPageSize     = 100
)

// ActivityHandler exposes the audit trail to administrators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the activity log handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity log routes.
func (h *ActivityHandler) Register(router fiber.Router, gate middleware.Gate) {
	router.Get("/activity-logs", gate.API(models.AccountTypeAdmin), h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page parameter")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size parameter")
	}
	userID, err := parseQueryInt(c, "user_id")
	if err != nil || userID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id parameter")
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultActivityPageSize
	}
	if pageSize > maxActivityPageSize {
		pageSize = maxActivityPageSize
	}

	result, err := h.service.List(c.UserContext(), dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Action:   c.Query("action"),
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activity logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch activity logs")
	}

	return utils.SendSuccess(c, "activity logs retrieved", result)
}
