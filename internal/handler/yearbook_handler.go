package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

// YearbookHandler serves the mirrored catalog.
type YearbookHandler struct {
	service service.YearbookService
	logger  zerolog.Logger
}

// NewYearbookHandler constructs a yearbook handler.
func NewYearbookHandler(service service.YearbookService, logger zerolog.Logger) *YearbookHandler {
	return &YearbookHandler{
		service: service,
		logger:  logger.With().Str("component", "yearbook_handler").Logger(),
	}
}

// Register wires yearbook routes.
func (h *YearbookHandler) Register(router fiber.Router, gate middleware.Gate) {
	router.Get("/admin/yearbooks", gate.Page(models.AccountTypeAdmin), h.list)
	router.Get("/student/yearbooks", gate.Page(models.AccountTypeStudent), h.list)
	router.Get("/yearbook/:id", h.refresh)
	router.Get("/studentyearbook/:id", h.refresh)
}

func (h *YearbookHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list yearbooks")
		return utils.SendError(c, fiber.StatusInternalServerError, "Error fetching yearbooks")
	}
	return utils.SendSuccess(c, "yearbooks retrieved", result)
}

func (h *YearbookHandler) refresh(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid yearbook id")
	}

	item, err := h.service.Refresh(c.UserContext(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrYearbookNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Yearbook not found")
		case errors.Is(err, service.ErrCatalogUnavailable):
			requestLogger(h.logger, c).Warn().Err(err).Int64("yearbook_id", id).Msg("catalog unavailable")
			return utils.SendError(c, fiber.StatusBadGateway, "Error fetching yearbook data")
		default:
			requestLogger(h.logger, c).Error().Err(err).Int64("yearbook_id", id).Msg("failed to store yearbook")
			return utils.SendError(c, fiber.StatusInternalServerError, "Error saving yearbook data")
		}
	}

	return utils.SendSuccess(c, "yearbook refreshed", item)
}
