package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/session"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

// CookieConfig describes the session cookie handed to browsers.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// AuthHandler serves login, logout, session status and password changes.
type AuthHandler struct {
	accounts service.AccountService
	sessions session.Store
	activity service.ActivityRecorder
	cookie   CookieConfig
	logger   zerolog.Logger
}

// NewAuthHandler constructs the authentication handler.
func NewAuthHandler(accounts service.AccountService, sessions session.Store, activity service.ActivityRecorder, cookie CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		activity: activity,
		cookie:   cookie,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires authentication routes. loginGuards run before the login handler.
func (h *AuthHandler) Register(router fiber.Router, gate middleware.Gate, loginGuards ...fiber.Handler) {
	router.Post("/loginroute", append(loginGuards, h.login)...)
	router.Post("/logout", gate.API(), h.logout)
	router.Get("/check-auth", h.checkAuth)
	router.Post("/change-password", gate.API(), h.changePassword)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.accounts.Login(c.UserContext(), payload)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.SendError(c, fiber.StatusBadRequest, "Invalid student number or password")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "Error logging in")
	}

	if previous := c.Cookies(h.cookie.Name); previous != "" {
		if err := h.sessions.Destroy(c.UserContext(), previous); err != nil {
			requestLogger(h.logger, c).Warn().Err(err).Msg("failed to drop previous session")
		}
	}

	sess, err := h.sessions.Create(c.UserContext(), session.SnapshotFromAccount(result.Account))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create session")
		return utils.SendError(c, fiber.StatusInternalServerError, "Error logging in")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return utils.SendSuccess(c, "Login successful", dto.LoginResponse{
		RedirectURL: result.RedirectURL,
		AccountType: result.Account.AccountType,
	})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	sess, _ := middleware.SessionFromContext(c)

	if err := h.sessions.Destroy(c.UserContext(), sess.Token); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to destroy session")
		return utils.SendError(c, fiber.StatusInternalServerError, "Error logging out")
	}

	c.ClearCookie(h.cookie.Name)
	if h.activity != nil {
		userID := sess.User.AccountID
		_ = h.activity.Record(c.UserContext(), service.ActivityEntry{UserID: &userID, Action: service.ActionLogout})
	}

	return utils.SendSuccess(c, "Logged out successfully", nil)
}

func (h *AuthHandler) checkAuth(c *fiber.Ctx) error {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return utils.SendSuccess(c, "not authenticated", dto.AuthStatusResponse{IsAuthenticated: false})
	}
	return utils.SendSuccess(c, "authenticated", dto.AuthStatusResponse{
		IsAuthenticated: true,
		UserRole:        sess.User.AccountType,
	})
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	sess, _ := middleware.SessionFromContext(c)

	var payload dto.ChangePasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.accounts.ChangePassword(c.UserContext(), sess.User.StudentNumber, payload); err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "new password is required")
		case errors.Is(err, service.ErrAccountNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "User not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to change password")
			return utils.SendError(c, fiber.StatusInternalServerError, "Error changing password")
		}
	}

	return utils.SendSuccess(c, "Password changed successfully", nil)
}
