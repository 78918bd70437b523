package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/session"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

const sessionLocalKey = "session"

// RouteCategory selects how an unauthenticated request is turned away.
type RouteCategory int

const (
	// CategoryAPI answers 401 with the JSON envelope.
	CategoryAPI RouteCategory = iota
	// CategoryPage redirects the browser to the login page.
	CategoryPage
)

// LoginPath is where page routes send visitors without a session.
const LoginPath = "/login"

// LoadSession resolves the session cookie and exposes the snapshot through locals.
// Missing or unknown cookies leave the request anonymous.
func LoadSession(store session.Store, cookieName string, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "session_middleware").Logger()

	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			return c.Next()
		}

		sess, err := store.Get(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Warn().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to resolve session")
			}
			return c.Next()
		}

		SetSession(c, sess)
		return c.Next()
	}
}

// SetSession binds sess to the request.
func SetSession(c *fiber.Ctx, sess session.Session) {
	c.Locals(sessionLocalKey, sess)
	c.Locals("user_id", sess.User.AccountID)
	c.Locals("user_role", sess.User.AccountType)
}

// SessionFromContext returns the session loaded for the request.
func SessionFromContext(c *fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals(sessionLocalKey).(session.Session)
	return sess, ok
}

// RequireSession turns away requests without a session, by redirect or 401 depending on the category.
func RequireSession(category RouteCategory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SessionFromContext(c); ok {
			return c.Next()
		}
		if category == CategoryPage {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}
}
