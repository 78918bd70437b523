package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/eybms-go-api/internal/observability"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/utils"
)

// RequireRole lets the request through only when the session role is in the allowed set.
// A rejected session is recorded as an unauthorized access attempt and answered with 403, never a redirect.
// Place it after RequireSession.
func RequireRole(recorder service.ActivityRecorder, roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		sess, ok := SessionFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
		}

		role := strings.ToLower(strings.TrimSpace(sess.User.AccountType))
		if _, ok := allowed[role]; ok {
			return c.Next()
		}

		observability.ForbiddenRequests().WithLabelValues(routeTemplate(c)).Inc()
		if recorder != nil {
			userID := sess.User.AccountID
			_ = recorder.Record(c.UserContext(), service.ActivityEntry{
				UserID:  &userID,
				Action:  service.ActionUnauthorizedAccess,
				Details: fmt.Sprintf("Attempted to access %s", c.Path()),
				Metadata: map[string]interface{}{
					"path":   c.Path(),
					"method": c.Method(),
					"role":   role,
				},
			})
		}

		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	}
}
