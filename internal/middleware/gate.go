package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/eybms-go-api/internal/service"
)

// Gate builds the authorization guard for a route: a session check followed by an optional role check.
type Gate struct {
	Recorder service.ActivityRecorder
}

// NewGate constructs a gate that records rejected roles through recorder.
func NewGate(recorder service.ActivityRecorder) Gate {
	return Gate{Recorder: recorder}
}

// API guards a JSON route. With no roles any session passes.
func (g Gate) API(roles ...string) fiber.Handler {
	return g.guard(CategoryAPI, roles)
}

// Page guards a browser route. With no roles any session passes.
func (g Gate) Page(roles ...string) fiber.Handler {
	return g.guard(CategoryPage, roles)
}

func (g Gate) guard(category RouteCategory, roles []string) fiber.Handler {
	requireSession := RequireSession(category)
	if len(roles) == 0 {
		return requireSession
	}
	requireRole := RequireRole(g.Recorder, roles...)

	return func(c *fiber.Ctx) error {
		if _, ok := SessionFromContext(c); !ok {
			return requireSession(c)
		}
		return requireRole(c)
	}
}

// Pages guards every browser path below prefix. The prefix itself is left alone so that
// an API route may share it.
func (g Gate) Pages(prefix string, roles ...string) fiber.Handler {
	guard := g.Page(roles...)
	below := strings.TrimSuffix(prefix, "/") + "/"

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), below) {
			return c.Next()
		}
		return guard(c)
	}
}
