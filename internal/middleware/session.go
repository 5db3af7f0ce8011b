package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/vermion/dashboard/internal/domain"
	"github.com/vermion/dashboard/internal/port"
)

// SessionCookie is the name of the browser session cookie.
const SessionCookie = "session_id"

// Session creates a Fiber middleware that resolves the session cookie and
// injects the authenticated user into the request context. Requests without
// a valid session get a 401; missing and expired sessions look identical to
// the client.
func Session(sessions port.SessionStore) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   port.ErrUnauthenticated.Error(),
			})
		}

		user, err := sessions.SessionUser(c.Context(), token, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "session lookup failed",
			})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   port.ErrUnauthenticated.Error(),
			})
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// GetUser extracts the authenticated user from Fiber locals.
func GetUser(c fiber.Ctx) *domain.User {
	u, ok := c.Locals("user").(*domain.User)
	if !ok {
		return nil
	}
	return u
}
