package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/vermion/dashboard/internal/middleware"
	"github.com/vermion/dashboard/internal/service"
)

// stateCookie holds the CSRF nonce between /auth/login and /auth/callback.
const stateCookie = "oauth_state"

// AuthHandler handles the browser login endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register sets up auth routes.
func (h *AuthHandler) Register(app *fiber.App) {
	app.Get("/auth/login", h.Login)
	app.Get("/auth/callback", h.Callback)
	app.Get("/auth/logout", h.Logout)
}

// Login redirects to Discord's consent screen with a fresh state nonce.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state := uuid.NewString()

	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect().Status(fiber.StatusFound).To(h.authService.AuthURL(state))
}

// Callback completes the OAuth2 flow and issues the session cookie.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing authorization code",
		})
	}

	// Reject mismatched state when we issued one for this browser.
	if expected := c.Cookies(stateCookie); expected != "" && c.Query("state") != expected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "state mismatch",
		})
	}
	clearCookie(c, stateCookie)

	token, user, err := h.authService.HandleCallback(c.Context(), code)
	if err != nil {
		slog.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "login failed",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.SessionTTL().Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	slog.Info("session issued", "user_id", user.ID)
	return c.Redirect().Status(fiber.StatusFound).To("/dashboard")
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if err := h.authService.Logout(c.Context(), c.Cookies(middleware.SessionCookie)); err != nil {
		slog.Error("logout failed", "error", err)
	}
	clearCookie(c, middleware.SessionCookie)
	return c.Redirect().Status(fiber.StatusFound).To("/")
}

func clearCookie(c fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
