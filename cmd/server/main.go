package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/joho/godotenv"

	"github.com/vermion/dashboard/internal/adapter/auth"
	"github.com/vermion/dashboard/internal/adapter/bot"
	"github.com/vermion/dashboard/internal/adapter/store"
	"github.com/vermion/dashboard/internal/handler"
	"github.com/vermion/dashboard/internal/middleware"
	"github.com/vermion/dashboard/internal/service"
	"github.com/vermion/dashboard/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Vermion dashboard API",
		"port", cfg.Port,
		"session_ttl_hours", cfg.SessionTTLHours,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.EnsureSchema(context.Background()); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	discordAuth := auth.NewDiscordProvider(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURL)
	botGateway := bot.NewDiscordGateway(cfg.DiscordBotToken)

	// ── Services ─────────────────────────────────────────────────────────
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	authService := service.NewAuthService(discordAuth, pgStore, pgStore, sessionTTL)
	guildService := service.NewGuildService(pgStore, botGateway)
	configService := service.NewConfigService(pgStore, botGateway)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.Audit(pgStore))

	// ── Public Routes ────────────────────────────────────────────────────
	authHandler := handler.NewAuthHandler(authService)
	authHandler.Register(app)

	// Health check
	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"app":    cfg.AppName,
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	api := app.Group("/api", middleware.Session(pgStore))

	userHandler := handler.NewUserHandler(guildService)
	userHandler.Register(api)

	configHandler := handler.NewConfigHandler(guildService, configService)
	configHandler.Register(api)

	auditHandler := handler.NewAuditHandler(pgStore)
	auditHandler.Register(api)

	// ── Static dashboard ─────────────────────────────────────────────────
	app.Use("/", static.New(cfg.DashboardPath))

	// ── Session sweeper ──────────────────────────────────────────────────
	// Expiry is enforced at lookup; this only keeps the table small.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			n, err := pgStore.DeleteExpiredSessions(context.Background(), time.Now())
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("swept expired sessions", "count", n)
			}
		}
	}()

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
