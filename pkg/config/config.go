package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database
	DatabaseURL string

	// OAuth2 — Discord
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURL  string

	// Bot
	DiscordBotToken string

	// Sessions
	SessionTTLHours int

	// Dashboard static bundle
	DashboardPath string

	// Frontend origin for CORS (same origin by default)
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "8000"),
		AppName: envOrDefault("APP_NAME", "Vermion Dashboard"),

		DatabaseURL: envOrDefault("DATABASE_URL", "postgres://postgres:@localhost:5432/vermion?sslmode=disable"),

		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURL:  envOrDefault("DISCORD_REDIRECT_URL", "http://localhost:8000/auth/callback"),

		DiscordBotToken: os.Getenv("DISCORD_BOT_TOKEN"),

		SessionTTLHours: envOrDefaultInt("SESSION_TTL_HOURS", 168),

		DashboardPath: envOrDefault("DASHBOARD_PATH", "./vermion-dashboard"),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:8000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
