package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// appConfig holds every environment-driven setting, loaded once at startup and
// passed explicitly to the components that need it. No package-level globals.
type appConfig struct {
	Port        string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins []string

	StorageBucket   string
	StorageEndpoint string // optional override for S3-compatible backends (MinIO, Supabase)
	SignedURLTTL    time.Duration
	MaxUploadBytes  int64

	AIProvider    string // "openai" or "gemini"
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiBaseURL string

	// Consent expiry: when on, a doctor's approved consent only works until
	// the end of the pair's most recent accepted appointment.
	ConsentExpiry bool
	VisitDuration time.Duration

	ReminderWindow time.Duration
}

// loadConfig reads configuration from the environment, applying defaults for
// everything except JWT_SECRET, which has no safe default.
func loadConfig() appConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}

	provider := envOr("AI_PROVIDER", "gemini")
	if provider != "openai" && provider != "gemini" {
		fmt.Fprintf(os.Stderr, "AI_PROVIDER must be openai or gemini, got %q\n", provider)
		os.Exit(1)
	}

	return appConfig{
		Port:        envOr("PORT", "8080"),
		DatabaseURL: os.Getenv("DB_URL"),

		JWTSecret: secret,
		TokenTTL:  time.Duration(envInt("TOKEN_TTL_HOURS", 24)) * time.Hour,

		CORSOrigins: strings.Split(envOr("CORS_ORIGINS", "http://localhost:3000"), ","),

		StorageBucket:   envOr("STORAGE_BUCKET", "healthsync-reports"),
		StorageEndpoint: os.Getenv("STORAGE_ENDPOINT"),
		SignedURLTTL:    time.Duration(envInt("SIGNED_URL_TTL_MINUTES", 15)) * time.Minute,
		MaxUploadBytes:  int64(envInt("MAX_UPLOAD_MB", 10)) << 20,

		AIProvider:    provider,
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		ConsentExpiry: envOr("CONSENT_EXPIRY", "on") != "off",
		VisitDuration: time.Duration(envInt("VISIT_DURATION_MINUTES", 30)) * time.Minute,

		ReminderWindow: time.Duration(envInt("REMINDER_WINDOW_MINUTES", 60)) * time.Minute,
	}
}

// envOr returns the value of key, or fallback when unset or empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt parses an integer env var, falling back on unset or unparseable values.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: not an integer\n", key, v)
		return fallback
	}
	return n
}
