package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds shared dependencies (db pool, config, object store, AI client)
// for all route handlers. Everything is injected so tests can swap pieces out —
// the AI client's base URLs in particular point at local mock servers in tests.
type Handler struct {
	db    *pgxpool.Pool
	cfg   appConfig
	store *objectStore
	ai    *aiClient
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](pool *pgxpool.Pool, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](pool *pgxpool.Pool, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn)
// because serverless Postgres providers close idle connections after a few
// minutes.
func getDBPool(cfg appConfig) *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse DB URL: %v\n", err)
		os.Exit(1)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from server-side prepared statement caches (Neon, Supabase's
	// pgbouncer) after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("DB pool ready!")
	return pool
}

// healthCheck reports liveness and DB reachability.
// GET /api/health (public).
func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/api/health", h.healthCheck)
	router.POST("/api/register", h.register)
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/doctors", h.listDoctors)

	api.POST("/appointments", h.bookAppointment)
	api.GET("/appointments", h.listAppointments)
	api.POST("/appointments/:id/accept", h.acceptAppointment)
	api.POST("/appointments/:id/reject", h.rejectAppointment)
	api.POST("/appointments/:id/consent", h.grantConsent)
	api.POST("/appointments/:id/revoke-consent", h.revokeConsent)
	api.GET("/consents", h.listConsents)

	api.POST("/reports/upload", h.uploadReport)
	api.GET("/reports", h.listMyReports)
	api.GET("/reports/:id/signed-url", h.getReportSignedURL)
	api.POST("/reports/:id/generate-explanation", h.generateReportExplanation)
	api.DELETE("/reports/:id", h.deleteReport)

	api.GET("/patients/:id/health", h.getPatientHealth)
	api.GET("/patients/:id/reports", h.listPatientReports)

	api.POST("/plans/diet", h.generateDietPlan)
	api.POST("/plans/exercise", h.generateExercisePlan)
}
