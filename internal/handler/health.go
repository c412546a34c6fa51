package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe.
const Version = "1.0.0"

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db       Pinger
	rdb      *redis.Client
	sessions func() int
	startAt  time.Time
}

// NewHealthHandler builds the probes. rdb may be nil when caching is disabled.
func NewHealthHandler(db Pinger, rdb *redis.Client, sessions func() int) *HealthHandler {
	return &HealthHandler{
		db:       db,
		rdb:      rdb,
		sessions: sessions,
		startAt:  time.Now(),
	}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. The ledger lives in the database, so a down
// database makes the service unhealthy; a down cache only degrades it.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{}
	overallStatus := "healthy"

	dbCheck := checkDB(ctx, h.db)
	checks["database"] = dbCheck
	if dbCheck["status"] != "up" {
		overallStatus = "unhealthy"
	}

	redisCheck := checkRedis(ctx, h.rdb)
	checks["redis"] = redisCheck
	if redisCheck["status"] == "down" && overallStatus == "healthy" {
		overallStatus = "degraded"
	}

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	}
	if h.sessions != nil {
		resp["open_sessions"] = h.sessions()
	}

	status := fiber.StatusOK
	if overallStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

func checkDB(ctx context.Context, db Pinger) fiber.Map {
	if db == nil {
		return fiber.Map{"status": "down", "error": "not configured"}
	}

	start := time.Now()
	err := db.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
