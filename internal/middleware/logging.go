package middleware

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/adwatch/pkg/hash"
)

// Logger is the package-level zerolog logger used throughout the application.
var Logger = zerolog.Nop()

// logSalt salts identifiers before they are hashed into log fields.
var logSalt = "adwatch"

// InitLogger sets up the global zerolog logger with structured JSON output.
// Level is parsed from the given string (e.g. "debug", "info", "warn", "error").
func InitLogger(level, service, salt string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	if salt != "" {
		logSalt = salt
	}

	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// UserHash returns the log-safe form of a user ID.
func UserHash(userID string) string {
	return hash.LogID(userID, logSalt)
}

// NewRequestLogger returns a Fiber middleware that logs each request as structured JSON via zerolog.
// Raw IPs and user IDs never reach the log; both are salted and hashed. The user is the
// ID normalized by RequireUser, read after the chain has run.
func NewRequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		evt := Logger.Info()
		if status >= 500 {
			evt = Logger.Error()
		} else if status >= 400 {
			evt = Logger.Warn()
		}

		evt.
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration_ms", duration).
			Str("ip_hash", hash.LogID(c.IP(), logSalt)).
			Str("user_hash", UserHash(UserID(c))).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}
