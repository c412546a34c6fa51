package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// dashboardHeaders are the response headers the viewer dashboard reads.
var dashboardHeaders = []string{
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"X-RateLimit-Reset",
	fiber.HeaderRetryAfter,
	fiber.HeaderXRequestID,
}

// NewCORS allows the viewer dashboard's origins. corsOrigins is comma-separated;
// empty or "*" allows any origin.
func NewCORS(corsOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  parseOrigins(corsOrigins),
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders:  []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, HeaderUserID, fiber.HeaderXRequestID},
		ExposeHeaders: dashboardHeaders,
		MaxAge:        86400,
	})
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || slices.Contains(origins, o) {
			continue
		}
		if o == "*" {
			return []string{"*"}
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
