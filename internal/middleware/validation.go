package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// HeaderUserID carries the authenticated user's ID, set by the identity provider in front of the API.
const HeaderUserID = "X-User-ID"

type localsKey string

const userIDKey localsKey = "userId"

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateUserID checks that a user ID is a UUID and returns it in canonical lowercase form.
func ValidateUserID(id string) (string, string) {
	return validateUUID("userId", id)
}

// ValidateCampaignID checks that a campaign ID is a UUID and returns it in canonical lowercase form.
func ValidateCampaignID(id string) (string, string) {
	return validateUUID("campaignId", id)
}

func validateUUID(field, id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", field + " is required"
	}
	parsed, err := uuid.Parse(id)
	if err != nil || len(id) != 36 {
		return "", field + " must be a UUID"
	}
	return parsed.String(), ""
}

// RequireUser rejects requests without a valid X-User-ID and stores the normalized ID for handlers.
func RequireUser() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, errMsg := ValidateUserID(c.Get(HeaderUserID))
		if errMsg != "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", errMsg)
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the ID stored by RequireUser.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
