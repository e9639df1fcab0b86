package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
)

var (
	errInvalidAPIKey = apperror.New(apperror.KindAuthenticationRequired, "InvalidAPIKey", "Invalid API key.")
	errUserInactive  = apperror.New(apperror.KindAuthorizationDenied, "UserInactive", "User inactive.")
)

// resolveAPIKey returns the account of a raw API key. Revoked or unknown
// keys are an authentication error.
func resolveAPIKey(users repository.UserRepository, apiKey string) (*models.User, error) {
	user, _, err := users.GetByAPIKeyHash(models.HashAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidAPIKey
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, errUserInactive
	}
	return user, nil
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
