package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	jfsession "github.com/ManuelReschke/JobFox/internal/pkg/session"
	"github.com/ManuelReschke/JobFox/internal/pkg/usercontext"
)

var errLoginRequired = apperror.New(apperror.KindAuthenticationRequired, "NotAuthenticated", "Authentication credentials were not provided.")

// UserContextMiddleware resolves the caller from an API key header or the
// session cookie. A present but invalid API key ends the request with 401;
// everything else continues, anonymous if nothing matched.
func UserContextMiddleware(users repository.UserRepository, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey := extractAPIKeyFromHeader(c); apiKey != "" {
			user, err := resolveAPIKey(users, apiKey)
			if err != nil {
				if apperror.Status(err) >= fiber.StatusInternalServerError {
					zap.L().Error("api key lookup failed", zap.Error(err))
				}
				return c.Status(apperror.Status(err)).JSON(apperror.ToBody(err))
			}
			usercontext.Set(c, usercontext.FromUser(user))
			return c.Next()
		}

		if id := jfsession.UserID(store, c); id != 0 {
			// Role and status are re-read so changes apply to running sessions.
			if user, err := users.GetByID(id); err == nil && user.IsActive() {
				usercontext.Set(c, usercontext.FromUser(user))
				return c.Next()
			}
		}

		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}
}

// RequireAPIAuth rejects anonymous callers with a JSON 401.
func RequireAPIAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(apperror.ToBody(errLoginRequired))
	}
	return c.Next()
}

// RequireRole rejects callers whose role is not one of roles. Admins pass.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(apperror.ToBody(errLoginRequired))
		}
		if uc.IsAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if uc.Role == r {
				return c.Next()
			}
		}
		err := apperror.New(apperror.KindAuthorizationDenied, "WrongRole", "Your account role cannot use this endpoint.")
		return c.Status(fiber.StatusForbidden).JSON(apperror.ToBody(err))
	}
}
