package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/JobFox/app/controllers"
	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/constants"
	"github.com/ManuelReschke/JobFox/internal/pkg/env"
	"github.com/ManuelReschke/JobFox/internal/pkg/middleware"
)

type ApiRouter struct {
	ctrl     *controllers.Controllers
	users    repository.UserRepository
	sessions *session.Store
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 120),
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool { return c.Path() == constants.WebhookRoute },
		LimitReached: func(c *fiber.Ctx) error {
			err := apperror.New(apperror.KindValidationFailed, "RateLimited", "Too many requests.")
			return c.Status(fiber.StatusTooManyRequests).JSON(apperror.ToBody(err))
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	// Signed by the provider; no session or API key.
	v1.Post("/billing/webhook", h.ctrl.Billing.HandleWebhook)

	v1.Use(middleware.UserContextMiddleware(h.users, h.sessions))

	auth := v1.Group("/auth")
	auth.Post("/register", h.ctrl.Auth.HandleRegister)
	auth.Post("/login", h.ctrl.Auth.HandleLogin)
	auth.Post("/logout", h.ctrl.Auth.HandleLogout)
	auth.Get("/me", middleware.RequireAPIAuth, h.ctrl.User.HandleGetUserAccount)
	auth.Patch("/me", middleware.RequireAPIAuth, h.ctrl.User.HandleUpdateProfile)
	auth.Post("/api-key", middleware.RequireAPIAuth, h.ctrl.User.HandleIssueAPIKey)
	auth.Post("/api-key/revoke", middleware.RequireAPIAuth, h.ctrl.User.HandleRevokeAPIKey)

	companies := v1.Group("/companies")
	companies.Get("/", h.ctrl.Company.HandleList)
	companies.Get("/:ref", h.ctrl.Company.HandleGet)
	companies.Post("/", middleware.RequireAPIAuth, h.ctrl.Company.HandleCreate)
	companies.Put("/:ref", middleware.RequireAPIAuth, h.ctrl.Company.HandleUpdate)
	companies.Patch("/:ref", middleware.RequireAPIAuth, h.ctrl.Company.HandleUpdate)
	companies.Delete("/:ref", middleware.RequireAPIAuth, h.ctrl.Company.HandleDelete)

	jobs := v1.Group("/jobs")
	jobs.Get("/", h.ctrl.Job.HandleList)
	jobs.Get("/:id", h.ctrl.Job.HandleGet)
	jobs.Post("/", h.ctrl.Job.HandleCreate)
	jobs.Put("/:id", middleware.RequireAPIAuth, h.ctrl.Job.HandleUpdate)
	jobs.Patch("/:id", middleware.RequireAPIAuth, h.ctrl.Job.HandleUpdate)
	jobs.Delete("/:id", middleware.RequireAPIAuth, h.ctrl.Job.HandleDelete)

	billing := v1.Group("/billing", middleware.RequireAPIAuth)
	billing.Post("/checkout/job-credit", middleware.RequireRole(models.ROLE_COMPANY), h.ctrl.Billing.HandleCheckoutJobCredit)
	billing.Post("/checkout/subscription", middleware.RequireRole(models.ROLE_COMPANY), h.ctrl.Billing.HandleCheckoutSubscription)
	billing.Get("/status", h.ctrl.Billing.HandleStatus)

	v1.Get("/portfolio", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleGetOwn)
	v1.Put("/portfolio", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleUpdateOwn)
	v1.Patch("/portfolio", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleUpdateOwn)
	v1.Post("/portfolio/projects", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleCreateProject)
	v1.Put("/portfolio/projects/:id", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleUpdateProject)
	v1.Patch("/portfolio/projects/:id", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleUpdateProject)
	v1.Delete("/portfolio/projects/:id", middleware.RequireAPIAuth, h.ctrl.Portfolio.HandleDeleteProject)
	v1.Get("/portfolios/:id", h.ctrl.Portfolio.HandleGet)
}

func NewApiRouter(ctrl *controllers.Controllers, users repository.UserRepository, sessions *session.Store) *ApiRouter {
	return &ApiRouter{ctrl: ctrl, users: users, sessions: sessions}
}
