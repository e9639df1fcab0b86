package controllers

import (
	"github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/billing"
	"github.com/ManuelReschke/JobFox/internal/pkg/jobposting"
)

// Deps is what the API controllers are built from.
type Deps struct {
	DB       *gorm.DB
	Repos    *repository.Repositories
	Sessions *session.Store
	Billing  *billing.Service
	Webhooks *billing.WebhookProcessor
	Jobs     *jobposting.Service
}

// Controllers groups the API controllers.
type Controllers struct {
	Auth      *AuthController
	User      *UserController
	Company   *CompanyController
	Job       *JobController
	Billing   *BillingController
	Portfolio *PortfolioController
	Health    *HealthController
}

// New builds every controller from deps.
func New(deps Deps) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(deps.Repos.User, deps.Sessions),
		User:      NewUserController(deps.Repos.User, deps.Jobs),
		Company:   NewCompanyController(deps.Repos.User, deps.Repos.Company),
		Job:       NewJobController(deps.Repos.User, deps.Repos.Job, deps.Jobs),
		Billing:   NewBillingController(deps.Repos.User, deps.Billing, deps.Webhooks),
		Portfolio: NewPortfolioController(deps.Repos.User, deps.Repos.Portfolio),
		Health:    NewHealthController(deps.DB),
	}
}
