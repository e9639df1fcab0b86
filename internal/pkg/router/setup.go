package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/JobFox/app/controllers"
	"github.com/ManuelReschke/JobFox/app/repository"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers the operational endpoints first and then the
// JSON API, which depends on the user context middleware.
func InstallRouter(app *fiber.App, ctrl *controllers.Controllers, users repository.UserRepository, sessions *session.Store, gatherer prometheus.Gatherer) {
	setup(app, NewHttpRouter(ctrl, gatherer), NewApiRouter(ctrl, users, sessions))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
