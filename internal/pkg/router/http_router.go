package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/JobFox/app/controllers"
	"github.com/ManuelReschke/JobFox/internal/pkg/constants"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
)

// HttpRouter serves the endpoints outside the versioned API.
type HttpRouter struct {
	ctrl     *controllers.Controllers
	gatherer prometheus.Gatherer
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, h.ctrl.Health.HandleHealth)
	if h.gatherer != nil {
		app.Get(constants.MetricsRoute, adaptor.HTTPHandler(metrics.Handler(h.gatherer)))
	}
}

func NewHttpRouter(ctrl *controllers.Controllers, gatherer prometheus.Gatherer) *HttpRouter {
	return &HttpRouter{ctrl: ctrl, gatherer: gatherer}
}
