package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ManuelReschke/JobFox/app/controllers"
	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/billing"
	"github.com/ManuelReschke/JobFox/internal/pkg/cache"
	"github.com/ManuelReschke/JobFox/internal/pkg/constants"
	"github.com/ManuelReschke/JobFox/internal/pkg/credits"
	"github.com/ManuelReschke/JobFox/internal/pkg/database"
	"github.com/ManuelReschke/JobFox/internal/pkg/env"
	"github.com/ManuelReschke/JobFox/internal/pkg/jobposting"
	applog "github.com/ManuelReschke/JobFox/internal/pkg/logger"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
	"github.com/ManuelReschke/JobFox/internal/pkg/router"
	"github.com/ManuelReschke/JobFox/internal/pkg/session"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	envFile := env.SetupEnvFile()
	zlog, err := applog.Setup(env.GetEnv("LOG_LEVEL", "info"), env.IsDev())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	if envFile != "" {
		zlog.Info("loaded env file", zap.String("path", envFile))
	}

	ctx := context.Background()
	db, err := database.SetupDatabase(ctx, zlog)
	if err != nil {
		zlog.Fatal("database unavailable", zap.Error(err))
	}
	redisClient := cache.SetupCache(ctx)
	sessions := session.NewSessionStore()

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	// billing
	billingCfg := billing.ConfigFromEnv()
	if missing := billingCfg.Missing(); len(missing) > 0 {
		zlog.Warn("billing is not fully configured", zap.Strings("missing", missing))
	}
	zlog.Info("billing configured",
		zap.String("secret_key", applog.MaskSecret(billingCfg.SecretKey)),
		zap.Duration("subscription_cache_ttl", billingCfg.SubscriptionCacheTTL))
	billingService := billing.NewServiceFromDB(db, billingCfg,
		billing.WithCheckoutAPI(billing.NewStripeAPI(billingCfg.SecretKey)),
		billing.WithCache(cache.NewRedisStore(redisClient, "jobfox:")),
		billing.WithLogger(zlog),
		billing.WithMetrics(recorder),
	)
	ledger := credits.NewLedger(db, zlog)

	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()
	ctrl := controllers.New(controllers.Deps{
		DB:       db,
		Repos:    repos,
		Sessions: sessions,
		Billing:  billingService,
		Webhooks: billing.NewWebhookProcessor(db, billingService, ledger, zlog, recorder),
		Jobs:     jobposting.NewService(db, ledger, billingService, zlog, recorder),
	})

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))

	// SWAGGER / OPENAPI
	openAPIFile := findFile(constants.OpenAPIPath)
	if openAPIFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsBasePath,
			FilePath: openAPIFile,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, ctrl, repos.User, sessions, registry)

	return app
}

// findFile resolves a project-relative path from the usual working directories.
func findFile(name string) string {
	for _, base := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(base + name); err == nil {
			return base + name
		}
	}
	return ""
}
