// Package main provides the Talentdeck API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/talentdeck/talentdeck/pkg/aggregate"
	"github.com/talentdeck/talentdeck/pkg/dispatch"
	"github.com/talentdeck/talentdeck/pkg/eventbus"
	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/reconciler"
	"github.com/talentdeck/talentdeck/pkg/report"
	"github.com/talentdeck/talentdeck/pkg/runner"
	"github.com/talentdeck/talentdeck/pkg/services"
	"github.com/talentdeck/talentdeck/pkg/web"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	runner      runner.Client
	eventBus    eventbus.EventBus
	reconciler  *reconciler.Context
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	client runner.Client,
	eventBus eventbus.EventBus,
	rc *reconciler.Context,
) (*API, error) {
	return &API{
		logger:      logger,
		persistence: p,
		runner:      client,
		eventBus:    eventBus,
		reconciler:  rc,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (a *API) App() (*fiber.App, error) {
	store := workflow.NewStore()
	cache := a.reconciler.Cache()

	templateService, err := services.NewTemplate(a.persistence, a.logger)
	if err != nil {
		return nil, err
	}

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(a.persistence, store, a.logger),
		templateService,
		services.NewJob(a.runner, cache, a.logger),
		dispatch.NewDispatcher(a.persistence, store, a.runner, a.eventBus, a.logger),
		report.NewCoordinator(a.runner, cache, a.eventBus, a.logger),
		aggregate.NewEngine(cache),
		a.reconciler,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Talentdeck API")
	})

	app.Get("/health", func(c fiber.Ctx) error {
		if err := a.persistence.HealthCheck(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}

		return c.JSON(fiber.Map{"status": "healthy"})
	})

	handlers.RegisterRoutes(app)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
