package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/obligo/obligo/internal/config"
	"github.com/obligo/obligo/internal/contract"
	"github.com/obligo/obligo/internal/events"
	"github.com/obligo/obligo/internal/middleware"
	"github.com/obligo/obligo/internal/obligations"
	"github.com/obligo/obligo/internal/registry"
	"github.com/obligo/obligo/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Publisher events.Publisher
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Backends
	var obligationVault vault.Vault
	if d.DB != nil {
		obligationVault = vault.NewPostgresVault(d.DB)
	} else {
		obligationVault = vault.NewInMemory()
	}

	var partyRepo registry.Repository
	if d.DB != nil {
		partyRepo = registry.NewPostgresRepository(d.DB)
	} else {
		partyRepo = registry.NewMemoryRepository()
	}

	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewLoggerPublisher(d.Logger)
	}

	// Services and handlers
	registrySvc := registry.NewService(partyRepo)
	obligationSvc := obligations.NewService(contract.ContractID, obligationVault, registrySvc, publisher)

	registryHandler := registry.NewHandler(registrySvc)
	obligationHandler := obligations.NewHandler(obligationSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterPartyRoutes(api, registryHandler)

	submitLimiter := middleware.SubmitRateLimit(d.Cache, d.Cfg.SubmitPerMin)
	RegisterObligationRoutes(api, obligationHandler, submitLimiter)

	return nil
}
