package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	_ "github.com/Tiliavir/trivial-attendance-tracker/docs"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/auth"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/tracker"
)

// Options configures NewApp.
type Options struct {
	AllowedOrigins string
	Policy         auth.Policy
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// NewApp builds the fiber application: health and swagger at the root, the
// tracker under /api behind the auth policy.
func NewApp(svc *tracker.Service, log *slog.Logger, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tat",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	origins := opts.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + auth.Header,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/swagger/*", swagger.HandlerDefault)

	policy := opts.Policy
	if policy == nil {
		policy = auth.Disabled{}
	}
	group := app.Group("/api", auth.Middleware(policy))
	NewHandler(svc, log).Register(group)

	return app
}
