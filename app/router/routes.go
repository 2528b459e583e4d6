// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"time"

	"call-flow-processor/app/handlers"
	"call-flow-processor/app/middleware"
	"call-flow-processor/config"
	"call-flow-processor/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app          *fiber.App
	statsHandler handlers.StatisticsHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg config.ServerConfig, statsHandler handlers.StatisticsHandlerInterface) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Call Flow Processor API",
		ServerHeader: "call-flow-processor",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:          app,
		statsHandler: statsHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	r.app.Get("/health", r.healthCheck)
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := r.app.Group("/api/v1")
	statistics := api.Group("/statistics")
	statistics.Get("/calls/summary", r.statsHandler.CallsSummary)
	statistics.Get("/operators", r.statsHandler.OperatorStats)
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	// Prometheus HTTP metrics
	r.app.Use(middleware.Metrics())

	// Structured access log
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health and metrics scrapes
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))

	// Recovery middleware
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": utils.UTCNow().Unix(),
		"service":   "call-flow-processor",
	})
}
