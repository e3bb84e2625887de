package http

import (
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/xrp-transfer/backend/internal/config"
	"github.com/xrp-transfer/backend/internal/http/handlers"
	"github.com/xrp-transfer/backend/internal/middleware"
	"go.uber.org/zap"
)

// SetupRouter mounts the API. rdb and auditHandler may be nil; without them
// rate limiting and the /audit endpoint are off.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	transferHandler *handlers.TransferHandler,
	auditHandler *handlers.AuditHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSAllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1",
		middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log),
		middleware.AuthMiddleware(cfg, log),
	)

	api.Get("/network", transferHandler.GetNetwork)
	api.Get("/state", transferHandler.GetState)
	api.Put("/form", transferHandler.UpdateForm)

	api.Post("/wallet/connect", transferHandler.Connect)
	api.Post("/transfers/contract", transferHandler.TransferViaContract)
	api.Post("/transfers/direct", transferHandler.TransferDirect)

	if auditHandler != nil {
		api.Get("/audit", auditHandler.List)
	}

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
