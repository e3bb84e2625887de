package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/xrp-transfer/backend/internal/config"
	"github.com/xrp-transfer/backend/internal/db"
	"github.com/xrp-transfer/backend/internal/events"
	apphttp "github.com/xrp-transfer/backend/internal/http"
	"github.com/xrp-transfer/backend/internal/http/handlers"
	"github.com/xrp-transfer/backend/internal/repositories"
	"github.com/xrp-transfer/backend/internal/transfer"
	"github.com/xrp-transfer/backend/internal/wallet"
	"github.com/xrp-transfer/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	network := cfg.Network()
	contract, err := cfg.TransferContract()
	if err != nil {
		log.Fatal("invalid contract config", zap.Error(err))
	}

	// Wallet
	provider, closeWallet, err := wallet.Open(ctx, cfg.WalletRPCURL, cfg.WalletPrivateKey, log)
	if err != nil {
		log.Fatal("failed to open wallet", zap.Error(err))
	}
	defer closeWallet()

	// Audit journal (optional)
	var (
		audit        transfer.AuditLogger
		auditHandler *handlers.AuditHandler
	)
	if cfg.PostgresDSN != "" {
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}

		auditRepo := repositories.NewAuditRepo(pool)
		audit = auditRepo
		auditHandler = handlers.NewAuditHandler(auditRepo, log)
	}

	// Events: redis when configured so several instances share one stream.
	var (
		rdb        *redis.Client
		publisher  events.Publisher
		subscriber events.Subscriber
	)
	if cfg.RedisURL != "" {
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
	} else {
		bus := events.NewMemoryBus(log)
		publisher, subscriber = bus, bus
	}

	ctrl := transfer.NewController(provider, network, contract, publisher, audit, cfg.ReceiptPollInterval, log)

	// Handlers
	transferHandler := handlers.NewTransferHandler(ctx, ctrl, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, func() events.Event {
		return events.Event{Type: events.EventStateChanged, Payload: ctrl.State().Payload()}
	}, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to transfer events", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, transferHandler, auditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.String("network", network.Name),
		zap.String("chain_id", network.ChainIDHex()),
		zap.Bool("wallet", provider != nil),
		zap.Bool("auth", cfg.AuthEnabled()),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
