package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/config"
	"github.com/ton-course/backend/internal/db"
	"github.com/ton-course/backend/internal/events"
	apphttp "github.com/ton-course/backend/internal/http"
	"github.com/ton-course/backend/internal/http/handlers"
	"github.com/ton-course/backend/internal/repositories"
	"github.com/ton-course/backend/internal/services"
	"github.com/ton-course/backend/internal/ton"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if err := cfg.Validate(log); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// TON ledger
	ledger, err := ton.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect to TON", zap.Error(err))
	}

	var payoutSender services.PayoutSender = ton.DisabledSender{}
	if cfg.WalletMnemonic != "" {
		sender, err := ton.NewRefundSender(ledger, cfg.WalletMnemonic, log)
		if err != nil {
			log.Fatal("failed to init payout wallet", zap.Error(err))
		}
		payoutSender = sender
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	purchaseRepo := repositories.NewPurchaseRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, events.StreamPurchases, log)
	subscriber := events.NewRedisSubscriber(rdb, events.StreamPurchases, log)

	// Services
	matcher := services.NewMatcher(ledger, cfg, log)
	purchaseService := services.NewPurchaseService(purchaseRepo, matcher, userRepo, auditRepo, publisher, cfg, log)
	refundService := services.NewRefundService(purchaseRepo, payoutSender, auditRepo, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, refundService, log)
	walletHandler := handlers.NewWalletHandler(ledger, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	wsHub.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, purchaseHandler, walletHandler, wsHub)

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
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
