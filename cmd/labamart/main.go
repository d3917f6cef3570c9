package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/labamart/labamart/config"
	"github.com/labamart/labamart/internal/auth"
	"github.com/labamart/labamart/internal/events"
	"github.com/labamart/labamart/internal/guard"
	handler "github.com/labamart/labamart/internal/handler/http"
	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/middleware"
	"github.com/labamart/labamart/internal/repository"
	"github.com/labamart/labamart/internal/repository/postgres"
	"github.com/labamart/labamart/internal/service"
	"github.com/labamart/labamart/internal/shopinfo"
	"github.com/labamart/labamart/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const authTokenKey = "9c1185a5c5e9fc54612808977ee8f548"

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	err = db.Migrate()
	if err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(authTokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// event broker, optional
	var pub service.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Log.Fatal("Error connecting to amqp broker", zap.Error(err))
		}
		defer p.Close()
		pub = p
	}

	// shop details cache, optional
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer cache.Close()
	}

	sweepInterval, err := time.ParseDuration(cfg.SweepInterval)
	if err != nil {
		logger.Log.Fatal("Error parsing sweep interval", zap.Error(err))
	}

	// dependency injection
	g := guard.New()

	// order
	orderRepo := repository.NewOrderRepository(db)
	orderService := service.NewOrderService(orderRepo, g, pub)
	orderHandler := handler.NewOrderHandler(orderService)

	// payment
	paymentRepo := repository.NewPaymentRepository(db)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, g, pub)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// shop
	shopRepo := shopinfo.NewRepository(db)
	shopService := shopinfo.NewService(shopRepo, cache)
	shopHandler := handler.NewShopHandler(shopService)

	// completion sweeper picks up orders whose payment confirmation
	// arrived after handover
	sweeper := worker.NewCompletionSweeper(orderService, sweepInterval)
	go sweeper.Run(ctx)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Post("/api/orders", orderHandler.CreateOrder())
		group.Get("/api/orders", orderHandler.ListOrders())
		group.Get("/api/orders/{orderID}", orderHandler.GetOrder())
		group.Patch("/api/orders/{orderID}/status", orderHandler.UpdateOrderStatus())
		group.Patch("/api/orders/{orderID}/payment", paymentHandler.UpdatePayment())
		group.Patch("/api/orders/{orderID}/quote", orderHandler.UpdateQuote())
		group.Patch("/api/orders/{orderID}/process", orderHandler.UpdateProcessStatus())
		group.Post("/api/orders/{orderID}/handover", orderHandler.RecordHandover())
		group.Get("/api/shops/{shopID}/full-details", shopHandler.GetShopFullDetails())
	})

	logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}
