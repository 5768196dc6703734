package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/quickcart/backend/internal/application/billing"
	appordering "github.com/quickcart/backend/internal/application/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
	"github.com/quickcart/backend/internal/infrastructure/auth"
	"github.com/quickcart/backend/internal/infrastructure/cache"
	"github.com/quickcart/backend/internal/infrastructure/config"
	"github.com/quickcart/backend/internal/infrastructure/logger"
	"github.com/quickcart/backend/internal/infrastructure/payment"
	"github.com/quickcart/backend/internal/infrastructure/persistence"
	"github.com/quickcart/backend/internal/infrastructure/scheduler"
	"github.com/quickcart/backend/internal/interfaces/http/handler"
	"github.com/quickcart/backend/internal/interfaces/http/middleware"
	"github.com/quickcart/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting QuickCart backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.String("addr", cfg.HTTP.Addr()),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	orderEventRepo := persistence.NewGormOrderEventRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	addressRepo := persistence.NewGormAddressRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// Payment gateway
	gateway, err := payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: cfg.Gateway.KeySecret,
		BaseURL:   cfg.Gateway.BaseURL,
		Timeout:   cfg.Gateway.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Replay guard for verified checkout callbacks
	var replayGuard shared.ReplayGuard
	if cfg.Redis.Enabled {
		redisGuard, err := cache.NewRedisReplayGuard(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisGuard.Close() }()
		replayGuard = redisGuard
		log.Info("Redis replay guard enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		replayGuard = cache.NewInMemoryReplayGuard()
	}

	// Application services
	recorder := appordering.NewAuditRecorder(orderEventRepo)
	refundService := appbilling.NewRefundService(
		orderRepo, paymentRepo, refundRepo, invoiceRepo, recorder, txManager, log,
	)
	orderService := appordering.NewOrderService(
		orderRepo, productRepo, addressRepo, recorder, refundService, txManager, log,
	)
	paymentService := appbilling.NewPaymentService(
		orderRepo, paymentRepo, invoiceRepo, recorder, gateway, replayGuard,
		txManager, cfg.Gateway.Currency, log,
	)
	settlementService := appbilling.NewSettlementService(
		refundRepo, paymentRepo, recorder, gateway, txManager,
		cfg.Settlement.AutoCompleteAfter, log,
	)

	// Refund settlement poller, the fallback for the missing gateway webhook
	settlementScheduler := scheduler.NewRefundSettlementScheduler(settlementService, log, scheduler.SettlementSchedulerConfig{
		Enabled:    cfg.Settlement.Enabled,
		Interval:   cfg.Settlement.Interval,
		RunTimeout: cfg.Settlement.RunTimeout,
	})
	if err := settlementScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start settlement scheduler", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(db)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	refundHandler := handler.NewRefundHandler(refundService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())

	// Health endpoints live outside API versioning and authentication
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ping", systemHandler.Ping)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.AuthWithConfig(middleware.AuthConfig{
		JWTService: jwtService,
		Logger:     log,
	}))

	orderRoutes := router.NewDomainGroup("ordering", "/orders")
	orderRoutes.POST("", orderHandler.PlaceOrder)
	orderRoutes.GET("", orderHandler.ListOrders)
	orderRoutes.GET("/:id", orderHandler.GetOrder)
	orderRoutes.GET("/:id/events", orderHandler.GetOrderEvents)
	orderRoutes.POST("/:id/accept", orderHandler.AcceptOrder)
	orderRoutes.POST("/:id/reject", orderHandler.RejectOrder)
	orderRoutes.PUT("/:id/status", orderHandler.UpdateStatus)
	orderRoutes.POST("/:id/shipment", orderHandler.CreateShipment)
	orderRoutes.POST("/:id/deliver", orderHandler.MarkDelivered)
	orderRoutes.POST("/:id/cancel", orderHandler.CancelOrder)

	// Billing endpoints hang off the order they belong to
	orderRoutes.POST("/:id/payment", paymentHandler.CreateGatewayOrder)
	orderRoutes.POST("/:id/payment/verify", paymentHandler.VerifyPayment)
	orderRoutes.GET("/:id/payment", paymentHandler.GetPayment)
	orderRoutes.GET("/:id/invoice", paymentHandler.GetInvoice)
	orderRoutes.POST("/:id/refund/approve", refundHandler.ApproveRefund)
	orderRoutes.POST("/:id/refund/reject", refundHandler.RejectRefund)
	orderRoutes.GET("/:id/refund", refundHandler.GetRefund)

	r.Register(orderRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	stop()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := settlementScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Settlement scheduler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
