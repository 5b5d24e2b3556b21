package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/phone-store-api/internal/config"
	"github.com/flicky/phone-store-api/internal/handler"
	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/payment"
	"github.com/flicky/phone-store-api/internal/repository"
	"github.com/flicky/phone-store-api/internal/service"
	"github.com/flicky/phone-store-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	storeLoc, err := cfg.Store.Location()
	if err != nil {
		log.Error("load store timezone", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ: one channel consumes, a second one publishes.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}

	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ publish channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	publisher := worker.NewAMQPPublisher(publishCh)

	var gateway payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, online payment disabled")
	}

	// Repositories
	txm := repository.NewTransactor(dbPool)
	customerRepo := repository.NewCustomerRepository(dbPool)
	staffRepo := repository.NewStaffRepository(dbPool)
	loyaltyRepo := repository.NewLoyaltyRepository(dbPool)
	catalogRepo := repository.NewCatalogRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	areaRepo := repository.NewDeliverAreaRepository(dbPool)
	couponRepo := repository.NewCouponRepository(dbPool)
	repairRepo := repository.NewRepairRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(txm, customerRepo, staffRepo, loyaltyRepo,
		cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Store.CheckCustomerActive)
	catalogSvc := service.NewCatalogService(catalogRepo, redisClient)
	cartSvc := service.NewCartService(cartRepo, catalogRepo)
	couponSvc := service.NewCouponService(couponRepo, loyaltyRepo)
	orderSvc := service.NewOrderService(txm, cartRepo, catalogRepo, orderRepo, areaRepo, couponSvc,
		gateway, catalogSvc, cfg.Store.StrictDeliveryArea, cfg.Server.FrontendURL)
	adminOrderSvc := service.NewAdminOrderService(txm, orderRepo, catalogRepo, catalogSvc, publisher)
	loyaltySvc := service.NewLoyaltyService(txm, loyaltyRepo, service.LoyaltyRules{
		EarnPercent:     cfg.Store.LoyaltyEarnPercent,
		RedeemCap:       cfg.Store.LoyaltyRedeemCap,
		SilverThreshold: cfg.Store.SilverThreshold,
		GoldThreshold:   cfg.Store.GoldThreshold,
	})
	repairSvc := service.NewRepairService(txm, repairRepo, staffRepo, service.RepairRules{
		Location:  storeLoc,
		OpenHour:  cfg.Store.RepairOpenHour,
		CloseHour: cfg.Store.RepairCloseHour,
		Slot:      cfg.Store.RepairSlot,
	})

	// Handlers
	authH := handler.NewAuthHandler(authSvc, handler.CookieOptions{
		Secure: cfg.Server.SecureCookies,
		MaxAge: cfg.JWT.Expiration,
	}, log)
	catalogH := handler.NewCatalogHandler(catalogSvc, log)
	cartH := handler.NewCartHandler(cartSvc, log)
	orderH := handler.NewOrderHandler(orderSvc, couponSvc, log)
	adminH := handler.NewAdminHandler(adminOrderSvc, couponSvc, log)
	loyaltyH := handler.NewLoyaltyHandler(loyaltySvc, log)
	repairH := handler.NewRepairHandler(repairSvc, log)
	healthH := handler.NewHealthHandler(
		handler.PostgresDependency(dbPool),
		handler.RedisDependency(redisClient),
		handler.RabbitMQDependency(amqpConn),
	)

	// Worker
	eventWorker := worker.NewEventWorker(consumeCh, adminOrderSvc, loyaltySvc, orderRepo,
		worker.NewRedisDeduper(redisClient), log)

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	api := router.Group("/api")
	{
		if gateway != nil {
			paymentH := handler.NewPaymentHandler(gateway, publisher, log)
			api.POST("/payments/webhook", paymentH.Webhook)
		}

		customer := api.Group("/customer")
		customerAuth := middleware.Auth(cfg.JWT.Secret, model.ActorCustomer)

		auth := customer.Group("/auth")
		auth.POST("/login", authH.CustomerLogin)
		auth.POST("/signup", authH.Signup)
		auth.POST("/logout", authH.Logout)
		auth.GET("/me", customerAuth, authH.CustomerMe)

		customer.GET("/categories", catalogH.ListCategories)
		customer.GET("/items", catalogH.ListItems)
		customer.GET("/items/:itemId", catalogH.GetItem)
		customer.GET("/deliver-areas", orderH.ListDeliverAreas)
		customer.GET("/technicians", repairH.ListTechnicians)
		customer.GET("/repairs/availability", repairH.CheckAvailability)

		signedIn := customer.Group("", customerAuth)
		signedIn.GET("/cart", cartH.GetCart)
		signedIn.POST("/cart", cartH.AddItem)
		signedIn.PUT("/cart/:itemId", cartH.UpdateItem)
		signedIn.DELETE("/cart/:itemId", cartH.RemoveItem)

		signedIn.POST("/orders", orderH.PlaceOrder)
		signedIn.GET("/orders", orderH.ListOrders)
		signedIn.GET("/orders/delivery-cost", orderH.DeliveryCost)
		signedIn.GET("/orders/:id", orderH.GetOrder)
		signedIn.POST("/orders/:id/cancel", orderH.CancelOrder)
		signedIn.POST("/coupons/validate", orderH.ValidateCoupon)

		signedIn.GET("/loyalty", loyaltyH.GetProgram)
		signedIn.GET("/loyalty/quote", loyaltyH.Quote)

		signedIn.POST("/repairs", repairH.Submit)
		signedIn.GET("/repairs", repairH.ListMine)

		admin := api.Group("/admin")
		staffAuth := middleware.Auth(cfg.JWT.Secret, model.ActorStaff)
		adminOnly := middleware.RequireRole(model.StaffTypeAdmin)
		backOffice := middleware.RequireRole(model.StaffTypeAdmin, model.StaffTypeStaff)
		repairDesk := middleware.RequireRole(model.StaffTypeAdmin, model.StaffTypeTechnician)

		adminAuth := admin.Group("/auth")
		adminAuth.POST("/login", authH.StaffLogin)
		adminAuth.POST("/logout", authH.Logout)
		adminAuth.GET("/me", staffAuth, authH.StaffMe)
		adminAuth.POST("/register", staffAuth, adminOnly, authH.RegisterStaff)

		staff := admin.Group("", staffAuth)
		staff.GET("/orders", backOffice, adminH.ListOrders)
		staff.GET("/orders/:id", backOffice, adminH.GetOrder)
		staff.PUT("/orders/:id/status", backOffice, adminH.UpdateOrderStatus)
		staff.PUT("/orders/:id/payment-status", backOffice, adminH.UpdatePaymentStatus)
		staff.POST("/orders/:id/cancel", backOffice, adminH.CancelOrder)

		staff.GET("/coupons", adminOnly, adminH.ListCoupons)
		staff.POST("/coupons", adminOnly, adminH.CreateCoupon)
		staff.POST("/items", adminOnly, catalogH.CreateItem)
		staff.PUT("/items/:id", adminOnly, catalogH.UpdateItem)
		staff.PUT("/customers/:id/active", adminOnly, authH.SetCustomerActive)

		staff.GET("/repair-requests", repairDesk, repairH.ListForStaff)
		staff.PUT("/repair-requests/:id", repairDesk, repairH.Respond)
		staff.PUT("/repairs/:id", repairDesk, repairH.UpdateRepair)
	}

	if err := eventWorker.Start(ctx); err != nil {
		log.Error("start event worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	eventWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
