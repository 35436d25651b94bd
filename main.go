package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bakery-service/config"
	"bakery-service/consumers"
	"bakery-service/controllers"
	"bakery-service/database"
	"bakery-service/middlewares"
	"bakery-service/rabbitmq"
	"bakery-service/repository"
	"bakery-service/services"
	"bakery-service/utils"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.LoadConfig()

	if err := database.InitDB(cfg); err != nil {
		zap.S().Fatalw("database initialization failed", "error", err)
	}
	defer database.CloseDB()

	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		zap.S().Fatalw("rabbitmq initialization failed", "error", err)
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		zap.S().Fatalw("failed to setup rabbitmq queues", "error", err)
	}

	// Wire repositories and services.
	db := database.DB
	couponService := services.NewCouponService(repository.NewCouponRepo(db))
	loyaltyService := services.NewLoyaltyService(repository.NewLoyaltyRepo(db))
	inventoryService := services.NewInventoryService(repository.NewInventoryRepo(db))
	trackingService := services.NewTrackingService(repository.NewTrackingRepo(db))
	orderService := services.NewOrderService(
		repository.NewOrderRepo(db),
		couponService, loyaltyService, inventoryService,
		rmq, cfg.PendingTimeout,
	)
	controllers.SetServices(orderService, couponService, loyaltyService, inventoryService, trackingService)

	go consumers.StartOrderConsumer(rmq.Channel, cfg, orderService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/api")
	authGroup.Use(middlewares.AuthMiddleware())
	{
		// Customer endpoints: owner-only, enforced per query.
		authGroup.POST("/orders", controllers.CreateOrder)
		authGroup.GET("/orders", controllers.GetUserOrders)
		authGroup.GET("/orders/:id", controllers.GetOrderDetails)
		authGroup.POST("/orders/:id/cancel", controllers.CancelOrder)
		authGroup.GET("/orders/:id/tracking", controllers.TrackOrder)
		authGroup.POST("/coupons/validate", controllers.ValidateCoupon)
		authGroup.GET("/loyalty", controllers.GetLoyaltyAccount)
		authGroup.POST("/loyalty/redeem-preview", controllers.RedeemPreview)

		// Status machine: kitchen admins and delivery agents.
		statusGroup := authGroup.Group("")
		statusGroup.Use(middlewares.RequireRole(utils.RoleAdmin, utils.RoleDelivery))
		statusGroup.PUT("/orders/:id/status", controllers.UpdateOrderStatus)

		// Location pushes: delivery agents assigned to the order.
		agentGroup := authGroup.Group("")
		agentGroup.Use(middlewares.RequireRole(utils.RoleDelivery))
		agentGroup.POST("/orders/:id/location", controllers.PushLocation)

		// Admin dashboard.
		adminGroup := authGroup.Group("/admin")
		adminGroup.Use(middlewares.RequireRole(utils.RoleAdmin))
		adminGroup.GET("/orders", controllers.ListOrdersByStatus)
		adminGroup.GET("/notifications", controllers.ListNotifications)
		adminGroup.PUT("/notifications/:id/read", controllers.MarkNotificationRead)
	}

	zap.S().Infow("bakery service starting", "port", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		zap.S().Fatalw("failed to start server", "error", err)
	}
}
