package main

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/ebanking/transaction-service/internal/client"
	"github.com/ebanking/transaction-service/internal/config"
	"github.com/ebanking/transaction-service/internal/events"
	"github.com/ebanking/transaction-service/internal/handler"
	"github.com/ebanking/transaction-service/internal/middleware"
	redisClient "github.com/ebanking/transaction-service/internal/redis"
	"github.com/ebanking/transaction-service/internal/repository"
	"github.com/ebanking/transaction-service/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Redis connection
	redis, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// Collaborators: store, account client, event publisher
	store := repository.NewTransactionRepository(db, redis.Client)
	accounts := client.NewAccountClient(cfg.AccountServiceURL)
	publisher := events.NewPublisher(redis.Client)

	orchestrator := service.NewTransactionService(store, accounts, publisher, logger)
	transactionHandler := handler.NewTransactionHandler(orchestrator)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Transaction routes
	api := router.Group("/api/transactions", middleware.AuthMiddleware(cfg.JWTSecret))
	{
		api.POST("", transactionHandler.CreateTransaction)
		api.GET("", transactionHandler.GetAllTransactions)
		api.GET("/:id", transactionHandler.GetTransaction)
		api.GET("/account/:accountId", transactionHandler.GetTransactionsByAccount)
		api.PUT("/:id", transactionHandler.UpdateTransaction)
		api.DELETE("/:id", transactionHandler.DeleteTransaction)
	}

	logger.Infof("Transaction service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
