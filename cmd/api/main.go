package main

import (
	"log"

	"clearancehub/internal/config"
	"clearancehub/internal/database"
	"clearancehub/internal/handler"
	"clearancehub/internal/mailer"
	"clearancehub/internal/repository"
	"clearancehub/internal/service"
	"clearancehub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to postgres")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	otpMailer := mailer.New(cfg.SMTP, logger)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	areaRepo := repository.NewAreaRepository(db)
	cardRepo := repository.NewCardRequestRepository(db)
	permitRepo := repository.NewPermitRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	authRepo := repository.NewAuthRepository(db)

	requestService := service.NewRequestService(employeeRepo, areaRepo, cardRepo, permitRepo, auditRepo, txManager, wsHub, logger)
	approvalService := service.NewApprovalService(employeeRepo, cardRepo, permitRepo, auditRepo, txManager, wsHub, logger)
	reportService := service.NewReportService(requestService, employeeRepo, cardRepo, permitRepo)
	authService := service.NewAuthService(authRepo, employeeRepo, otpMailer, cfg.JWT, cfg.OTP, logger)
	importService := service.NewImportService(employeeRepo, txManager, logger)
	auditService := service.NewAuditService(auditRepo)
	lookupService := service.NewLookupService(areaRepo, employeeRepo)

	jwtSecret := []byte(cfg.JWT.Secret)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, jwtSecret)
	requestHandler := handler.NewRequestHandler(requestService, jwtSecret)
	approvalHandler := handler.NewApprovalHandler(approvalService, jwtSecret)
	reportHandler := handler.NewReportHandler(reportService, jwtSecret)
	lookupHandler := handler.NewLookupHandler(lookupService)
	adminHandler := handler.NewAdminHandler(importService, auditService, jwtSecret)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	lookupHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))

	logger.Info("server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
