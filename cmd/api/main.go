package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"maliyet-backend/internal/cache"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/handler"
	"maliyet-backend/internal/middleware"
	"maliyet-backend/internal/repository"
	"maliyet-backend/internal/service"
	"maliyet-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return fallback
}

// @title           Maliyet Sistemi API
// @version         1.0
// @description     Cost-engineering backend: product catalog, cost definitions, parent-to-child cost inheritance, approvals and template export.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	appLog := logrus.New()
	appLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "postgres") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	appLog.Info("Connected to PostgreSQL successfully")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Shared infrastructure
	groupCache := cache.New(time.Duration(envInt("GROUP_CACHE_TTL_SECONDS", 300))*time.Second, 256, time.Now)
	rates := service.NewFileRateSource()
	inheritCfg := service.InheritConfig{
		ApprovalWorkflow: envOr("ENABLE_APPROVAL_WORKFLOW", "false") == "true",
		DetailLimit:      envInt("INHERIT_RESPONSE_DETAIL_LIMIT", 250),
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	costRepo := repository.NewCostRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	qualityRepo := repository.NewQualityRepository(db)

	auditService := service.NewAuditService(auditRepo, appLog)
	userService := service.NewUserService(userRepo, auditService, middleware.GetJWTSecret())
	productService := service.NewProductService(txManager, productRepo, materialRepo, costRepo, groupCache, auditService, appLog)
	costService := service.NewCostService(txManager, costRepo, rates, auditService, appLog)
	materialService := service.NewMaterialService(txManager, materialRepo, auditService)
	inheritService := service.NewInheritService(txManager, productRepo, costRepo, materialRepo, approvalRepo, auditService, rates, groupCache, wsHub, appLog, inheritCfg)
	suggestService := service.NewSuggestService(productRepo, costRepo)
	approvalService := service.NewApprovalService(approvalRepo, auditService, wsHub)
	exportService := service.NewExportService(productRepo, materialRepo, costRepo, auditService, appLog)
	qualityService := service.NewQualityService(qualityRepo, appLog)

	if err := userService.EnsureDefaultAdmin(context.Background()); err != nil {
		appLog.WithError(err).Warn("Failed to seed default admin user")
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	costHandler := handler.NewCostHandler(costService)
	materialHandler := handler.NewMaterialHandler(materialService)
	inheritHandler := handler.NewInheritHandler(inheritService, suggestService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	exportHandler := handler.NewExportHandler(exportService)
	auditHandler := handler.NewAuditHandler(auditService)
	qualityHandler := handler.NewQualityHandler(qualityService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	costHandler.RegisterRoutes(router.Group(""))
	materialHandler.RegisterRoutes(router.Group(""))
	inheritHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	exportHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	qualityHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	appLog.Infof("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
