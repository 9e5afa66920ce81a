package main

import (
	"attendance-service/internal/handler"
	"attendance-service/internal/middleware"
	"attendance-service/pkg/config"
	"attendance-service/pkg/database"
	"attendance-service/pkg/jwtutil"
	"attendance-service/pkg/logger"
	"attendance-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting attendance service...", zap.String("environment", cfg.Server.Env))

	// Initialize database (includes migrations)
	if err := database.InitDB(cfg, log); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Initialize token signing with configuration
	jwtutil.Init(cfg)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire handlers to the core engines
	handler.Init()

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/", handler.Hello)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", prometheus.HandlerFunc())

	// Authentication
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/me", handler.Me, middleware.AuthMiddleware)

	// Protected API routes
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Users and hierarchy
	api.GET("/users", handler.ListUsers)
	api.POST("/users", handler.CreateUser)
	api.GET("/users/:id", handler.GetUser)
	api.PUT("/users/:id", handler.UpdateUser)
	api.DELETE("/users/:id", handler.DeleteUser)
	api.GET("/users/:id/reports", handler.ListReports)

	// Attendance ledger
	api.GET("/attendance", handler.ListAttendance)
	api.PUT("/attendance", handler.SetAttendance)
	api.POST("/attendance/allocate", handler.AllocateAttendance)
	api.DELETE("/attendance/:id", handler.DeleteAttendance)
	api.DELETE("/attendance", handler.ResetAttendance)

	// Delegations
	api.POST("/delegations", handler.CreateDelegation)
	api.GET("/delegations", handler.ListDelegations)
	api.POST("/delegations/:id/revoke", handler.RevokeDelegation)

	// Office capacity
	api.GET("/capacity", handler.ListCapacity)
	api.PUT("/capacity", handler.SetCapacity)
	api.GET("/capacity/week", handler.WeekOccupancy)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
