package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/config"
	"github.com/stwalsh4118/cityhall/internal/database"
	"github.com/stwalsh4118/cityhall/internal/handlers"
	"github.com/stwalsh4118/cityhall/internal/logger"
	"github.com/stwalsh4118/cityhall/internal/metrics"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"github.com/stwalsh4118/cityhall/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting cityhall API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			log.Fatal("Failed to apply migrations", err, map[string]interface{}{
				"applied": applied,
			})
		}
		log.Info("Migrations up to date", map[string]interface{}{
			"applied": applied,
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	metrics.ObservePool(reg, func() metrics.PoolStats { return db.Stats() })

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidation()
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS -> Metrics -> Timeout
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// Initialize repository and service layers
	citizenRepo := repository.NewCitizenRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	periodRepo := repository.NewTaxPeriodRepository(db)
	ledgerRepo := repository.NewHoldingTaxRepository(db)

	citizenService := services.NewCitizenService(citizenRepo, log)
	propertyService := services.NewPropertyService(propertyRepo, citizenRepo, m, log)
	periodService := services.NewTaxPeriodService(periodRepo, log)
	ledgerService := services.NewHoldingTaxService(ledgerRepo, propertyRepo, periodRepo, m, log)
	dashboardService := services.NewDashboardService(citizenRepo, propertyRepo, ledgerRepo, log)

	// Register API v1 routes
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	v1 := router.Group("/api/v1", middleware.Authenticate(tokens))
	handlers.RegisterRoutes(v1, handlers.API{
		Citizens:     handlers.NewCitizenHandler(citizenService),
		Properties:   handlers.NewPropertyHandler(propertyService),
		TaxPeriods:   handlers.NewTaxPeriodHandler(periodService),
		HoldingTaxes: handlers.NewHoldingTaxHandler(ledgerService),
		Dashboards:   handlers.NewDashboardHandler(dashboardService),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
