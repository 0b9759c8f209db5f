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

	"auction-keeper/internal/api/handlers"
	"auction-keeper/internal/config"
	"auction-keeper/internal/infrastructure/mysql"
	"auction-keeper/pkg/logger"
	"auction-keeper/pkg/utils"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting keeper API service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Initialize MySQL
	db := utils.InitializeMysql(ctx, cfg, log)
	defer db.Close()
	log.Info("Connected to MySQL")

	// Initialize repositories
	outcomeRepo := mysql.NewMySQLOutcomeRepository(db)
	auctionRepo := mysql.NewMySQLAuctionRepository(db)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
		},
	}))

	// Initialize handlers
	keeperHandler := handlers.NewKeeperHandler(outcomeRepo, auctionRepo, log)

	// API routes
	api := e.Group("/api/v1")
	api.GET("/lots/:lotID/outcomes", keeperHandler.GetLotOutcomes)
	api.GET("/outcomes/recent", keeperHandler.GetRecentOutcomes)
	api.GET("/auctions/watched", keeperHandler.GetWatchedAuctions)
	api.GET("/auctions/:id", keeperHandler.GetAuction)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "keeper-api",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Info("Starting keeper API server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down keeper API service...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Keeper API service stopped")
}
