package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-keeper/internal/api/middleware"
	"auction-keeper/internal/config"
	"auction-keeper/internal/domain"
	"auction-keeper/internal/infrastructure/leader"
	"auction-keeper/internal/infrastructure/mysql"
	"auction-keeper/internal/infrastructure/redis"
	"auction-keeper/internal/infrastructure/websocket"
	"auction-keeper/internal/services"
	"auction-keeper/internal/strategy"
	"auction-keeper/pkg/logger"
	"auction-keeper/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func buildStrategyConfig(cfg *config.Config) (strategy.Config, error) {
	maxPrice, err := decimal.NewFromString(cfg.Keeper.MaxPrice)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("invalid keeper.max_price: %w", err)
	}
	step, err := decimal.NewFromString(cfg.Keeper.Step)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("invalid keeper.step: %w", err)
	}
	minimalBid, err := domain.AmountFromString(cfg.Keeper.MinimalBid)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("invalid keeper.minimal_bid: %w", err)
	}
	ceiling, err := domain.AmountFromString(cfg.Keeper.AllowanceCeiling)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("invalid keeper.allowance_ceiling: %w", err)
	}

	return strategy.Config{
		MaxPrice:         maxPrice,
		Step:             step,
		MinimalBid:       minimalBid,
		AllowanceCeiling: ceiling,
	}, nil
}

func main() {
	log := logger.New()
	log.Info("Starting auction keeper")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	strategyCfg, err := buildStrategyConfig(cfg)
	if err != nil {
		log.Error("Invalid keeper configuration", "error", err)
		os.Exit(1)
	}

	bidStrategy, err := strategy.NewBidUpToMaxRate(strategyCfg)
	if err != nil {
		log.Error("Invalid bidding policy", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db := utils.InitializeMysql(ctx, cfg, log)
	defer db.Close()
	log.Info("Connected to MySQL")

	// Initialize repositories
	outcomeRepo := mysql.NewMySQLOutcomeRepository(db)

	// Initialize Redis services
	tokenLedger := redis.NewRedisTokenLedger(rdb, cfg.Keeper.TraderAddress)
	auctionHouse := redis.NewRedisAuctionHouse(rdb, tokenLedger, cfg.Keeper.TraderAddress)
	eventPublisher := redis.NewRedisEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)

	// Initialize leader election
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Initialize connection manager and broadcaster
	connManager := websocket.NewConnectionManager(log)
	lotBroadcaster := websocket.NewWebSocketNotifier(connManager)

	tctx := domain.TradingContext{
		TraderAddress:         cfg.Keeper.TraderAddress,
		AuctionManagerAddress: cfg.Keeper.AuctionManagerAddress,
	}

	keeper := services.NewKeeperService(
		bidStrategy,
		auctionHouse,
		outcomeRepo,
		eventPublisher,
		lotBroadcaster,
		leaderElection,
		tctx,
		cfg.Instance.ID,
		log,
	)

	// Initialize sweep loop
	sweeper := services.NewCronKeeper(keeper, cfg.Keeper.PollInterval, log)

	// Initialize event listener
	eventListener := services.NewEventListener(keeper, lotBroadcaster, log)

	// Initialize handlers
	wsHandler := websocket.NewWebSocketHandler(auctionHouse, connManager, log)

	// Setup routes
	router := mux.NewRouter()
	router.Use(middleware.CORS)

	// WebSocket routes
	router.HandleFunc("/ws/lot/{lotID}", wsHandler.HandleConnection)

	// Status endpoint
	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(keeper.Status(r.Context()))
	}).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start background services
	go func() {
		if err := sweeper.Start(context.Background()); err != nil {
			log.Error("Failed to start sweep loop", "error", err)
		}
	}()

	go func() {
		if err := eventListener.Start(context.Background(), eventSubscriber); err != nil {
			log.Error("Failed to start event listener", "error", err)
		}
	}()

	// Try to become leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}

			if became {
				log.Info("Became keeper leader", "instance_id", cfg.Instance.ID)
			}

			time.Sleep(10 * time.Second)
		}
	}()

	// Start HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting keeper server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down keeper...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop sweep loop
	sweeper.Stop()

	// Release leadership
	leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID)

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Keeper stopped")
}
