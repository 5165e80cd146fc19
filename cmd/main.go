package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-settlement/internal/auth"
	"market-settlement/internal/blockchain"
	"market-settlement/internal/cache"
	"market-settlement/internal/config"
	"market-settlement/internal/database"
	"market-settlement/internal/events"
	"market-settlement/internal/handlers"
	"market-settlement/internal/jobs"
	"market-settlement/internal/logger"
	"market-settlement/internal/metrics"
	"market-settlement/internal/repository"
	"market-settlement/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.App.ServiceName, cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("service stopped", zap.Error(err))
	}
	zl.Info("service exited")
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth.InitJWT(cfg.App.JWTSecret, cfg.App.JWTTTL)

	// Connect to database and run migrations
	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN(), zl)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db, zl); err != nil {
		return err
	}

	repo := repository.NewRepository(db)
	if err := repo.SeedParameters(ctx, cfg.Settlement.Parameters()); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	settlementMetrics := metrics.NewSettlement(registry)

	// Odds cache is optional; wagers never depend on it
	var odds services.OddsPublisher
	if !cfg.Redis.Disabled {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rdb, err := cache.ConnectRedis(pingCtx, cfg.Redis.Addr)
		cancel()
		if err != nil {
			zl.Warn("redis unavailable, odds cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer rdb.Close()
			odds = cache.NewOddsCache(rdb, cfg.Redis.OddsTTL)
		}
	}

	solanaClient, err := blockchain.NewSolanaClient(cfg.Solana.RPCURL, cfg.Solana.VaultAddress, cfg.Solana.VaultSecretKey, zl)
	if err != nil {
		return err
	}

	publisher := events.NewKafkaPublisher(events.NewWriter(cfg.Kafka.Brokers...), cfg.Kafka.TopicPrefix)
	defer publisher.Close()

	// Initialize services
	policy := services.NewAuthorizationPolicy(cfg.Settlement.GovernanceWallet)
	settlementService := services.NewSettlementService(repo, policy, odds, settlementMetrics, zl)
	fundingService := services.NewFundingService(repo, solanaClient, policy, zl)
	authService := services.NewAuthService(repo, zl)
	relay := services.NewEventRelay(repo, publisher, settlementMetrics, zl, cfg.Jobs.RelayBatchSize)

	// Scheduled jobs
	runner := jobs.NewRunner(zl, ctx)
	staleJob := jobs.NewStaleMarketCanceller(settlementService, zl)
	if _, err := runner.Add(cfg.Jobs.StaleMarketSpec, staleJob.Run); err != nil {
		return err
	}
	relayJob := jobs.NewEventRelayJob(relay, zl)
	if _, err := runner.Add(cfg.Jobs.EventRelaySpec, relayJob.Run); err != nil {
		return err
	}
	withdrawalJob := jobs.NewWithdrawalReconciler(fundingService, zl)
	if _, err := runner.Add(cfg.Jobs.WithdrawalReconcileSpec, withdrawalJob.Run); err != nil {
		return err
	}

	// Set up Gin router
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(zl))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Market:   handlers.NewMarketHandler(settlementService),
		Position: handlers.NewPositionHandler(settlementService),
		Wallet:   handlers.NewWalletHandler(fundingService),
		Admin:    handlers.NewAdminHandler(settlementService, solanaClient),
	}, handlers.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst))

	apiServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.Server.MetricsPort, registry, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("api server starting", zap.String("port", cfg.Server.Port))
		return serve(apiServer)
	})
	g.Go(func() error {
		zl.Info("metrics server starting", zap.String("port", cfg.Server.MetricsPort))
		return serve(metricsServer)
	})
	g.Go(func() error {
		runner.Start()
		<-gctx.Done()

		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		runner.Stop()
		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
		)
	})
	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
