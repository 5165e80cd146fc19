package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"market-settlement/internal/config"
	"market-settlement/internal/database"
	"market-settlement/internal/logger"
	"market-settlement/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.App.ServiceName+"-migrate", cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Database.Driver == "postgres" {
		if err := database.EnsureDatabase(cfg.GetAdminDSN(), cfg.Database.DBName, zl); err != nil {
			zl.Fatal("failed to ensure database", zap.Error(err))
		}
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN(), zl)
	if err != nil {
		zl.Fatal("failed to connect", zap.Error(err))
	}
	if err := database.AutoMigrate(db, zl); err != nil {
		zl.Fatal("failed to migrate", zap.Error(err))
	}

	repo := repository.NewRepository(db)
	if err := repo.SeedParameters(context.Background(), cfg.Settlement.Parameters()); err != nil {
		zl.Fatal("failed to seed parameters", zap.Error(err))
	}

	params, err := repo.GetParameters(context.Background())
	if err != nil {
		zl.Fatal("failed to read parameters", zap.Error(err))
	}
	zl.Info("migration complete",
		zap.String("authority", params.Authority),
		zap.Uint32("parameters_version", params.Version),
	)
}
