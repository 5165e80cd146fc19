package database

import (
	"database/sql"
	"fmt"

	"market-settlement/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a gorm connection for driver "postgres" or "sqlite"
func Connect(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// one writer at a time; concurrent writers would otherwise fail with SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connection established", zap.String("driver", driver))
	return db, nil
}

// Models returns every persisted model, grouped in migration order
func Models() []interface{} {
	settlementModels := []interface{}{
		&models.GlobalParameters{},
		&models.Market{},
		&models.Position{},
		&models.SettlementEvent{},
	}
	ledgerModels := []interface{}{
		&models.LedgerAccount{},
		&models.LedgerEntry{},
	}
	userModels := []interface{}{
		&models.User{},
	}

	all := append([]interface{}{}, settlementModels...)
	all = append(all, ledgerModels...)
	return append(all, userModels...)
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Info("database migrations completed")
	return nil
}

// EnsureDatabase creates the PostgreSQL database name if it does not exist,
// connecting through adminDSN.
func EnsureDatabase(adminDSN, name string, log *zap.Logger) error {
	conn, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer conn.Close()

	var exists bool
	err = conn.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := conn.Exec("CREATE DATABASE " + pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	log.Info("database created", zap.String("name", name))
	return nil
}
