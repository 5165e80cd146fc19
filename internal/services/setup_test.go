package services

import (
	"context"
	"testing"
	"time"

	"market-settlement/internal/database"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	repo      *repository.Repository
	svc       *SettlementService
	authority string
	creator   string
	clock     time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, model := range database.Models() {
		require.NoError(t, db.AutoMigrate(model))
	}
	return db
}

func testParameters(authority string) *models.GlobalParameters {
	return &models.GlobalParameters{
		Authority:                authority,
		PlatformFeeBps:           200,
		CreatorFeeBps:            100,
		MinBet:                   1,
		MaxBet:                   1_000_000_000_000,
		MaxMarketSize:            1_000_000_000_000_000,
		MinDurationSeconds:       3600,
		MaxDurationSeconds:       90 * 24 * 3600,
		StaleMarketThresholdDays: 30,
		MarketCreationEnabled:    true,
		BettingEnabled:           true,
		ResolutionEnabled:        true,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := repository.NewRepository(setupTestDB(t))

	env := &testEnv{
		repo:      repo,
		authority: newWallet(),
		creator:   newWallet(),
		clock:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SeedParameters(context.Background(), testParameters(env.authority)))

	env.svc = NewSettlementService(repo, NewAuthorizationPolicy(""), nil, nil, nil)
	env.svc.SetClock(func() time.Time { return env.clock })
	return env
}

func newWallet() string {
	return solana.NewWallet().PublicKey().String()
}

// createMarket registers a market ending one day from the current clock
func (e *testEnv) createMarket(t *testing.T, marketID uint64) *models.Market {
	t.Helper()
	market, err := e.svc.CreateMarket(context.Background(), Caller{Wallet: e.authority}, &models.CreateMarketRequest{
		MarketID:    marketID,
		Creator:     e.creator,
		Title:       "Will it rain tomorrow?",
		Description: "Resolves YES if any rain is recorded.",
		EndDate:     e.clock.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return market
}

// fund credits wallet with lamports from outside the ledger
func (e *testEnv) fund(t *testing.T, wallet string, lamports uint64) {
	t.Helper()
	ctx := context.Background()
	err := e.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.EnsureAccount(ctx, wallet, models.LedgerAccountWallet); err != nil {
			return err
		}
		_, err := tx.Transfer(ctx, models.Transfer{
			From:   models.ExternalAddress,
			To:     wallet,
			Amount: lamports,
			Type:   models.LedgerEntryDeposit,
		})
		return err
	})
	require.NoError(t, err)
}

// bettor returns a new wallet funded with lamports
func (e *testEnv) bettor(t *testing.T, lamports uint64) string {
	t.Helper()
	wallet := newWallet()
	e.fund(t, wallet, lamports)
	return wallet
}

func (e *testEnv) balance(t *testing.T, address string) uint64 {
	t.Helper()
	b, err := e.repo.Balance(context.Background(), address)
	require.NoError(t, err)
	return b
}

func (e *testEnv) wager(t *testing.T, wallet string, marketID uint64, side models.BetSide, amount uint64) *models.Position {
	t.Helper()
	p, err := e.svc.PlaceWager(context.Background(), Caller{Wallet: wallet}, marketID, side, amount)
	require.NoError(t, err)
	return p
}

func (e *testEnv) recipients() Recipients {
	return Recipients{Platform: e.authority, Creator: e.creator}
}

// endMarkets moves the clock past the end date of every market created so far
func (e *testEnv) endMarkets() {
	e.clock = e.clock.Add(25 * time.Hour)
}
