package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PLATFORM_AUTHORITY", "Authority1111111111111111111111111111111111")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(200), cfg.Settlement.PlatformFeeBps)
	assert.Equal(t, uint16(100), cfg.Settlement.CreatorFeeBps)
	assert.Equal(t, uint64(10_000_000), cfg.Settlement.MinBet)
	assert.Equal(t, uint64(100_000_000_000), cfg.Settlement.MaxBet)
	assert.Equal(t, 30, cfg.Settlement.StaleMarketThresholdDays)
	assert.Equal(t, 24*time.Hour, cfg.App.JWTTTL)
	assert.Equal(t, "0 0 0 * * *", cfg.Jobs.StaleMarketSpec)
	assert.Equal(t, "*/30 * * * * *", cfg.Jobs.WithdrawalReconcileSpec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PLATFORM_AUTHORITY", "auth")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("PLATFORM_FEE_BPS", "150")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(150), cfg.Settlement.PlatformFeeBps)
	assert.Equal(t, "/tmp/test.db", cfg.GetDSN())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PLATFORM_AUTHORITY", "auth")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PLATFORM_AUTHORITY", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PLATFORM_AUTHORITY", "auth")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("MAX_MARKET_SIZE_LAMPORTS", "9223372036854775808")
	_, err = Load()
	assert.ErrorContains(t, err, "MAX_MARKET_SIZE_LAMPORTS")
}

func TestSettlementParameters(t *testing.T) {
	cfg := SettlementConfig{
		Authority:                "authority",
		PlatformFeeBps:           200,
		CreatorFeeBps:            100,
		MinBet:                   1,
		MaxBet:                   10,
		MaxMarketSize:            100,
		StaleMarketThresholdDays: 30,
	}

	params := cfg.Parameters()
	assert.Equal(t, "authority", params.Authority)
	assert.Equal(t, uint16(300), params.PlatformFeeBps+params.CreatorFeeBps)
	assert.True(t, params.BettingEnabled)
	assert.True(t, params.MarketCreationEnabled)
	assert.True(t, params.ResolutionEnabled)
}
