package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"market-settlement/internal/events"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMarket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	market := env.createMarket(t, 7)
	assert.Equal(t, models.MarketStatusActive, market.Status)
	assert.Zero(t, market.YesPool)
	assert.Zero(t, market.NoPool)

	escrow, err := env.repo.GetAccount(ctx, models.EscrowAddress(7))
	require.NoError(t, err)
	assert.Equal(t, models.LedgerAccountEscrow, escrow.Kind)
	assert.Zero(t, escrow.Balance)

	req := &models.CreateMarketRequest{
		MarketID:    7,
		Creator:     env.creator,
		Title:       "duplicate",
		Description: "duplicate",
		EndDate:     env.clock.Add(24 * time.Hour),
	}
	_, err = env.svc.CreateMarket(ctx, Caller{Wallet: env.authority}, req)
	assert.ErrorIs(t, err, settlement.ErrMarketExists)
}

func TestCreateMarketValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := func() *models.CreateMarketRequest {
		return &models.CreateMarketRequest{
			MarketID:    1,
			Creator:     env.creator,
			Title:       "title",
			Description: "description",
			EndDate:     env.clock.Add(24 * time.Hour),
		}
	}

	tests := []struct {
		name   string
		caller string
		mutate func(*models.CreateMarketRequest)
		want   error
	}{
		{"not authority", env.creator, func(*models.CreateMarketRequest) {}, settlement.ErrUnauthorized},
		{"empty title", env.authority, func(r *models.CreateMarketRequest) { r.Title = "" }, settlement.ErrInvalidTitle},
		{"empty description", env.authority, func(r *models.CreateMarketRequest) { r.Description = "" }, settlement.ErrInvalidDescription},
		{"bad creator", env.authority, func(r *models.CreateMarketRequest) { r.Creator = "not-a-wallet" }, settlement.ErrInvalidWallet},
		{"end in past", env.authority, func(r *models.CreateMarketRequest) { r.EndDate = env.clock.Add(-time.Hour) }, settlement.ErrInvalidEndDate},
		{"too short", env.authority, func(r *models.CreateMarketRequest) { r.EndDate = env.clock.Add(time.Minute) }, settlement.ErrInvalidDuration},
		{"too long", env.authority, func(r *models.CreateMarketRequest) { r.EndDate = env.clock.AddDate(1, 0, 0) }, settlement.ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := env.svc.CreateMarket(ctx, Caller{Wallet: tt.caller}, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := env.svc.GetMarket(ctx, 1)
	assert.ErrorIs(t, err, settlement.ErrMarketNotFound)
}

func TestCreateMarketByGovernance(t *testing.T) {
	env := newTestEnv(t)
	governance := newWallet()
	env.svc.policy = NewAuthorizationPolicy(governance)

	_, err := env.svc.CreateMarket(context.Background(), Caller{Wallet: governance}, &models.CreateMarketRequest{
		MarketID:    3,
		Creator:     env.creator,
		Title:       "title",
		Description: "description",
		EndDate:     env.clock.Add(48 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestPlaceWager(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	alice := env.bettor(t, 5000)

	p := env.wager(t, alice, 1, models.BetSideYes, 1000)
	assert.Equal(t, uint64(0), p.Sequence)
	assert.Equal(t, uint64(970), p.PoolAmount)
	assert.Equal(t, uint64(20), p.PlatformFee)
	assert.Equal(t, uint64(10), p.CreatorFee)
	assert.Equal(t, uint16(10000), p.OddsAtWager)

	p2 := env.wager(t, alice, 1, models.BetSideNo, 1000)
	assert.Equal(t, uint64(1), p2.Sequence)
	assert.Equal(t, uint16(5000), p2.OddsAtWager)

	market, err := env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(970), market.YesPool)
	assert.Equal(t, uint64(970), market.NoPool)
	assert.Equal(t, uint64(2000), market.TotalVolume)
	assert.Equal(t, uint64(2), market.TotalBets)
	assert.Equal(t, uint32(1), market.UniqueBettors)
	assert.NoError(t, settlement.CheckPoolIdentity(market))

	assert.Equal(t, uint64(3000), env.balance(t, alice))
	assert.Equal(t, uint64(2000), env.balance(t, models.EscrowAddress(1)))

	evts, err := env.svc.ListMarketEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, evts, 3)
	assert.Equal(t, models.EventMarketCreated, evts[0].EventType)
	assert.Equal(t, models.EventWagerPlaced, evts[2].EventType)
}

func TestPlaceWagerRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	alice := env.bettor(t, 1_000_000)

	params := testParameters(env.authority)
	_, err := env.svc.UpdateParameters(ctx, Caller{Wallet: env.authority}, &models.UpdateParametersRequest{
		PlatformFeeBps:           params.PlatformFeeBps,
		CreatorFeeBps:            params.CreatorFeeBps,
		MinBet:                   100,
		MaxBet:                   10_000,
		MaxMarketSize:            20_000,
		MinDurationSeconds:       params.MinDurationSeconds,
		MaxDurationSeconds:       params.MaxDurationSeconds,
		StaleMarketThresholdDays: params.StaleMarketThresholdDays,
		MarketCreationEnabled:    true,
		BettingEnabled:           true,
		ResolutionEnabled:        true,
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller string
		market uint64
		side   models.BetSide
		amount uint64
		want   error
	}{
		{"anonymous", "", 1, models.BetSideYes, 1000, settlement.ErrUnauthorized},
		{"bad side", alice, 1, "MAYBE", 1000, settlement.ErrInvalidSide},
		{"zero amount", alice, 1, models.BetSideYes, 0, settlement.ErrInvalidAmount},
		{"unknown market", alice, 99, models.BetSideYes, 1000, settlement.ErrMarketNotFound},
		{"below min", alice, 1, models.BetSideYes, 99, settlement.ErrBetTooSmall},
		{"above max", alice, 1, models.BetSideYes, 10_001, settlement.ErrBetTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.PlaceWager(ctx, Caller{Wallet: tt.caller}, tt.market, tt.side, tt.amount)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// the pool may grow to the cap but not past it
	env.wager(t, alice, 1, models.BetSideYes, 10_000)
	env.wager(t, alice, 1, models.BetSideNo, 10_000)
	_, err = env.svc.PlaceWager(ctx, Caller{Wallet: alice}, 1, models.BetSideNo, 1_000)
	assert.ErrorIs(t, err, settlement.ErrMarketSizeExceeded)

	env.endMarkets()
	_, err = env.svc.PlaceWager(ctx, Caller{Wallet: alice}, 1, models.BetSideYes, 1000)
	assert.ErrorIs(t, err, settlement.ErrMarketEnded)
	_, err = env.svc.PlaceWager(ctx, Caller{Wallet: alice}, 1, models.BetSideYes, 0)
	assert.ErrorIs(t, err, settlement.ErrMarketEnded)

	_, err = env.svc.CancelMarket(ctx, Caller{Wallet: env.authority}, 1)
	require.NoError(t, err)
	_, err = env.svc.PlaceWager(ctx, Caller{Wallet: alice}, 1, models.BetSideYes, 0)
	assert.ErrorIs(t, err, settlement.ErrMarketNotActive)

	market, err := env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), market.TotalBets)
}

func TestUpdateParametersRejectsUnstorableAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := testParameters(env.authority)

	request := func(minBet, maxBet, maxMarket uint64) *models.UpdateParametersRequest {
		return &models.UpdateParametersRequest{
			PlatformFeeBps:           params.PlatformFeeBps,
			CreatorFeeBps:            params.CreatorFeeBps,
			MinBet:                   minBet,
			MaxBet:                   maxBet,
			MaxMarketSize:            maxMarket,
			MinDurationSeconds:       params.MinDurationSeconds,
			MaxDurationSeconds:       params.MaxDurationSeconds,
			StaleMarketThresholdDays: params.StaleMarketThresholdDays,
			MarketCreationEnabled:    true,
			BettingEnabled:           true,
			ResolutionEnabled:        true,
		}
	}
	caller := Caller{Wallet: env.authority}

	tests := []struct {
		name string
		req  *models.UpdateParametersRequest
	}{
		{"market size past storage", request(1, 1000, settlement.MaxStoredAmount+1)},
		{"everything at uint64 max", request(math.MaxUint64, math.MaxUint64, math.MaxUint64)},
		{"max bet past market size", request(1, 2000, 1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.UpdateParameters(ctx, caller, tt.req)
			assert.ErrorIs(t, err, settlement.ErrInvalidAmount)
		})
	}

	next, err := env.svc.UpdateParameters(ctx, caller, request(1, settlement.MaxStoredAmount, settlement.MaxStoredAmount))
	require.NoError(t, err)
	assert.Equal(t, settlement.MaxStoredAmount, next.MaxMarketSize)
}

func TestPlaceWagerInsufficientFundsLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	poor := env.bettor(t, 50)

	_, err := env.svc.PlaceWager(ctx, Caller{Wallet: poor}, 1, models.BetSideYes, 100)
	assert.ErrorIs(t, err, settlement.ErrInsufficientFunds)

	market, err := env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, market.YesPool)
	assert.Zero(t, market.TotalBets)
	assert.Zero(t, market.UniqueBettors)
	assert.Equal(t, uint64(50), env.balance(t, poor))

	positions, err := env.svc.ListPositions(ctx, repository.PositionFilter{Bettor: poor})
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPlaceWagerBettingDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	alice := env.bettor(t, 1000)

	params := testParameters(env.authority)
	_, err := env.svc.UpdateParameters(ctx, Caller{Wallet: env.authority}, &models.UpdateParametersRequest{
		PlatformFeeBps:           params.PlatformFeeBps,
		CreatorFeeBps:            params.CreatorFeeBps,
		MinBet:                   params.MinBet,
		MaxBet:                   params.MaxBet,
		MaxMarketSize:            params.MaxMarketSize,
		MinDurationSeconds:       params.MinDurationSeconds,
		MaxDurationSeconds:       params.MaxDurationSeconds,
		StaleMarketThresholdDays: params.StaleMarketThresholdDays,
		MarketCreationEnabled:    true,
		ResolutionEnabled:        true,
	})
	require.NoError(t, err)

	_, err = env.svc.PlaceWager(ctx, Caller{Wallet: alice}, 1, models.BetSideYes, 100)
	assert.ErrorIs(t, err, settlement.ErrBettingDisabled)

	current, err := env.svc.GetParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), current.Version)
}

func TestConcurrentWagersStayConsistent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)

	const bettors = 16
	wallets := make([]string, bettors)
	for i := range wallets {
		wallets[i] = env.bettor(t, 1000)
	}

	var wg sync.WaitGroup
	errs := make(chan error, bettors)
	for i, w := range wallets {
		side := models.BetSideYes
		if i%2 == 1 {
			side = models.BetSideNo
		}
		wg.Add(1)
		go func(wallet string, side models.BetSide) {
			defer wg.Done()
			_, err := env.svc.PlaceWager(ctx, Caller{Wallet: wallet}, 1, side, 1000)
			errs <- err
		}(w, side)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	market, err := env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(bettors), market.TotalBets)
	assert.Equal(t, uint32(bettors), market.UniqueBettors)
	assert.Equal(t, uint64(bettors*970/2), market.YesPool)
	assert.Equal(t, uint64(bettors*970/2), market.NoPool)
	assert.NoError(t, settlement.CheckPoolIdentity(market))
	assert.Equal(t, uint64(bettors*1000), env.balance(t, models.EscrowAddress(1)))

	mid := uint64(1)
	positions, err := env.svc.ListPositions(ctx, repository.PositionFilter{MarketID: &mid})
	require.NoError(t, err)
	seen := make(map[uint64]bool)
	for _, p := range positions {
		seen[p.Sequence] = true
	}
	assert.Len(t, seen, bettors)
	assert.Equal(t, 0, env.svc.locks.Len())
}

func TestConcurrentClaimsPayEachPositionOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)

	const (
		winners  = 7
		attempts = 3
	)
	positions := make([]*models.Position, winners)
	for i := range positions {
		amount := uint64(100 + 37*i)
		positions[i] = env.wager(t, env.bettor(t, amount), 1, models.BetSideYes, amount)
	}
	env.wager(t, env.bettor(t, 1000), 1, models.BetSideNo, 1000)

	env.endMarkets()
	market, err := env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, env.recipients())
	require.NoError(t, err)
	pool, ok := market.PoolTotal()
	require.True(t, ok)

	type outcome struct {
		position int
		paid     uint64
		err      error
	}
	results := make(chan outcome, winners*attempts)
	var wg sync.WaitGroup
	for i, p := range positions {
		for range attempts {
			wg.Add(1)
			go func(i int, p *models.Position) {
				defer wg.Done()
				result, err := env.svc.ClaimPayout(ctx, Caller{Wallet: p.Bettor}, p.ID)
				o := outcome{position: i, err: err}
				if err == nil {
					o.paid = result.Claim.Actual
				}
				results <- o
			}(i, p)
		}
	}
	wg.Wait()
	close(results)

	successes := make(map[int]int)
	paid := make(map[int]uint64)
	var total uint64
	for o := range results {
		if o.err != nil {
			require.ErrorIs(t, o.err, settlement.ErrAlreadyClaimed)
			continue
		}
		successes[o.position]++
		paid[o.position] = o.paid
		total += o.paid
	}

	for i, p := range positions {
		assert.Equal(t, 1, successes[i], "position %d", i)
		assert.Equal(t, paid[i], env.balance(t, p.Bettor), "position %d", i)
	}

	market, err = env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, total, market.TotalClaimed)
	assert.LessOrEqual(t, market.TotalClaimed, pool)
	assert.Equal(t, pool-market.TotalClaimed, env.balance(t, models.EscrowAddress(1)))
	assert.Equal(t, 0, env.svc.locks.Len())
}

func TestResolveAndClaimPayout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	alice := env.bettor(t, 1000)
	bob := env.bettor(t, 1000)
	yes := env.wager(t, alice, 1, models.BetSideYes, 1000)
	no := env.wager(t, bob, 1, models.BetSideNo, 1000)

	_, err := env.svc.ClaimPayout(ctx, Caller{Wallet: alice}, yes.ID)
	assert.ErrorIs(t, err, settlement.ErrMarketNotResolved)

	env.endMarkets()
	market, err := env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, env.recipients())
	require.NoError(t, err)
	assert.Equal(t, models.MarketStatusResolved, market.Status)
	assert.True(t, market.FeesDistributed)

	assert.Equal(t, uint64(40), env.balance(t, env.authority))
	assert.Equal(t, uint64(20), env.balance(t, env.creator))
	assert.Equal(t, uint64(1940), env.balance(t, models.EscrowAddress(1)))

	_, err = env.svc.ClaimPayout(ctx, Caller{Wallet: bob}, yes.ID)
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	result, err := env.svc.ClaimPayout(ctx, Caller{Wallet: alice}, yes.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1940), result.Claim.Actual)
	assert.Equal(t, uint64(1940), result.Market.TotalClaimed)
	assert.Equal(t, uint64(1940), env.balance(t, alice))
	assert.Zero(t, env.balance(t, models.EscrowAddress(1)))

	_, err = env.svc.ClaimPayout(ctx, Caller{Wallet: alice}, yes.ID)
	assert.ErrorIs(t, err, settlement.ErrAlreadyClaimed)
	assert.Equal(t, uint64(1940), env.balance(t, alice))
	assert.Zero(t, env.balance(t, models.EscrowAddress(1)))

	_, err = env.svc.ClaimPayout(ctx, Caller{Wallet: bob}, no.ID)
	assert.ErrorIs(t, err, settlement.ErrBetLost)
	lost, err := env.svc.GetPosition(ctx, no.ID)
	require.NoError(t, err)
	assert.False(t, lost.Claimed)
	assert.Zero(t, env.balance(t, bob))

	_, err = env.svc.ClaimRefund(ctx, Caller{Wallet: bob}, no.ID)
	assert.ErrorIs(t, err, settlement.ErrMarketNotCancelled)
}

func TestResolveMarketRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)

	_, err := env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, env.recipients())
	assert.ErrorIs(t, err, settlement.ErrMarketNotEnded)

	env.endMarkets()
	_, err = env.svc.ResolveMarket(ctx, Caller{Wallet: env.authority}, 1, models.BetSideYes, env.recipients())
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	wrongPlatform := Recipients{Platform: newWallet(), Creator: env.creator}
	_, err = env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, wrongPlatform)
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	wrongCreator := Recipients{Platform: env.authority, Creator: newWallet()}
	_, err = env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, wrongCreator)
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	_, err = env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, "MAYBE", env.recipients())
	assert.ErrorIs(t, err, settlement.ErrInvalidSide)

	// a market without wagers resolves without moving any fees
	_, err = env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideNo, env.recipients())
	require.NoError(t, err)

	_, err = env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, env.recipients())
	assert.ErrorIs(t, err, settlement.ErrMarketAlreadyResolved)

	_, err = env.svc.CancelMarket(ctx, Caller{Wallet: env.authority}, 1)
	assert.ErrorIs(t, err, settlement.ErrCannotCancelResolvedMarket)
}

func TestPayoutDustStaysInEscrow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)

	winners := make([]*models.Position, 3)
	for i := range winners {
		winners[i] = env.wager(t, env.bettor(t, 100), 1, models.BetSideYes, 100)
	}
	env.wager(t, env.bettor(t, 1000), 1, models.BetSideNo, 1000)

	env.endMarkets()
	market, err := env.svc.ResolveMarket(ctx, Caller{Wallet: env.creator}, 1, models.BetSideYes, env.recipients())
	require.NoError(t, err)
	pool, _ := market.PoolTotal()

	var paid uint64
	for _, p := range winners {
		result, err := env.svc.ClaimPayout(ctx, Caller{Wallet: p.Bettor}, p.ID)
		require.NoError(t, err)
		paid += result.Claim.Actual
	}

	market, err = env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, paid, market.TotalClaimed)
	assert.LessOrEqual(t, paid, pool)
	assert.Equal(t, pool-paid, env.balance(t, models.EscrowAddress(1)))
}

func TestCancelAndRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)

	a := env.wager(t, env.bettor(t, 100), 1, models.BetSideYes, 100)
	b := env.wager(t, env.bettor(t, 200), 1, models.BetSideNo, 200)
	c := env.wager(t, env.bettor(t, 300), 1, models.BetSideYes, 300)

	_, err := env.svc.CancelMarket(ctx, Caller{Wallet: env.authority}, 1)
	assert.ErrorIs(t, err, settlement.ErrCannotCancelBeforeEndDate)

	env.endMarkets()
	_, err = env.svc.CancelMarket(ctx, Caller{Wallet: env.creator}, 1)
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	market, err := env.svc.CancelMarket(ctx, Caller{Wallet: env.authority}, 1)
	require.NoError(t, err)
	assert.Equal(t, models.MarketStatusCancelled, market.Status)
	assert.NotNil(t, market.CancelledAt)

	_, err = env.svc.ClaimPayout(ctx, Caller{Wallet: a.Bettor}, a.ID)
	assert.ErrorIs(t, err, settlement.ErrMarketNotResolved)

	for _, p := range []*models.Position{a, b, c} {
		result, err := env.svc.ClaimRefund(ctx, Caller{Wallet: p.Bettor}, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.GrossAmount, result.Claim.Actual)
		assert.Equal(t, p.GrossAmount, env.balance(t, p.Bettor))
	}

	market, err = env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), market.TotalClaimed)
	assert.Zero(t, env.balance(t, models.EscrowAddress(1)))

	_, err = env.svc.ClaimRefund(ctx, Caller{Wallet: a.Bettor}, a.ID)
	assert.ErrorIs(t, err, settlement.ErrAlreadyClaimed)
	assert.Equal(t, a.GrossAmount, env.balance(t, a.Bettor))
	assert.Zero(t, env.balance(t, models.EscrowAddress(1)))

	_, err = env.svc.CancelMarket(ctx, Caller{Wallet: env.authority}, 1)
	assert.ErrorIs(t, err, settlement.ErrCannotCancelResolvedMarket)
}

func TestCancelStaleMarkets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	env.wager(t, env.bettor(t, 1000), 1, models.BetSideYes, 1000)

	env.clock = env.clock.AddDate(0, 0, 20)
	env.createMarket(t, 2)

	// market 1 ended 28 days ago, market 2 has not ended
	env.clock = env.clock.AddDate(0, 0, 9)
	summary, err := env.svc.CancelStaleMarkets(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Checked)

	env.clock = env.clock.AddDate(0, 0, 3)
	summary, err = env.svc.CancelStaleMarkets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Cancelled)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, uint64(1000), summary.TotalRefundable)

	m1, err := env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.MarketStatusCancelled, m1.Status)
	m2, err := env.svc.GetMarket(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.MarketStatusActive, m2.Status)
}

func TestGetQuote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createMarket(t, 1)
	env.wager(t, env.bettor(t, 1000), 1, models.BetSideNo, 1000)

	quote, err := env.svc.GetQuote(ctx, 1, models.BetSideYes, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(970), quote.PoolAmount)
	assert.Equal(t, uint64(20), quote.PlatformFee)
	assert.Equal(t, uint64(10), quote.CreatorFee)
	assert.Equal(t, uint16(5000), quote.YesOddsAfterBps)
	assert.Equal(t, uint64(1940), quote.PotentialPayout)
	assert.Equal(t, "0.000001940", quote.PotentialPayoutSOL)

	market, err := env.svc.GetMarket(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, market.YesPool)

	_, err = env.svc.GetQuote(ctx, 1, models.BetSideYes, 0)
	assert.ErrorIs(t, err, settlement.ErrInvalidAmount)
}

type recordingOdds struct {
	mu      sync.Mutex
	updates []events.OddsUpdate
}

func (r *recordingOdds) PublishOdds(_ context.Context, update events.OddsUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	return nil
}

func TestPlaceWagerPublishesOdds(t *testing.T) {
	env := newTestEnv(t)
	odds := &recordingOdds{}
	env.svc.odds = odds
	env.createMarket(t, 1)

	env.wager(t, env.bettor(t, 1000), 1, models.BetSideYes, 1000)
	env.wager(t, env.bettor(t, 3000), 1, models.BetSideNo, 3000)

	require.Len(t, odds.updates, 2)
	last := odds.updates[1]
	assert.Equal(t, uint64(1), last.MarketID)
	assert.Equal(t, uint16(2500), last.YesOdds)
	assert.Equal(t, uint16(7500), last.NoOdds)
}
