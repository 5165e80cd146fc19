package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"market-settlement/internal/blockchain"
	"market-settlement/internal/events"
	"market-settlement/internal/metrics"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTitleLength       = 128
	maxDescriptionLength = 512
	oddsPublishTimeout   = 2 * time.Second
)

// OddsPublisher receives the odds of a market after every committed wager
type OddsPublisher interface {
	PublishOdds(ctx context.Context, update events.OddsUpdate) error
}

// SettlementService is the settlement engine. Every mutating operation takes
// the market's lock, re-reads the market row inside a transaction, checks
// all preconditions and only then writes.
type SettlementService struct {
	repo    *repository.Repository
	policy  *AuthorizationPolicy
	locks   *MarketLocks
	odds    OddsPublisher
	metrics *metrics.Settlement
	logger  *zap.Logger
	now     func() time.Time
}

func NewSettlementService(
	repo *repository.Repository,
	policy *AuthorizationPolicy,
	odds OddsPublisher,
	m *metrics.Settlement,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		repo:    repo,
		policy:  policy,
		locks:   NewMarketLocks(),
		odds:    odds,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (s *SettlementService) SetClock(now func() time.Time) {
	s.now = now
}

// observe records latency and, for failures, the error code of an operation
func (s *SettlementService) observe(op string, start time.Time, errp *error) {
	s.metrics.Observe(op, start)
	err := *errp
	if err == nil {
		return
	}

	code := settlement.CodeOf(err)
	switch {
	case code == "":
		s.metrics.Error(op, "internal")
		s.logger.Error("settlement operation failed", zap.String("operation", op), zap.Error(err))
	case settlement.KindOf(err) == settlement.KindFatal:
		s.metrics.Error(op, code)
		s.logger.Error("settlement invariant violated", zap.String("operation", op), zap.String("code", code), zap.Error(err))
	default:
		s.metrics.Error(op, code)
		s.logger.Debug("settlement operation rejected", zap.String("operation", op), zap.String("code", code))
	}
}

// CreateMarket registers a market approved by governance, with empty pools
// and its escrow account
func (s *SettlementService) CreateMarket(
	ctx context.Context,
	caller Caller,
	req *models.CreateMarketRequest,
) (market *models.Market, err error) {
	defer s.observe("create_market", time.Now(), &err)

	params, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}
	if err := s.policy.CanCreate(caller, params); err != nil {
		return nil, err
	}
	if !params.MarketCreationEnabled {
		return nil, settlement.ErrMarketCreationDisabled
	}

	now := s.now()
	if err := validateNewMarket(req, params, now); err != nil {
		return nil, err
	}

	market = &models.Market{
		MarketID:    req.MarketID,
		Creator:     req.Creator,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.MarketStatusActive,
		EndDate:     req.EndDate,
		CreatedAt:   now,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateMarket(ctx, market); err != nil {
			return err
		}
		if err := tx.EnsureAccount(ctx, models.EscrowAddress(market.MarketID), models.LedgerAccountEscrow); err != nil {
			return fmt.Errorf("failed to create escrow account: %w", err)
		}
		_, err := tx.CreateEvent(ctx, market.MarketID, models.EventMarketCreated, events.MarketCreated{
			MarketID: market.MarketID,
			Creator:  market.Creator,
			Title:    market.Title,
			EndDate:  market.EndDate,
			TsUnixMs: now.UnixMilli(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("market created",
		zap.Uint64("market_id", market.MarketID),
		zap.String("creator", market.Creator),
		zap.Time("end_date", market.EndDate),
	)
	return market, nil
}

func validateNewMarket(req *models.CreateMarketRequest, params *models.GlobalParameters, now time.Time) error {
	if n := utf8.RuneCountInString(req.Title); n == 0 || n > maxTitleLength {
		return settlement.ErrInvalidTitle
	}
	if n := utf8.RuneCountInString(req.Description); n == 0 || n > maxDescriptionLength {
		return settlement.ErrInvalidDescription
	}
	if !blockchain.ValidateWalletAddress(req.Creator) {
		return settlement.ErrInvalidWallet
	}
	if !req.EndDate.After(now) {
		return settlement.ErrInvalidEndDate
	}
	duration := int64(req.EndDate.Sub(now) / time.Second)
	if duration < params.MinDurationSeconds || duration > params.MaxDurationSeconds {
		return settlement.ErrInvalidDuration
	}
	return nil
}

// checkWager validates a wager of amount against market and params and
// returns its fee split. Lifecycle checks come before amount checks.
func checkWager(
	market *models.Market,
	params *models.GlobalParameters,
	amount uint64,
	now time.Time,
) (settlement.FeeSplit, error) {
	if !params.BettingEnabled {
		return settlement.FeeSplit{}, settlement.ErrBettingDisabled
	}
	if market.Status != models.MarketStatusActive {
		return settlement.FeeSplit{}, settlement.ErrMarketNotActive
	}
	if !now.Before(market.EndDate) {
		return settlement.FeeSplit{}, settlement.ErrMarketEnded
	}
	if amount == 0 {
		return settlement.FeeSplit{}, settlement.ErrInvalidAmount
	}
	if amount < params.MinBet {
		return settlement.FeeSplit{}, settlement.ErrBetTooSmall
	}
	if amount > params.MaxBet {
		return settlement.FeeSplit{}, settlement.ErrBetTooLarge
	}

	fees, err := settlement.CalculateFees(amount, params.PlatformFeeBps, params.CreatorFeeBps)
	if err != nil {
		return settlement.FeeSplit{}, err
	}

	total, ok := market.PoolTotal()
	if !ok {
		return settlement.FeeSplit{}, settlement.ErrPoolOverflow
	}
	if after := total + fees.PoolAmount; after < total || after > params.MaxMarketSize {
		return settlement.FeeSplit{}, settlement.ErrMarketSizeExceeded
	}
	return fees, nil
}

// PlaceWager moves amount from the caller's balance into the market escrow
// and records a position on side
func (s *SettlementService) PlaceWager(
	ctx context.Context,
	caller Caller,
	marketID uint64,
	side models.BetSide,
	amount uint64,
) (position *models.Position, err error) {
	defer s.observe("place_wager", time.Now(), &err)

	if err := s.policy.RequireBettor(caller); err != nil {
		return nil, err
	}
	if !side.Valid() {
		return nil, settlement.ErrInvalidSide
	}

	unlock := s.locks.Lock(marketID)
	defer unlock()

	params, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	var market *models.Market
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}

		now := s.now()
		fees, err := checkWager(m, params, amount, now)
		if err != nil {
			return err
		}

		seen, err := tx.HasPosition(ctx, marketID, caller.Wallet)
		if err != nil {
			return err
		}
		result, err := settlement.ApplyWager(m, side, fees, !seen)
		if err != nil {
			return err
		}

		p := &models.Position{
			ID:          uuid.New(),
			MarketID:    marketID,
			Bettor:      caller.Wallet,
			Sequence:    result.Sequence,
			Side:        side,
			GrossAmount: fees.Amount,
			PoolAmount:  fees.PoolAmount,
			PlatformFee: fees.PlatformFee,
			CreatorFee:  fees.CreatorFee,
			OddsAtWager: result.OddsAfter,
			CreatedAt:   now,
		}
		if p.GrossAmount != p.PoolAmount+p.PlatformFee+p.CreatorFee {
			return settlement.ErrConservationViolated
		}

		_, err = tx.Transfer(ctx, models.Transfer{
			From:       caller.Wallet,
			To:         models.EscrowAddress(marketID),
			Amount:     amount,
			Type:       models.LedgerEntryWager,
			MarketID:   &marketID,
			PositionID: &p.ID,
		})
		if err != nil {
			return err
		}

		if err := tx.SaveMarket(ctx, m); err != nil {
			return fmt.Errorf("failed to update market: %w", err)
		}
		if err := tx.CreatePosition(ctx, p); err != nil {
			return fmt.Errorf("failed to create position: %w", err)
		}
		_, err = tx.CreateEvent(ctx, marketID, models.EventWagerPlaced, events.WagerPlaced{
			MarketID:    marketID,
			PositionID:  p.ID.String(),
			Bettor:      p.Bettor,
			Side:        string(side),
			Sequence:    p.Sequence,
			GrossAmount: p.GrossAmount,
			PoolAmount:  p.PoolAmount,
			PlatformFee: p.PlatformFee,
			CreatorFee:  p.CreatorFee,
			OddsBps:     p.OddsAtWager,
			YesPool:     m.YesPool,
			NoPool:      m.NoPool,
			TsUnixMs:    now.UnixMilli(),
		})
		if err != nil {
			return err
		}

		market = m
		position = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOdds(ctx, market)
	s.metrics.Wager(string(side), amount)
	s.logger.Info("wager placed",
		zap.Uint64("market_id", marketID),
		zap.String("position_id", position.ID.String()),
		zap.String("bettor", position.Bettor),
		zap.String("side", string(side)),
		zap.Uint64("amount", amount),
		zap.Uint16("odds_bps", position.OddsAtWager),
	)
	return position, nil
}

// publishOdds pushes the committed odds to the cache. Failures are logged
// and never undo the wager.
func (s *SettlementService) publishOdds(ctx context.Context, market *models.Market) {
	if s.odds == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), oddsPublishTimeout)
	defer cancel()

	yesOdds := settlement.CalculateOdds(market.YesPool, market.NoPool)
	update := events.OddsUpdate{
		MarketID: market.MarketID,
		YesOdds:  yesOdds,
		NoOdds:   settlement.NoOdds(yesOdds),
		YesPool:  market.YesPool,
		NoPool:   market.NoPool,
		TsUnixMs: s.now().UnixMilli(),
	}
	if err := s.odds.PublishOdds(ctx, update); err != nil {
		s.logger.Warn("failed to publish odds", zap.Uint64("market_id", market.MarketID), zap.Error(err))
	}
}
