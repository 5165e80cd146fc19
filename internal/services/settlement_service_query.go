package services

import (
	"context"
	"fmt"

	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// GetMarket retrieves a market by id
func (s *SettlementService) GetMarket(ctx context.Context, marketID uint64) (*models.Market, error) {
	return s.repo.GetMarket(ctx, marketID)
}

// ListMarkets returns a page of markets, optionally filtered by status
func (s *SettlementService) ListMarkets(
	ctx context.Context,
	status models.MarketStatus,
	limit int,
	offset int,
) ([]*models.Market, int64, error) {
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListMarkets(ctx, status, pageSize(limit), offset)
}

// GetPosition retrieves a position by id
func (s *SettlementService) GetPosition(ctx context.Context, positionID uuid.UUID) (*models.Position, error) {
	return s.repo.GetPosition(ctx, positionID)
}

// ListPositions returns positions of a market, of a bettor, or of a bettor in a market
func (s *SettlementService) ListPositions(ctx context.Context, filter repository.PositionFilter) ([]*models.Position, error) {
	filter.Limit = pageSize(filter.Limit)
	return s.repo.ListPositions(ctx, filter)
}

// ListMarketEvents returns the audit trail of a market
func (s *SettlementService) ListMarketEvents(ctx context.Context, marketID uint64) ([]*models.SettlementEvent, error) {
	if _, err := s.repo.GetMarket(ctx, marketID); err != nil {
		return nil, err
	}
	return s.repo.ListMarketEvents(ctx, marketID)
}

// GetParameters returns the current parameter snapshot
func (s *SettlementService) GetParameters(ctx context.Context) (*models.GlobalParameters, error) {
	return s.repo.GetParameters(ctx)
}

// UpdateParameters replaces the parameter snapshot. Only the platform authority may call it.
func (s *SettlementService) UpdateParameters(
	ctx context.Context,
	caller Caller,
	req *models.UpdateParametersRequest,
) (*models.GlobalParameters, error) {
	current, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}
	if err := s.policy.RequireAuthority(caller, current); err != nil {
		return nil, err
	}
	if uint32(req.PlatformFeeBps)+uint32(req.CreatorFeeBps) > settlement.BasisPoints {
		return nil, settlement.ErrInvalidFeeRate
	}
	if req.MinBet > req.MaxBet || req.MaxBet > req.MaxMarketSize || req.MaxMarketSize > settlement.MaxStoredAmount {
		return nil, settlement.ErrInvalidAmount
	}
	if req.MinDurationSeconds > req.MaxDurationSeconds {
		return nil, settlement.ErrInvalidDuration
	}

	next := &models.GlobalParameters{
		Authority:                current.Authority,
		PlatformFeeBps:           req.PlatformFeeBps,
		CreatorFeeBps:            req.CreatorFeeBps,
		MinBet:                   req.MinBet,
		MaxBet:                   req.MaxBet,
		MaxMarketSize:            req.MaxMarketSize,
		MinDurationSeconds:       req.MinDurationSeconds,
		MaxDurationSeconds:       req.MaxDurationSeconds,
		StaleMarketThresholdDays: req.StaleMarketThresholdDays,
		MarketCreationEnabled:    req.MarketCreationEnabled,
		BettingEnabled:           req.BettingEnabled,
		ResolutionEnabled:        req.ResolutionEnabled,
	}
	if err := s.repo.ReplaceParameters(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// GetQuote previews a wager: its fee split, the odds after it and what it
// would pay if the market resolved in its favour right away. Nothing is written.
func (s *SettlementService) GetQuote(
	ctx context.Context,
	marketID uint64,
	side models.BetSide,
	amount uint64,
) (*models.QuoteResponse, error) {
	if !side.Valid() {
		return nil, settlement.ErrInvalidSide
	}
	if amount == 0 {
		return nil, settlement.ErrInvalidAmount
	}

	params, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}
	market, err := s.repo.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	fees, err := checkWager(market, params, amount, s.now())
	if err != nil {
		return nil, err
	}
	payout, err := settlement.QuotePayout(market, side, fees)
	if err != nil {
		return nil, err
	}

	yes, no := market.YesPool, market.NoPool
	if side == models.BetSideYes {
		yes += fees.PoolAmount
	} else {
		no += fees.PoolAmount
	}

	return &models.QuoteResponse{
		MarketID:           marketID,
		Side:               side,
		Amount:             amount,
		PoolAmount:         fees.PoolAmount,
		PlatformFee:        fees.PlatformFee,
		CreatorFee:         fees.CreatorFee,
		YesOddsAfterBps:    settlement.CalculateOdds(yes, no),
		PotentialPayout:    payout.Computed,
		PotentialPayoutSOL: settlement.LamportsToSOL(payout.Computed),
	}, nil
}

// NewMarketResponse builds the API view of a market
func NewMarketResponse(m *models.Market) models.MarketResponse {
	yesOdds := settlement.CalculateOdds(m.YesPool, m.NoPool)
	return models.MarketResponse{
		MarketID:          m.MarketID,
		Creator:           m.Creator,
		Title:             m.Title,
		Description:       m.Description,
		Status:            string(m.Status),
		ResolvedOutcome:   m.ResolvedOutcome,
		YesPool:           m.YesPool,
		NoPool:            m.NoPool,
		YesPoolSOL:        settlement.LamportsToSOL(m.YesPool),
		NoPoolSOL:         settlement.LamportsToSOL(m.NoPool),
		YesOddsBps:        yesOdds,
		NoOddsBps:         settlement.NoOdds(yesOdds),
		YesProbability:    settlement.OddsPercent(yesOdds),
		TotalVolume:       m.TotalVolume,
		TotalBets:         m.TotalBets,
		UniqueBettors:     m.UniqueBettors,
		TotalPlatformFees: m.TotalPlatformFees,
		TotalCreatorFees:  m.TotalCreatorFees,
		TotalClaimed:      m.TotalClaimed,
		EndDate:           m.EndDate,
		CreatedAt:         m.CreatedAt,
		ResolvedAt:        m.ResolvedAt,
		CancelledAt:       m.CancelledAt,
	}
}

// NewClaimResponse builds the API view of a claim
func NewClaimResponse(r *ClaimResult) models.ClaimResponse {
	return models.ClaimResponse{
		PositionID:     r.Position.ID.String(),
		MarketID:       r.Position.MarketID,
		Bettor:         r.Position.Bettor,
		Kind:           string(r.Kind),
		ComputedAmount: r.Claim.Computed,
		ActualAmount:   r.Claim.Actual,
		ActualSOL:      settlement.LamportsToSOL(r.Claim.Actual),
		TotalClaimed:   r.Market.TotalClaimed,
	}
}
