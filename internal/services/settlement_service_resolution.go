package services

import (
	"context"
	"fmt"
	"time"

	"market-settlement/internal/events"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"go.uber.org/zap"
)

// ResolveMarket records the outcome of an ended market and pays the
// accumulated fees out of escrow to the platform and the creator
func (s *SettlementService) ResolveMarket(
	ctx context.Context,
	caller Caller,
	marketID uint64,
	outcome models.BetSide,
	recipients Recipients,
) (market *models.Market, err error) {
	defer s.observe("resolve_market", time.Now(), &err)

	if !outcome.Valid() {
		return nil, settlement.ErrInvalidSide
	}

	unlock := s.locks.Lock(marketID)
	defer unlock()

	params, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if err := s.policy.RequireResolver(caller, m, params, recipients); err != nil {
			return err
		}
		if !params.ResolutionEnabled {
			return settlement.ErrResolutionDisabled
		}

		now := s.now()
		if err := settlement.Resolve(m, outcome, now); err != nil {
			return err
		}

		escrow := models.EscrowAddress(marketID)
		fees := []struct {
			to     string
			amount uint64
			kind   models.LedgerEntryType
		}{
			{recipients.Platform, m.TotalPlatformFees, models.LedgerEntryPlatformFee},
			{recipients.Creator, m.TotalCreatorFees, models.LedgerEntryCreatorFee},
		}
		for _, fee := range fees {
			if fee.amount == 0 {
				continue
			}
			if err := tx.EnsureAccount(ctx, fee.to, models.LedgerAccountWallet); err != nil {
				return err
			}
			_, err := tx.Transfer(ctx, models.Transfer{
				From:     escrow,
				To:       fee.to,
				Amount:   fee.amount,
				Type:     fee.kind,
				MarketID: &marketID,
			})
			if err != nil {
				return escrowShortfall(err)
			}
		}

		if err := tx.SaveMarket(ctx, m); err != nil {
			return fmt.Errorf("failed to update market: %w", err)
		}
		_, err = tx.CreateEvent(ctx, marketID, models.EventMarketResolved, events.MarketResolved{
			MarketID:       marketID,
			Outcome:        string(outcome),
			Resolver:       caller.Wallet,
			PlatformWallet: recipients.Platform,
			CreatorWallet:  recipients.Creator,
			PlatformFee:    m.TotalPlatformFees,
			CreatorFee:     m.TotalCreatorFees,
			YesPool:        m.YesPool,
			NoPool:         m.NoPool,
			TsUnixMs:       now.UnixMilli(),
		})
		if err != nil {
			return err
		}

		market = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Resolution(string(outcome))
	s.logger.Info("market resolved",
		zap.Uint64("market_id", marketID),
		zap.String("outcome", string(outcome)),
		zap.Uint64("platform_fee", market.TotalPlatformFees),
		zap.Uint64("creator_fee", market.TotalCreatorFees),
	)
	return market, nil
}
