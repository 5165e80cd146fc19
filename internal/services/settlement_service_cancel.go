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

const staleSweepLimit = 500

// CancelMarket voids an ended, unresolved market so its bettors can claim refunds.
// No funds move.
func (s *SettlementService) CancelMarket(ctx context.Context, caller Caller, marketID uint64) (market *models.Market, err error) {
	defer s.observe("cancel_market", time.Now(), &err)

	params, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}
	if err := s.policy.RequireAuthority(caller, params); err != nil {
		return nil, err
	}
	return s.cancel(ctx, caller, marketID, "manual")
}

func (s *SettlementService) cancel(ctx context.Context, caller Caller, marketID uint64, trigger string) (*models.Market, error) {
	unlock := s.locks.Lock(marketID)
	defer unlock()

	var market *models.Market
	var refundable uint64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := settlement.Cancel(m, now); err != nil {
			return err
		}
		if refundable, err = settlement.ClaimableBase(m); err != nil {
			return err
		}

		if err := tx.SaveMarket(ctx, m); err != nil {
			return fmt.Errorf("failed to update market: %w", err)
		}
		_, err = tx.CreateEvent(ctx, marketID, models.EventMarketCancelled, events.MarketCancelled{
			MarketID:    marketID,
			CancelledBy: caller.Wallet,
			Refundable:  refundable,
			TsUnixMs:    now.UnixMilli(),
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

	s.metrics.Cancellation(trigger)
	s.logger.Info("market cancelled",
		zap.Uint64("market_id", marketID),
		zap.String("trigger", trigger),
		zap.Uint64("refundable", refundable),
	)
	return market, nil
}

// StaleSweepSummary reports one run of CancelStaleMarkets
type StaleSweepSummary struct {
	Checked         int      `json:"checked"`
	Cancelled       int      `json:"cancelled"`
	Failed          int      `json:"failed"`
	TotalRefundable uint64   `json:"total_refundable"`
	FailedMarkets   []uint64 `json:"failed_markets,omitempty"`
}

// CancelStaleMarkets cancels, as the platform authority, every active market
// whose end date is older than the stale threshold. A failure on one market
// does not stop the sweep.
func (s *SettlementService) CancelStaleMarkets(ctx context.Context) (*StaleSweepSummary, error) {
	params, err := s.repo.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -params.StaleMarketThresholdDays)
	markets, err := s.repo.ListStaleMarkets(ctx, cutoff, staleSweepLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale markets: %w", err)
	}

	summary := &StaleSweepSummary{Checked: len(markets)}
	authority := Caller{Wallet: params.Authority}
	for _, candidate := range markets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		market, err := s.cancel(ctx, authority, candidate.MarketID, "stale")
		if err != nil {
			summary.Failed++
			summary.FailedMarkets = append(summary.FailedMarkets, candidate.MarketID)
			s.metrics.Error("cancel_stale_market", settlementCode(err))
			s.logger.Warn("failed to cancel stale market", zap.Uint64("market_id", candidate.MarketID), zap.Error(err))
			continue
		}

		summary.Cancelled++
		if refundable, err := settlement.ClaimableBase(market); err == nil {
			summary.TotalRefundable += refundable
		}
	}

	s.logger.Info("stale market sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("cancelled", summary.Cancelled),
		zap.Int("failed", summary.Failed),
		zap.Uint64("total_refundable", summary.TotalRefundable),
	)
	return summary, nil
}

func settlementCode(err error) string {
	if code := settlement.CodeOf(err); code != "" {
		return code
	}
	return "internal"
}
