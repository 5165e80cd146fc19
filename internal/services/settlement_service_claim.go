package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-settlement/internal/events"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClaimKind distinguishes winnings from refunds
type ClaimKind string

const (
	ClaimPayout ClaimKind = "payout"
	ClaimRefund ClaimKind = "refund"
)

// ClaimResult is the outcome of a successful payout or refund
type ClaimResult struct {
	Kind     ClaimKind
	Position *models.Position
	Market   *models.Market
	Claim    settlement.Claim
}

// ClaimPayout pays a winning position of a resolved market
func (s *SettlementService) ClaimPayout(ctx context.Context, caller Caller, positionID uuid.UUID) (result *ClaimResult, err error) {
	defer s.observe("claim_payout", time.Now(), &err)
	return s.claim(ctx, caller, positionID, ClaimPayout)
}

// ClaimRefund returns the gross stake of a position in a cancelled market
func (s *SettlementService) ClaimRefund(ctx context.Context, caller Caller, positionID uuid.UUID) (result *ClaimResult, err error) {
	defer s.observe("claim_refund", time.Now(), &err)
	return s.claim(ctx, caller, positionID, ClaimRefund)
}

// claim marks the position claimed and accumulates total_claimed before
// moving funds, all in one transaction under the market lock
func (s *SettlementService) claim(
	ctx context.Context,
	caller Caller,
	positionID uuid.UUID,
	kind ClaimKind,
) (*ClaimResult, error) {
	position, err := s.repo.GetPosition(ctx, positionID)
	if err != nil {
		return nil, err
	}
	marketID := position.MarketID

	unlock := s.locks.Lock(marketID)
	defer unlock()

	var result *ClaimResult
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}
		p, err := tx.GetPosition(ctx, positionID)
		if err != nil {
			return err
		}

		var (
			amount    settlement.Claim
			entryType models.LedgerEntryType
			eventType models.SettlementEventType
		)
		switch kind {
		case ClaimPayout:
			if m.Status != models.MarketStatusResolved {
				return settlement.ErrMarketNotResolved
			}
			if p.Claimed {
				return settlement.ErrAlreadyClaimed
			}
			if err := s.policy.RequireOwner(caller, p); err != nil {
				return err
			}
			if amount, err = settlement.PositionPayout(m, p); err != nil {
				return err
			}
			entryType, eventType = models.LedgerEntryPayout, models.EventPayoutClaimed
		case ClaimRefund:
			if m.Status != models.MarketStatusCancelled {
				return settlement.ErrMarketNotCancelled
			}
			if p.Claimed {
				return settlement.ErrAlreadyClaimed
			}
			if err := s.policy.RequireOwner(caller, p); err != nil {
				return err
			}
			if amount, err = settlement.ComputeRefund(m, p.GrossAmount); err != nil {
				return err
			}
			entryType, eventType = models.LedgerEntryRefund, models.EventRefundClaimed
		default:
			return fmt.Errorf("unknown claim kind %q", kind)
		}

		if err := settlement.RecordClaim(m, amount.Actual); err != nil {
			return err
		}
		now := s.now()
		p.Claimed = true
		p.ClaimedAmount = amount.Actual
		p.ClaimedAt = &now

		if err := tx.SaveMarket(ctx, m); err != nil {
			return fmt.Errorf("failed to update market: %w", err)
		}
		if err := tx.SavePosition(ctx, p); err != nil {
			return fmt.Errorf("failed to update position: %w", err)
		}

		if amount.Actual > 0 {
			if err := tx.EnsureAccount(ctx, p.Bettor, models.LedgerAccountWallet); err != nil {
				return err
			}
			_, err := tx.Transfer(ctx, models.Transfer{
				From:       models.EscrowAddress(marketID),
				To:         p.Bettor,
				Amount:     amount.Actual,
				Type:       entryType,
				MarketID:   &marketID,
				PositionID: &p.ID,
			})
			if err != nil {
				return escrowShortfall(err)
			}
		}

		_, err = tx.CreateEvent(ctx, marketID, eventType, events.Claimed{
			MarketID:       marketID,
			PositionID:     p.ID.String(),
			Bettor:         p.Bettor,
			ComputedAmount: amount.Computed,
			ActualAmount:   amount.Actual,
			TotalClaimed:   m.TotalClaimed,
			TsUnixMs:       now.UnixMilli(),
		})
		if err != nil {
			return err
		}

		result = &ClaimResult{Kind: kind, Position: p, Market: m, Claim: amount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Claim(string(kind), result.Claim.Actual)
	s.logger.Info("claim paid",
		zap.String("kind", string(kind)),
		zap.Uint64("market_id", marketID),
		zap.String("position_id", positionID.String()),
		zap.Uint64("computed", result.Claim.Computed),
		zap.Uint64("actual", result.Claim.Actual),
		zap.Uint64("total_claimed", result.Market.TotalClaimed),
	)
	return result, nil
}

// escrowShortfall reports an escrow that cannot cover what the pool ledger
// says it holds as a conservation violation
func escrowShortfall(err error) error {
	if errors.Is(err, settlement.ErrInsufficientFunds) {
		return fmt.Errorf("escrow shortfall: %w", settlement.ErrConservationViolated)
	}
	return err
}
