package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-settlement/internal/blockchain"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrDepositClaimedByOther is returned when a deposit signature was credited to another wallet
var ErrDepositClaimedByOther = errors.New("deposit already credited to another wallet")

// ErrWithdrawalFailed is returned when the vault transfer executed with an
// error or expired; the debit has been reversed
var ErrWithdrawalFailed = errors.New("withdrawal transfer did not land")

const (
	broadcastTimeout  = 30 * time.Second
	reconcileBatch    = 100
	reconcileDeadline = 20 * time.Second
)

// ChainGateway is the on-chain side of funding
type ChainGateway interface {
	VaultAddress() string
	VerifyDeposit(ctx context.Context, signature string) (*blockchain.TransferDetails, error)
	SignVaultTransfer(ctx context.Context, to string, lamports uint64) (*blockchain.SignedTransfer, error)
	Broadcast(ctx context.Context, t *blockchain.SignedTransfer) error
	TransferState(ctx context.Context, signature string, lastValidBlockHeight uint64) (blockchain.TransferState, error)
}

// ReconcileSummary reports one pass over pending withdrawals
type ReconcileSummary struct {
	Checked   int
	Completed int
	Reversed  int
	Pending   int
}

// FundingService moves value between Solana and the internal ledger
type FundingService struct {
	repo   *repository.Repository
	chain  ChainGateway
	policy *AuthorizationPolicy
	logger *zap.Logger
}

func NewFundingService(
	repo *repository.Repository,
	chain ChainGateway,
	policy *AuthorizationPolicy,
	logger *zap.Logger,
) *FundingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FundingService{repo: repo, chain: chain, policy: policy, logger: logger}
}

// VaultAddress returns the wallet deposits must be sent to
func (s *FundingService) VaultAddress() string {
	return s.chain.VaultAddress()
}

// Deposit credits the caller with a confirmed transfer into the vault.
// Each signature is credited at most once; repeating a deposit returns the
// original entry.
func (s *FundingService) Deposit(ctx context.Context, caller Caller, signature string) (*models.LedgerEntry, error) {
	if err := s.policy.RequireBettor(caller); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetEntryByExternalRef(ctx, signature)
	if err == nil {
		if existing.ToAddress != caller.Wallet {
			return nil, ErrDepositClaimedByOther
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	details, err := s.chain.VerifyDeposit(ctx, signature)
	if err != nil {
		return nil, err
	}
	if details.Sender != caller.Wallet {
		return nil, settlement.ErrUnauthorized
	}

	var entry *models.LedgerEntry
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.EnsureAccount(ctx, caller.Wallet, models.LedgerAccountWallet); err != nil {
			return err
		}
		var err error
		ref := signature
		entry, err = tx.Transfer(ctx, models.Transfer{
			From:        models.ExternalAddress,
			To:          caller.Wallet,
			Amount:      details.Amount,
			Type:        models.LedgerEntryDeposit,
			ExternalRef: &ref,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}

	s.logger.Info("deposit credited",
		zap.String("wallet", caller.Wallet),
		zap.String("signature", signature),
		zap.Uint64("amount", details.Amount),
	)
	return entry, nil
}

// Withdraw debits the caller and pays the amount out of the vault.
//
// The transfer is signed before the debit so its signature is stored on the
// PENDING withdrawal entry. A broadcast error is not taken as proof that
// nothing was sent: the entry is reversed only once the cluster reports the
// transfer failed or expired. When the outcome is still unknown the entry is
// returned PENDING and ReconcileWithdrawals settles it later.
func (s *FundingService) Withdraw(ctx context.Context, caller Caller, amount uint64) (*models.LedgerEntry, error) {
	if err := s.policy.RequireBettor(caller); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, settlement.ErrInvalidAmount
	}
	balance, err := s.repo.Balance(ctx, caller.Wallet)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, settlement.ErrInsufficientFunds
	}

	signed, err := s.chain.SignVaultTransfer(ctx, caller.Wallet, amount)
	if err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		entry, err = tx.Transfer(ctx, models.Transfer{
			From:             caller.Wallet,
			To:               models.ExternalAddress,
			Amount:           amount,
			Type:             models.LedgerEntryWithdrawal,
			ExternalRef:      &signed.Signature,
			Status:           models.LedgerEntryPending,
			ValidUntilHeight: signed.LastValidBlockHeight,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// The debit is committed; from here on the outcome must not depend on
	// the caller staying connected.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
	defer cancel()

	log := s.logger.With(
		zap.String("wallet", caller.Wallet),
		zap.String("signature", signed.Signature),
		zap.Uint64("amount", amount),
	)

	sendErr := s.chain.Broadcast(bg, signed)
	if sendErr != nil {
		log.Warn("withdrawal broadcast returned an error, checking cluster", zap.Error(sendErr))
	}
	// Acceptance by the RPC node is not delivery, so the cluster is asked
	// either way.
	state, err := s.chain.TransferState(bg, signed.Signature, signed.LastValidBlockHeight)
	if err != nil {
		log.Warn("withdrawal state unknown", zap.Error(err))
		state = blockchain.TransferPending
	}

	status, err := s.settleWithdrawal(bg, entry, state)
	if err != nil {
		log.Error("failed to settle withdrawal", zap.String("entry_id", entry.ID.String()), zap.Error(err))
		return entry, nil
	}
	entry.Status = status

	switch status {
	case models.LedgerEntryFailed:
		if sendErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrWithdrawalFailed, sendErr)
		}
		return nil, ErrWithdrawalFailed
	case models.LedgerEntryPending:
		log.Warn("withdrawal pending reconciliation")
	default:
		log.Info("withdrawal sent")
	}
	return entry, nil
}

// settleWithdrawal applies a cluster state to a pending withdrawal. Failed
// and expired transfers are reversed in the same transaction that marks the
// entry FAILED.
func (s *FundingService) settleWithdrawal(
	ctx context.Context,
	entry *models.LedgerEntry,
	state blockchain.TransferState,
) (models.LedgerEntryStatus, error) {
	var status models.LedgerEntryStatus
	switch state {
	case blockchain.TransferLanded:
		status = models.LedgerEntryCompleted
	case blockchain.TransferFailed, blockchain.TransferExpired:
		status = models.LedgerEntryFailed
	default:
		return models.LedgerEntryPending, nil
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		settled, err := tx.SettlePendingEntry(ctx, entry.ID, status)
		if err != nil {
			return err
		}
		if !settled {
			current, err := tx.GetEntryByExternalRef(ctx, *entry.ExternalRef)
			if err != nil {
				return err
			}
			status = current.Status
			return nil
		}
		if status != models.LedgerEntryFailed {
			return nil
		}
		_, err = tx.Transfer(ctx, models.Transfer{
			From:   models.ExternalAddress,
			To:     entry.FromAddress,
			Amount: entry.Amount,
			Type:   models.LedgerEntryReversal,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// ReconcileWithdrawals settles pending withdrawals whose outcome is now known
func (s *FundingService) ReconcileWithdrawals(ctx context.Context) (*ReconcileSummary, error) {
	pending, err := s.repo.ListPendingEntries(ctx, models.LedgerEntryWithdrawal, reconcileBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}

	summary := &ReconcileSummary{}
	for _, entry := range pending {
		if entry.ExternalRef == nil {
			continue
		}
		summary.Checked++

		checkCtx, cancel := context.WithTimeout(ctx, reconcileDeadline)
		state, err := s.chain.TransferState(checkCtx, *entry.ExternalRef, entry.ValidUntilHeight)
		if err == nil {
			var status models.LedgerEntryStatus
			status, err = s.settleWithdrawal(checkCtx, entry, state)
			switch status {
			case models.LedgerEntryCompleted:
				summary.Completed++
			case models.LedgerEntryFailed:
				summary.Reversed++
				s.logger.Info("withdrawal reversed",
					zap.String("wallet", entry.FromAddress),
					zap.String("signature", *entry.ExternalRef),
					zap.Uint64("amount", entry.Amount),
				)
			}
		}
		cancel()

		if err != nil {
			s.logger.Warn("failed to reconcile withdrawal", zap.String("entry_id", entry.ID.String()), zap.Error(err))
		}
		if err != nil || state == blockchain.TransferPending {
			summary.Pending++
		}
	}
	return summary, nil
}

// Balance returns the ledger balance of wallet
func (s *FundingService) Balance(ctx context.Context, wallet string) (*models.BalanceResponse, error) {
	balance, err := s.repo.Balance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &models.BalanceResponse{
		Address:    wallet,
		Balance:    balance,
		BalanceSOL: settlement.LamportsToSOL(balance),
	}, nil
}

// History returns ledger entries touching wallet, newest first
func (s *FundingService) History(ctx context.Context, wallet string, limit, offset int) ([]*models.LedgerEntry, error) {
	return s.repo.ListEntries(ctx, wallet, pageSize(limit), offset)
}
