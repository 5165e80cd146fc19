package repository

import (
	"context"
	"errors"
	"fmt"

	"market-settlement/internal/models"
	"market-settlement/internal/settlement"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureAccount creates the ledger account if it does not exist yet
func (r *Repository) EnsureAccount(ctx context.Context, address string, kind models.LedgerAccountKind) error {
	account := models.LedgerAccount{Address: address, Kind: kind}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
		Create(&account).Error
}

// GetAccount retrieves a ledger account by address
func (r *Repository) GetAccount(ctx context.Context, address string) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err != nil {
		return nil, notFound(err, settlement.ErrAccountNotFound)
	}
	return &account, nil
}

// Balance returns the balance of address, zero for an unknown address
func (r *Repository) Balance(ctx context.Context, address string) (uint64, error) {
	account, err := r.GetAccount(ctx, address)
	if errors.Is(err, settlement.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Transfer moves t.Amount from t.From to t.To and records a ledger entry.
// The external address is unbounded on both sides. It must run inside
// Transaction for the debit, credit and entry to be atomic.
func (r *Repository) Transfer(ctx context.Context, t models.Transfer) (*models.LedgerEntry, error) {
	if t.Amount == 0 {
		return nil, settlement.ErrInvalidAmount
	}

	if t.From != models.ExternalAddress {
		if err := r.debit(ctx, t.From, t.Amount); err != nil {
			return nil, err
		}
	}
	if t.To != models.ExternalAddress {
		if err := r.credit(ctx, t.To, t.Amount); err != nil {
			return nil, err
		}
	}

	status := t.Status
	if status == "" {
		status = models.LedgerEntryCompleted
	}
	entry := &models.LedgerEntry{
		ID:               uuid.New(),
		FromAddress:      t.From,
		ToAddress:        t.To,
		Amount:           t.Amount,
		EntryType:        t.Type,
		MarketID:         t.MarketID,
		PositionID:       t.PositionID,
		ExternalRef:      t.ExternalRef,
		Status:           status,
		ValidUntilHeight: t.ValidUntilHeight,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return entry, nil
}

func (r *Repository) debit(ctx context.Context, address string, amount uint64) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ? AND balance >= ?", address, amount).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance - ?", amount),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if _, err := r.GetAccount(ctx, address); err != nil {
		if errors.Is(err, settlement.ErrAccountNotFound) {
			return settlement.ErrInsufficientFunds
		}
		return err
	}
	return settlement.ErrInsufficientFunds
}

func (r *Repository) credit(ctx context.Context, address string, amount uint64) error {
	account, err := r.GetAccount(ctx, address)
	if err != nil {
		return err
	}
	if account.Balance+amount < account.Balance {
		return settlement.ErrPoolOverflow
	}
	return r.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ?", address).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
			"version": gorm.Expr("version + 1"),
		}).Error
}

// GetEntryByExternalRef finds the ledger entry recorded for an on-chain signature
func (r *Repository) GetEntryByExternalRef(ctx context.Context, ref string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).Where("external_ref = ?", ref).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SettlePendingEntry moves a pending entry to status. It reports false when
// the entry was no longer pending, so only one caller settles it.
func (r *Repository) SettlePendingEntry(ctx context.Context, entryID uuid.UUID, status models.LedgerEntryStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", entryID, models.LedgerEntryPending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListPendingEntries returns pending entries of entryType, oldest first
func (r *Repository) ListPendingEntries(ctx context.Context, entryType models.LedgerEntryType, limit int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("entry_type = ? AND status = ?", entryType, models.LedgerEntryPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEntries returns ledger entries touching address, newest first
func (r *Repository) ListEntries(ctx context.Context, address string, limit, offset int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("from_address = ? OR to_address = ?", address, address).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
