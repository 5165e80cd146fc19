package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LedgerAccountKind distinguishes wallet balances from market escrow balances
type LedgerAccountKind string

const (
	LedgerAccountWallet LedgerAccountKind = "WALLET"
	LedgerAccountEscrow LedgerAccountKind = "ESCROW"
)

// LedgerEntryType describes why value moved
type LedgerEntryType string

const (
	LedgerEntryDeposit     LedgerEntryType = "DEPOSIT"
	LedgerEntryWithdrawal  LedgerEntryType = "WITHDRAWAL"
	LedgerEntryWager       LedgerEntryType = "WAGER"
	LedgerEntryPlatformFee LedgerEntryType = "PLATFORM_FEE"
	LedgerEntryCreatorFee  LedgerEntryType = "CREATOR_FEE"
	LedgerEntryPayout      LedgerEntryType = "PAYOUT"
	LedgerEntryRefund      LedgerEntryType = "REFUND"
	// LedgerEntryReversal restores a withdrawal whose on-chain transfer failed
	LedgerEntryReversal LedgerEntryType = "REVERSAL"
)

// LedgerEntryStatus tracks entries whose external side may still be in flight
type LedgerEntryStatus string

const (
	LedgerEntryCompleted LedgerEntryStatus = "COMPLETED"
	// LedgerEntryPending is a withdrawal signed and debited whose on-chain
	// outcome is not known yet
	LedgerEntryPending LedgerEntryStatus = "PENDING"
	// LedgerEntryFailed is a withdrawal that provably never paid out; a
	// REVERSAL entry restores its amount
	LedgerEntryFailed LedgerEntryStatus = "FAILED"
)

// LedgerAccount is an addressable balance. Wallet accounts are keyed by the
// owner's Solana address, escrow accounts by EscrowAddress(market_id).
type LedgerAccount struct {
	Address   string            `gorm:"primaryKey;size:64" json:"address"`
	Kind      LedgerAccountKind `gorm:"size:20;not null;default:WALLET" json:"kind"`
	Balance   uint64            `gorm:"not null;default:0" json:"balance"`
	Version   uint64            `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TableName specifies the table name for LedgerAccount
func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// LedgerEntry records one transfer between two ledger accounts
type LedgerEntry struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	FromAddress string            `gorm:"size:64;not null;index" json:"from_address"`
	ToAddress   string            `gorm:"size:64;not null;index" json:"to_address"`
	Amount      uint64            `gorm:"not null" json:"amount"`
	EntryType   LedgerEntryType   `gorm:"size:20;not null;index" json:"entry_type"`
	MarketID    *uint64           `gorm:"index" json:"market_id,omitempty"`
	PositionID  *uuid.UUID        `gorm:"type:uuid;index" json:"position_id,omitempty"`
	ExternalRef *string           `gorm:"size:128;uniqueIndex" json:"external_ref,omitempty"` // on-chain signature for deposits/withdrawals
	Status      LedgerEntryStatus `gorm:"size:20;not null;default:COMPLETED;index" json:"status"`
	// ValidUntilHeight is the last block height a pending withdrawal can land at
	ValidUntilHeight uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Transfer describes a single movement between two ledger accounts
type Transfer struct {
	From        string
	To          string
	Amount      uint64
	Type        LedgerEntryType
	MarketID    *uint64
	PositionID  *uuid.UUID
	ExternalRef *string
	// Status defaults to COMPLETED
	Status           LedgerEntryStatus
	ValidUntilHeight uint64
}

// ExternalAddress is the counterparty used for value entering or leaving the ledger
const ExternalAddress = "external"

// EscrowAddress returns the ledger address holding a market's pooled funds
func EscrowAddress(marketID uint64) string {
	return fmt.Sprintf("escrow:%d", marketID)
}

// DepositRequest credits a confirmed on-chain transfer to the caller's balance
type DepositRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// WithdrawRequest sends lamports from the caller's balance back on-chain
type WithdrawRequest struct {
	Amount uint64 `json:"amount" binding:"required,min=1"`
}

// BalanceResponse is the API view of a ledger account
type BalanceResponse struct {
	Address    string `json:"address"`
	Balance    uint64 `json:"balance"`
	BalanceSOL string `json:"balance_sol"`
}
