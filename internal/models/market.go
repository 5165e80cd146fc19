package models

import (
	"time"
)

// MarketStatus is the lifecycle state of a market. RESOLVED and CANCELLED are terminal.
type MarketStatus string

const (
	MarketStatusActive    MarketStatus = "ACTIVE"
	MarketStatusResolved  MarketStatus = "RESOLVED"
	MarketStatusCancelled MarketStatus = "CANCELLED"
)

// BetSide is one of the two outcomes of a binary market
type BetSide string

const (
	BetSideYes BetSide = "YES"
	BetSideNo  BetSide = "NO"
)

// Valid reports whether s is YES or NO
func (s BetSide) Valid() bool {
	return s == BetSideYes || s == BetSideNo
}

// Opposite returns the other side
func (s BetSide) Opposite() BetSide {
	if s == BetSideYes {
		return BetSideNo
	}
	return BetSideYes
}

// Market is the pool ledger of a single prediction question.
// Amounts are in lamports.
type Market struct {
	MarketID          uint64       `gorm:"primaryKey;autoIncrement:false" json:"market_id"`
	Creator           string       `gorm:"size:64;not null;index" json:"creator"`
	Title             string       `gorm:"size:128;not null" json:"title"`
	Description       string       `gorm:"size:512;not null" json:"description"`
	YesPool           uint64       `gorm:"not null;default:0" json:"yes_pool"`
	NoPool            uint64       `gorm:"not null;default:0" json:"no_pool"`
	TotalVolume       uint64       `gorm:"not null;default:0" json:"total_volume"`
	TotalBets         uint64       `gorm:"not null;default:0" json:"total_bets"`
	UniqueBettors     uint32       `gorm:"not null;default:0" json:"unique_bettors"`
	TotalPlatformFees uint64       `gorm:"not null;default:0" json:"total_platform_fees"`
	TotalCreatorFees  uint64       `gorm:"not null;default:0" json:"total_creator_fees"`
	TotalClaimed      uint64       `gorm:"not null;default:0" json:"total_claimed"`
	FeesDistributed   bool         `gorm:"not null;default:false" json:"fees_distributed"`
	Status            MarketStatus `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	ResolvedOutcome   *BetSide     `gorm:"size:3" json:"resolved_outcome,omitempty"`
	EndDate           time.Time    `gorm:"not null;index" json:"end_date"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty"`
	CancelledAt       *time.Time   `json:"cancelled_at,omitempty"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

// PoolTotal returns yes_pool + no_pool and false if the sum overflows
func (m *Market) PoolTotal() (uint64, bool) {
	total := m.YesPool + m.NoPool
	return total, total >= m.YesPool
}

// PoolFor returns the pool size of the given side
func (m *Market) PoolFor(side BetSide) uint64 {
	if side == BetSideYes {
		return m.YesPool
	}
	return m.NoPool
}

// CreateMarketRequest registers a market that governance already approved
type CreateMarketRequest struct {
	MarketID    uint64    `json:"market_id" binding:"required"`
	Creator     string    `json:"creator" binding:"required"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

// PlaceWagerRequest is the body of POST /api/markets/:id/wagers
type PlaceWagerRequest struct {
	Side   BetSide `json:"side" binding:"required,oneof=YES NO"`
	Amount uint64  `json:"amount" binding:"required,min=1"`
}

// ResolveMarketRequest is the body of POST /api/markets/:id/resolve
type ResolveMarketRequest struct {
	Outcome        BetSide `json:"outcome" binding:"required,oneof=YES NO"`
	PlatformWallet string  `json:"platform_wallet" binding:"required"`
	CreatorWallet  string  `json:"creator_wallet" binding:"required"`
}

// MarketResponse is the API view of a market
type MarketResponse struct {
	MarketID          uint64     `json:"market_id"`
	Creator           string     `json:"creator"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	ResolvedOutcome   *BetSide   `json:"resolved_outcome,omitempty"`
	YesPool           uint64     `json:"yes_pool"`
	NoPool            uint64     `json:"no_pool"`
	YesPoolSOL        string     `json:"yes_pool_sol"`
	NoPoolSOL         string     `json:"no_pool_sol"`
	YesOddsBps        uint16     `json:"yes_odds_bps"`
	NoOddsBps         uint16     `json:"no_odds_bps"`
	YesProbability    string     `json:"yes_probability"`
	TotalVolume       uint64     `json:"total_volume"`
	TotalBets         uint64     `json:"total_bets"`
	UniqueBettors     uint32     `json:"unique_bettors"`
	TotalPlatformFees uint64     `json:"total_platform_fees"`
	TotalCreatorFees  uint64     `json:"total_creator_fees"`
	TotalClaimed      uint64     `json:"total_claimed"`
	EndDate           time.Time  `json:"end_date"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
}

// QuoteResponse previews a wager without placing it
type QuoteResponse struct {
	MarketID           uint64  `json:"market_id"`
	Side               BetSide `json:"side"`
	Amount             uint64  `json:"amount"`
	PoolAmount         uint64  `json:"pool_amount"`
	PlatformFee        uint64  `json:"platform_fee"`
	CreatorFee         uint64  `json:"creator_fee"`
	YesOddsAfterBps    uint16  `json:"yes_odds_after_bps"`
	PotentialPayout    uint64  `json:"potential_payout"`
	PotentialPayoutSOL string  `json:"potential_payout_sol"`
}
