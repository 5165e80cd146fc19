package models

import (
	"time"

	"github.com/google/uuid"
)

// Position is a single wager. Everything except the claim fields is immutable after creation.
type Position struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID      uint64     `gorm:"not null;uniqueIndex:idx_position_market_bettor_seq,priority:1;uniqueIndex:idx_position_market_seq,priority:1" json:"market_id"`
	Bettor        string     `gorm:"size:64;not null;uniqueIndex:idx_position_market_bettor_seq,priority:2;index" json:"bettor"`
	Sequence      uint64     `gorm:"not null;uniqueIndex:idx_position_market_bettor_seq,priority:3;uniqueIndex:idx_position_market_seq,priority:2" json:"sequence"`
	Side          BetSide    `gorm:"size:3;not null" json:"side"`
	GrossAmount   uint64     `gorm:"not null" json:"gross_amount"`
	PoolAmount    uint64     `gorm:"not null" json:"pool_amount"`
	PlatformFee   uint64     `gorm:"not null" json:"platform_fee"`
	CreatorFee    uint64     `gorm:"not null" json:"creator_fee"`
	OddsAtWager   uint16     `gorm:"not null" json:"odds_at_wager"` // basis points, YES side
	Claimed       bool       `gorm:"not null;default:false;index" json:"claimed"`
	ClaimedAmount uint64     `gorm:"not null;default:0" json:"claimed_amount"`
	CreatedAt     time.Time  `json:"created_at"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
}

// TableName specifies the table name for Position
func (Position) TableName() string {
	return "positions"
}

// ClaimResponse is returned by the payout and refund endpoints
type ClaimResponse struct {
	PositionID     string `json:"position_id"`
	MarketID       uint64 `json:"market_id"`
	Bettor         string `json:"bettor"`
	Kind           string `json:"kind"` // payout, refund
	ComputedAmount uint64 `json:"computed_amount"`
	ActualAmount   uint64 `json:"actual_amount"`
	ActualSOL      string `json:"actual_sol"`
	TotalClaimed   uint64 `json:"total_claimed"`
}
