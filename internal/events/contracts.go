package events

import (
	"time"
)

// Payloads of the settlement audit events. Amounts are lamports.

type MarketCreated struct {
	MarketID uint64    `json:"market_id"`
	Creator  string    `json:"creator"`
	Title    string    `json:"title"`
	EndDate  time.Time `json:"end_date"`
	TsUnixMs int64     `json:"ts_unix_ms"`
}

type WagerPlaced struct {
	MarketID    uint64 `json:"market_id"`
	PositionID  string `json:"position_id"`
	Bettor      string `json:"bettor"`
	Side        string `json:"side"`
	Sequence    uint64 `json:"sequence"`
	GrossAmount uint64 `json:"gross_amount"`
	PoolAmount  uint64 `json:"pool_amount"`
	PlatformFee uint64 `json:"platform_fee"`
	CreatorFee  uint64 `json:"creator_fee"`
	OddsBps     uint16 `json:"odds_bps"`
	YesPool     uint64 `json:"yes_pool"`
	NoPool      uint64 `json:"no_pool"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

type MarketResolved struct {
	MarketID       uint64 `json:"market_id"`
	Outcome        string `json:"outcome"`
	Resolver       string `json:"resolver"`
	PlatformWallet string `json:"platform_wallet"`
	CreatorWallet  string `json:"creator_wallet"`
	PlatformFee    uint64 `json:"platform_fee"`
	CreatorFee     uint64 `json:"creator_fee"`
	YesPool        uint64 `json:"yes_pool"`
	NoPool         uint64 `json:"no_pool"`
	TsUnixMs       int64  `json:"ts_unix_ms"`
}

type MarketCancelled struct {
	MarketID    uint64 `json:"market_id"`
	CancelledBy string `json:"cancelled_by"`
	Refundable  uint64 `json:"refundable"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}

// Claimed is the payload of both payout_claimed and refund_claimed
type Claimed struct {
	MarketID       uint64 `json:"market_id"`
	PositionID     string `json:"position_id"`
	Bettor         string `json:"bettor"`
	ComputedAmount uint64 `json:"computed_amount"`
	ActualAmount   uint64 `json:"actual_amount"`
	TotalClaimed   uint64 `json:"total_claimed"`
	TsUnixMs       int64  `json:"ts_unix_ms"`
}

// OddsUpdate is broadcast after every wager
type OddsUpdate struct {
	MarketID uint64 `json:"market_id"`
	YesOdds  uint16 `json:"yes_odds_bps"`
	NoOdds   uint16 `json:"no_odds_bps"`
	YesPool  uint64 `json:"yes_pool"`
	NoPool   uint64 `json:"no_pool"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
