package models

import (
	"time"
)

// GlobalParameters is the read-only configuration snapshot consulted by every
// settlement operation. There is exactly one row (ID = 1).
type GlobalParameters struct {
	ID                       uint      `gorm:"primaryKey" json:"-"`
	Authority                string    `gorm:"size:64;not null" json:"authority"`
	PlatformFeeBps           uint16    `gorm:"not null" json:"platform_fee_bps"`
	CreatorFeeBps            uint16    `gorm:"not null" json:"creator_fee_bps"`
	MinBet                   uint64    `gorm:"not null" json:"min_bet"`
	MaxBet                   uint64    `gorm:"not null" json:"max_bet"`
	MaxMarketSize            uint64    `gorm:"not null" json:"max_market_size"`
	MinDurationSeconds       int64     `gorm:"not null" json:"min_duration_seconds"`
	MaxDurationSeconds       int64     `gorm:"not null" json:"max_duration_seconds"`
	StaleMarketThresholdDays int       `gorm:"not null" json:"stale_market_threshold_days"`
	MarketCreationEnabled    bool      `gorm:"not null" json:"market_creation_enabled"`
	BettingEnabled           bool      `gorm:"not null" json:"betting_enabled"`
	ResolutionEnabled        bool      `gorm:"not null" json:"resolution_enabled"`
	Version                  uint32    `gorm:"not null;default:1" json:"version"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// TableName specifies the table name for GlobalParameters
func (GlobalParameters) TableName() string {
	return "global_parameters"
}

// UpdateParametersRequest replaces the parameter snapshot
type UpdateParametersRequest struct {
	PlatformFeeBps           uint16 `json:"platform_fee_bps" binding:"max=10000"`
	CreatorFeeBps            uint16 `json:"creator_fee_bps" binding:"max=10000"`
	MinBet                   uint64 `json:"min_bet" binding:"required,min=1"`
	MaxBet                   uint64 `json:"max_bet" binding:"required,min=1"`
	MaxMarketSize            uint64 `json:"max_market_size" binding:"required,min=1"`
	MinDurationSeconds       int64  `json:"min_duration_seconds" binding:"min=0"`
	MaxDurationSeconds       int64  `json:"max_duration_seconds" binding:"required,min=1"`
	StaleMarketThresholdDays int    `json:"stale_market_threshold_days" binding:"required,min=1"`
	MarketCreationEnabled    bool   `json:"market_creation_enabled"`
	BettingEnabled           bool   `json:"betting_enabled"`
	ResolutionEnabled        bool   `json:"resolution_enabled"`
}
