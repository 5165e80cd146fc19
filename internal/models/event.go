package models

import (
	"time"

	"github.com/google/uuid"
)

// SettlementEventType names an audit event emitted by the settlement engine
type SettlementEventType string

const (
	EventMarketCreated   SettlementEventType = "market_created"
	EventWagerPlaced     SettlementEventType = "wager_placed"
	EventMarketResolved  SettlementEventType = "market_resolved"
	EventPayoutClaimed   SettlementEventType = "payout_claimed"
	EventMarketCancelled SettlementEventType = "market_cancelled"
	EventRefundClaimed   SettlementEventType = "refund_claimed"
)

// SettlementEvent is an outbox row written in the same transaction as the
// state change it describes. The relay job publishes and stamps PublishedAt.
// Sequence orders the events of one market; CreatedAt is informational.
type SettlementEvent struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID    uint64              `gorm:"not null;uniqueIndex:idx_event_market_seq,priority:1" json:"market_id"`
	Sequence    uint64              `gorm:"not null;uniqueIndex:idx_event_market_seq,priority:2" json:"sequence"` // 1-based, per market
	EventType   SettlementEventType `gorm:"size:40;not null;index" json:"event_type"`
	Payload     []byte              `gorm:"not null" json:"payload"`
	CreatedAt   time.Time           `gorm:"index" json:"created_at"`
	PublishedAt *time.Time          `gorm:"index" json:"published_at,omitempty"`
}

// TableName specifies the table name for SettlementEvent
func (SettlementEvent) TableName() string {
	return "settlement_events"
}
