package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"market-settlement/internal/models"

	"github.com/google/uuid"
)

// CreateEvent appends an outbox event with payload encoded as JSON. It
// takes the market's next sequence number, so it must run in the
// transaction that holds the market row.
func (r *Repository) CreateEvent(
	ctx context.Context,
	marketID uint64,
	eventType models.SettlementEventType,
	payload interface{},
) (*models.SettlementEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	var last uint64
	err = r.db.WithContext(ctx).
		Model(&models.SettlementEvent{}).
		Where("market_id = ?", marketID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read event sequence: %w", err)
	}

	event := &models.SettlementEvent{
		ID:        uuid.New(),
		MarketID:  marketID,
		Sequence:  last + 1,
		EventType: eventType,
		Payload:   data,
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// ListUnpublishedEvents returns events not yet relayed. Within a market they
// come in sequence order, so a partial batch never skips ahead of an
// earlier event of the same market.
func (r *Repository) ListUnpublishedEvents(ctx context.Context, limit int) ([]*models.SettlementEvent, error) {
	var events []*models.SettlementEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("market_id ASC, sequence ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountUnpublishedEvents returns the relay backlog
func (r *Repository) CountUnpublishedEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SettlementEvent{}).
		Where("published_at IS NULL").
		Count(&count).Error
	return count, err
}

// MarkEventsPublished stamps the given events as relayed
func (r *Repository) MarkEventsPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.SettlementEvent{}).
		Where("id IN ?", ids).
		Update("published_at", at).Error
}

// ListMarketEvents returns the audit trail of a market in sequence order
func (r *Repository) ListMarketEvents(ctx context.Context, marketID uint64) ([]*models.SettlementEvent, error) {
	var events []*models.SettlementEvent
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("sequence ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
