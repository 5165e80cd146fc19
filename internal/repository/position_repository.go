package repository

import (
	"context"

	"market-settlement/internal/models"
	"market-settlement/internal/settlement"

	"github.com/google/uuid"
)

// PositionFilter narrows ListPositions. Zero values match everything.
type PositionFilter struct {
	MarketID *uint64
	Bettor   string
	Limit    int
	Offset   int
}

// CreatePosition inserts a position, assigning an id if it has none
func (r *Repository) CreatePosition(ctx context.Context, position *models.Position) error {
	if position.ID == uuid.Nil {
		position.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(position).Error
}

// GetPosition retrieves a position by id
func (r *Repository) GetPosition(ctx context.Context, positionID uuid.UUID) (*models.Position, error) {
	var position models.Position
	err := r.db.WithContext(ctx).Where("id = ?", positionID).First(&position).Error
	if err != nil {
		return nil, notFound(err, settlement.ErrPositionNotFound)
	}
	return &position, nil
}

// SavePosition writes every column of position
func (r *Repository) SavePosition(ctx context.Context, position *models.Position) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// HasPosition reports whether bettor already holds a position in the market
func (r *Repository) HasPosition(ctx context.Context, marketID uint64, bettor string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Position{}).
		Where("market_id = ? AND bettor = ?", marketID, bettor).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListPositions returns positions in placement order
func (r *Repository) ListPositions(ctx context.Context, filter PositionFilter) ([]*models.Position, error) {
	query := r.db.WithContext(ctx).Model(&models.Position{})
	if filter.MarketID != nil {
		query = query.Where("market_id = ?", *filter.MarketID)
	}
	if filter.Bettor != "" {
		query = query.Where("bettor = ?", filter.Bettor)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var positions []*models.Position
	if err := query.Order("market_id ASC, sequence ASC").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
