package repository

import (
	"context"
	"time"

	"market-settlement/internal/models"
	"market-settlement/internal/settlement"

	"gorm.io/gorm/clause"
)

// CreateMarket inserts a market. An existing market id yields settlement.ErrMarketExists.
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "market_id"}}, DoNothing: true}).
		Create(market)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return settlement.ErrMarketExists
	}
	return nil
}

// GetMarket retrieves a market by id
func (r *Repository) GetMarket(ctx context.Context, marketID uint64) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, notFound(err, settlement.ErrMarketNotFound)
	}
	return &market, nil
}

// LockMarket re-reads a market holding its row lock until the transaction ends
func (r *Repository) LockMarket(ctx context.Context, marketID uint64) (*models.Market, error) {
	var market models.Market
	err := r.forUpdate(r.db.WithContext(ctx)).Where("market_id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, notFound(err, settlement.ErrMarketNotFound)
	}
	return &market, nil
}

// SaveMarket writes every column of market
func (r *Repository) SaveMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

// ListMarkets returns markets newest first, optionally filtered by status
func (r *Repository) ListMarkets(
	ctx context.Context,
	status models.MarketStatus,
	limit int,
	offset int,
) ([]*models.Market, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Market{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var markets []*models.Market
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&markets).Error
	if err != nil {
		return nil, 0, err
	}
	return markets, total, nil
}

// ListStaleMarkets returns active markets whose end date is before cutoff
func (r *Repository) ListStaleMarkets(ctx context.Context, cutoff time.Time, limit int) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", models.MarketStatusActive, cutoff).
		Order("end_date ASC").
		Limit(limit).
		Find(&markets).Error
	if err != nil {
		return nil, err
	}
	return markets, nil
}
