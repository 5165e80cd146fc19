package repository

import (
	"context"
	"errors"
	"fmt"

	"market-settlement/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const parametersID = 1

// ErrParametersNotInitialized is returned before the parameter row was seeded
var ErrParametersNotInitialized = errors.New("global parameters not initialized")

// GetParameters reads the current parameter snapshot
func (r *Repository) GetParameters(ctx context.Context) (*models.GlobalParameters, error) {
	var params models.GlobalParameters
	err := r.db.WithContext(ctx).Where("id = ?", parametersID).First(&params).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParametersNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return &params, nil
}

// SeedParameters inserts params unless a snapshot already exists
func (r *Repository) SeedParameters(ctx context.Context, params *models.GlobalParameters) error {
	params.ID = parametersID
	if params.Version == 0 {
		params.Version = 1
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(params).Error
}

// ReplaceParameters overwrites the snapshot and bumps its version
func (r *Repository) ReplaceParameters(ctx context.Context, params *models.GlobalParameters) error {
	return r.Transaction(ctx, func(tx *Repository) error {
		current, err := tx.GetParameters(ctx)
		if err != nil {
			return err
		}
		params.ID = parametersID
		params.Version = current.Version + 1
		if err := tx.db.WithContext(ctx).Save(params).Error; err != nil {
			return fmt.Errorf("failed to save parameters: %w", err)
		}
		return nil
	})
}
