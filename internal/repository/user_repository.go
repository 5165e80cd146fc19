package repository

import (
	"context"
	"errors"

	"market-settlement/internal/models"

	"gorm.io/gorm"
)

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser returns the user for wallet, creating it with nonce if new
func (r *Repository) GetOrCreateUser(ctx context.Context, wallet, nonce string) (*models.User, error) {
	user, err := r.GetUserByWallet(ctx, wallet)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &models.User{WalletAddress: wallet, LoginNonce: nonce}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser writes every column of user
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
