package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-settlement/internal/auth"
	"market-settlement/internal/blockchain"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/settlement"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles wallet sign-in
type AuthService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo *repository.Repository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, logger: logger}
}

// LoginMessage is the text a wallet signs to sign in with nonce
func LoginMessage(nonce string) string {
	return fmt.Sprintf("Sign in to market-settlement\nNonce: %s", nonce)
}

// Challenge returns the message wallet must sign for its next login
func (s *AuthService) Challenge(ctx context.Context, wallet string) (string, error) {
	if !blockchain.ValidateWalletAddress(wallet) {
		return "", settlement.ErrInvalidWallet
	}
	user, err := s.repo.GetOrCreateUser(ctx, wallet, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	return LoginMessage(user.LoginNonce), nil
}

// Login verifies wallet's signature over its current challenge, rotates the
// nonce so the signature cannot be replayed and issues a JWT
func (s *AuthService) Login(ctx context.Context, wallet, signature string) (*models.User, string, error) {
	user, err := s.repo.GetUserByWallet(ctx, wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", settlement.ErrUnauthorized
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := blockchain.VerifyWalletSignature(wallet, []byte(LoginMessage(user.LoginNonce)), signature); err != nil {
		s.logger.Debug("wallet signature rejected", zap.String("wallet", wallet), zap.Error(err))
		return nil, "", settlement.ErrUnauthorized
	}

	now := time.Now()
	user.LoginNonce = uuid.NewString()
	user.LastLoginAt = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to update user: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("wallet logged in", zap.String("wallet", wallet), zap.Uint("user_id", user.ID))
	return user, token, nil
}

// GetUserByWallet retrieves the user of a wallet
func (s *AuthService) GetUserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	return s.repo.GetUserByWallet(ctx, wallet)
}
