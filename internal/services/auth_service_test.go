package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"market-settlement/internal/auth"
	"market-settlement/internal/settlement"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletLogin(t *testing.T) {
	auth.InitJWT("test-secret", time.Hour)
	env := newTestEnv(t)
	svc := NewAuthService(env.repo, nil)
	ctx := context.Background()

	wallet := solana.NewWallet()
	address := wallet.PublicKey().String()

	message, err := svc.Challenge(ctx, address)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(message, "Sign in to market-settlement"))

	sig, err := wallet.PrivateKey.Sign([]byte(message))
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, address, sig.String())
	require.NoError(t, err)
	assert.Equal(t, address, user.WalletAddress)
	assert.NotNil(t, user.LastLoginAt)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, address, claims.WalletAddress)

	// the nonce rotates, so the same signature cannot be replayed
	_, _, err = svc.Login(ctx, address, sig.String())
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	next, err := svc.Challenge(ctx, address)
	require.NoError(t, err)
	assert.NotEqual(t, message, next)
}

func TestWalletLoginRejections(t *testing.T) {
	auth.InitJWT("test-secret", time.Hour)
	env := newTestEnv(t)
	svc := NewAuthService(env.repo, nil)
	ctx := context.Background()

	_, err := svc.Challenge(ctx, "not-a-wallet")
	assert.ErrorIs(t, err, settlement.ErrInvalidWallet)

	_, _, err = svc.Login(ctx, newWallet(), "sig")
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)

	wallet := solana.NewWallet()
	address := wallet.PublicKey().String()
	_, err = svc.Challenge(ctx, address)
	require.NoError(t, err)

	other := solana.NewWallet()
	sig, err := other.PrivateKey.Sign([]byte(LoginMessage("whatever")))
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, address, sig.String())
	assert.ErrorIs(t, err, settlement.ErrUnauthorized)
}
