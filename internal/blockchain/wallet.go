package blockchain

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrInvalidSignature is returned when a wallet signature does not verify
var ErrInvalidSignature = errors.New("invalid signature")

// ValidateWalletAddress validates a Solana wallet address format
func ValidateWalletAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// VerifyWalletSignature checks a base58 ed25519 signature by wallet over message
func VerifyWalletSignature(wallet string, message []byte, signature string) error {
	pubKey, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return fmt.Errorf("invalid public key format: %w", err)
	}

	sig, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("invalid signature format: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey.Bytes()), message, sig) {
		return ErrInvalidSignature
	}
	return nil
}
