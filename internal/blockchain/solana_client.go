package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

var (
	// ErrTransactionNotConfirmed is returned while a signature is unknown or below confirmed commitment
	ErrTransactionNotConfirmed = errors.New("transaction not confirmed")
	// ErrTransactionFailed is returned for a transaction that executed with an error
	ErrTransactionFailed = errors.New("transaction execution failed")
	// ErrNoVaultTransfer is returned when a transaction moves no lamports into the vault
	ErrNoVaultTransfer = errors.New("transaction contains no transfer to the vault")
	// ErrVaultNotConfigured is returned by withdrawals without a vault signing key
	ErrVaultNotConfigured = errors.New("vault wallet not configured")
)

// SolanaClient handles the on-chain edges of the ledger: verifying deposits
// into the platform vault and paying withdrawals out of it
type SolanaClient struct {
	rpcClient   *rpc.Client
	vault       solana.PublicKey
	vaultWallet *solana.Wallet
	logger      *zap.Logger
}

// TransferDetails holds the parsed details of a verified vault deposit
type TransferDetails struct {
	Signature string
	Sender    string
	Receiver  string
	Amount    uint64 // in lamports
	Slot      uint64
}

// NewSolanaClient creates a new Solana client. vaultSecretKey may be empty,
// in which case withdrawals are disabled and vaultAddress must be set.
func NewSolanaClient(rpcURL, vaultAddress, vaultSecretKey string, logger *zap.Logger) (*SolanaClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		logger:    logger,
	}

	if vaultSecretKey != "" {
		wallet, err := solana.WalletFromPrivateKeyBase58(vaultSecretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load vault wallet: %w", err)
		}
		client.vaultWallet = wallet
		client.vault = wallet.PublicKey()
	}

	if vaultAddress != "" {
		vault, err := solana.PublicKeyFromBase58(vaultAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid vault address: %w", err)
		}
		if client.vaultWallet != nil && !vault.Equals(client.vault) {
			return nil, fmt.Errorf("vault address %s does not match vault key %s", vault, client.vault)
		}
		client.vault = vault
	}

	if client.vault.IsZero() {
		return nil, fmt.Errorf("vault address or vault key is required")
	}

	logger.Info("solana client ready", zap.String("vault", client.vault.String()), zap.Bool("withdrawals", client.vaultWallet != nil))
	return client, nil
}

// VaultAddress returns the wallet deposits must be sent to
func (s *SolanaClient) VaultAddress() string {
	return s.vault.String()
}

// VerifyDeposit checks that signature is a confirmed, successful transaction
// transferring lamports into the vault and returns the transfer
func (s *SolanaClient) VerifyDeposit(ctx context.Context, signature string) (*TransferDetails, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	status, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(status.Value) == 0 || status.Value[0] == nil {
		return nil, ErrTransactionNotConfirmed
	}
	if status.Value[0].Err != nil {
		s.logger.Warn("deposit transaction failed on-chain", zap.String("signature", signature), zap.Any("err", status.Value[0].Err))
		return nil, ErrTransactionFailed
	}
	confStatus := status.Value[0].ConfirmationStatus
	if confStatus != rpc.ConfirmationStatusConfirmed && confStatus != rpc.ConfirmationStatusFinalized {
		return nil, ErrTransactionNotConfirmed
	}

	maxVersion := uint64(0)
	tx, err := s.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction details: %w", err)
	}
	if tx.Meta != nil && tx.Meta.Err != nil {
		return nil, ErrTransactionFailed
	}

	transaction, err := tx.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	sender, amount, err := vaultTransfers(transaction, s.vault)
	if err != nil {
		return nil, err
	}

	return &TransferDetails{
		Signature: signature,
		Sender:    sender.String(),
		Receiver:  s.vault.String(),
		Amount:    amount,
		Slot:      tx.Slot,
	}, nil
}

// vaultTransfers sums the SystemProgram transfers into vault. All of them
// must come from the same funding account.
func vaultTransfers(tx *solana.Transaction, vault solana.PublicKey) (solana.PublicKey, uint64, error) {
	var (
		sender solana.PublicKey
		total  uint64
	)
	for _, ci := range tx.Message.Instructions {
		programID, err := tx.ResolveProgramIDIndex(ci.ProgramIDIndex)
		if err != nil || !programID.Equals(solana.SystemProgramID) {
			continue
		}
		accounts, err := ci.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return solana.PublicKey{}, 0, fmt.Errorf("failed to resolve instruction accounts: %w", err)
		}
		inst, err := system.DecodeInstruction(accounts, ci.Data)
		if err != nil {
			continue
		}
		transfer, ok := inst.Impl.(*system.Transfer)
		if !ok || transfer.Lamports == nil {
			continue
		}
		if !transfer.GetRecipientAccount().PublicKey.Equals(vault) {
			continue
		}

		from := transfer.GetFundingAccount().PublicKey
		if !sender.IsZero() && !sender.Equals(from) {
			return solana.PublicKey{}, 0, fmt.Errorf("deposit has more than one sender")
		}
		sender = from
		if total+*transfer.Lamports < total {
			return solana.PublicKey{}, 0, fmt.Errorf("deposit amount overflows")
		}
		total += *transfer.Lamports
	}

	if total == 0 {
		return solana.PublicKey{}, 0, ErrNoVaultTransfer
	}
	return sender, total, nil
}

// SignedTransfer is a vault payout that has been signed but may not have
// been broadcast. Its signature is known before anything reaches the network.
type SignedTransfer struct {
	Signature string
	Recipient string
	Lamports  uint64
	// LastValidBlockHeight is the height after which the transaction can no
	// longer be processed
	LastValidBlockHeight uint64

	tx *solana.Transaction
}

// TransferState is what the cluster reports for a signed transfer
type TransferState string

const (
	// TransferPending: not seen yet, or seen below confirmed, and its blockhash is still valid
	TransferPending TransferState = "PENDING"
	// TransferLanded: confirmed without error
	TransferLanded TransferState = "LANDED"
	// TransferFailed: executed with an error, no lamports moved
	TransferFailed TransferState = "FAILED"
	// TransferExpired: never seen and its blockhash has expired, so it can never land
	TransferExpired TransferState = "EXPIRED"
)

// SignVaultTransfer builds and signs a transfer from the vault to a wallet
// without sending it
func (s *SolanaClient) SignVaultTransfer(ctx context.Context, to string, lamports uint64) (*SignedTransfer, error) {
	if s.vaultWallet == nil {
		return nil, ErrVaultNotConfigured
	}
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	latest, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, s.vault, recipient).Build(),
		},
		latest.Value.Blockhash,
		solana.TransactionPayer(s.vault),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	sigs, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.vault) {
			return &s.vaultWallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("transaction produced no signature")
	}

	return &SignedTransfer{
		Signature:            sigs[0].String(),
		Recipient:            recipient.String(),
		Lamports:             lamports,
		LastValidBlockHeight: latest.Value.LastValidBlockHeight,
		tx:                   tx,
	}, nil
}

// Broadcast submits a signed transfer. An error does not mean the transfer
// was not delivered; use TransferState to find out.
func (s *SolanaClient) Broadcast(ctx context.Context, t *SignedTransfer) error {
	if t == nil || t.tx == nil {
		return fmt.Errorf("transfer was not signed by this client")
	}
	if _, err := s.SendTransaction(ctx, t.tx); err != nil {
		return err
	}
	return nil
}

// TransferState looks a signature up on the cluster. A signature that is
// unknown is only reported expired once the finalized block height has
// passed lastValidBlockHeight.
func (s *SolanaClient) TransferState(ctx context.Context, signature string, lastValidBlockHeight uint64) (TransferState, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature: %w", err)
	}

	status, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return "", fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(status.Value) > 0 && status.Value[0] != nil {
		st := status.Value[0]
		if st.Err != nil {
			return TransferFailed, nil
		}
		switch st.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return TransferLanded, nil
		}
		return TransferPending, nil
	}

	height, err := s.rpcClient.GetBlockHeight(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get block height: %w", err)
	}
	if height > lastValidBlockHeight {
		return TransferExpired, nil
	}
	return TransferPending, nil
}

// SendTransaction sends a signed transaction to the network
func (s *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := s.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// GetRecentBlockhash gets the latest blockhash
func (s *SolanaClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	resp, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return resp.Value.Blockhash, nil
}

// GetVaultBalance returns the on-chain lamport balance of the vault
func (s *SolanaClient) GetVaultBalance(ctx context.Context) (uint64, error) {
	balance, err := s.rpcClient.GetBalance(ctx, s.vault, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return balance.Value, nil
}
