package blockchain

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DiagnosticResult holds the result of a Solana connectivity diagnostic
type DiagnosticResult struct {
	RPCConnected       bool   `json:"rpc_connected"`
	RPCError           string `json:"rpc_error,omitempty"`
	LatestBlockhash    string `json:"latest_blockhash,omitempty"`
	Vault              string `json:"vault"`
	VaultBalance       uint64 `json:"vault_balance"`
	VaultError         string `json:"vault_error,omitempty"`
	WithdrawalsEnabled bool   `json:"withdrawals_enabled"`
	Timestamp          string `json:"timestamp"`
}

// RunDiagnostics checks RPC connectivity and the vault's on-chain balance
func (s *SolanaClient) RunDiagnostics(ctx context.Context) *DiagnosticResult {
	result := &DiagnosticResult{
		Timestamp:          time.Now().Format(time.RFC3339),
		Vault:              s.vault.String(),
		WithdrawalsEnabled: s.vaultWallet != nil,
	}

	blockhash, err := s.GetRecentBlockhash(ctx)
	if err != nil {
		result.RPCError = err.Error()
		s.logger.Warn("diagnostics: rpc unreachable", zap.Error(err))
		return result
	}
	result.RPCConnected = true
	result.LatestBlockhash = blockhash.String()

	balance, err := s.GetVaultBalance(ctx)
	if err != nil {
		result.VaultError = err.Error()
		s.logger.Warn("diagnostics: vault balance unavailable", zap.Error(err))
		return result
	}
	result.VaultBalance = balance
	return result
}
