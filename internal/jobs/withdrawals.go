package jobs

import (
	"context"
	"time"

	"market-settlement/internal/services"

	"go.uber.org/zap"
)

const reconcileTimeout = 2 * time.Minute

// WithdrawalReconciler settles withdrawals left pending after an ambiguous broadcast
type WithdrawalReconciler struct {
	funding *services.FundingService
	logger  *zap.Logger
}

func NewWithdrawalReconciler(funding *services.FundingService, logger *zap.Logger) *WithdrawalReconciler {
	return &WithdrawalReconciler{funding: funding, logger: logger}
}

// Run performs one pass
func (j *WithdrawalReconciler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	summary, err := j.funding.ReconcileWithdrawals(ctx)
	if err != nil {
		j.logger.Error("withdrawal reconciliation failed", zap.Error(err))
		return
	}
	if summary.Checked > 0 {
		j.logger.Info("withdrawals reconciled",
			zap.Int("checked", summary.Checked),
			zap.Int("completed", summary.Completed),
			zap.Int("reversed", summary.Reversed),
			zap.Int("pending", summary.Pending),
		)
	}
}
