package settlement

import (
	"errors"
)

// Kind groups settlement errors by the invariant they protect
type Kind string

const (
	KindValidation    Kind = "validation"
	KindState         Kind = "state"
	KindAuthorization Kind = "authorization"
	KindArithmetic    Kind = "arithmetic"
	KindNotFound      Kind = "not_found"
	KindFunds         Kind = "funds"
	KindFatal         Kind = "fatal"
)

// Error is a settlement rejection. Every rejection leaves persistent state unchanged.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation
var (
	ErrInvalidAmount      = newError(KindValidation, "InvalidAmount", "amount must be greater than zero")
	ErrInvalidFeeRate     = newError(KindValidation, "InvalidFeeRate", "fee rates must not exceed 10000 bps in total")
	ErrInvalidSide        = newError(KindValidation, "InvalidSide", "side must be YES or NO")
	ErrInvalidTitle       = newError(KindValidation, "InvalidTitle", "invalid market title: must be 1-128 characters")
	ErrInvalidDescription = newError(KindValidation, "InvalidDescription", "invalid market description: must be 1-512 characters")
	ErrInvalidEndDate     = newError(KindValidation, "InvalidEndDate", "invalid end date: must be in the future")
	ErrInvalidDuration    = newError(KindValidation, "InvalidDuration", "market duration is outside the configured bounds")
	ErrInvalidWallet      = newError(KindValidation, "InvalidWallet", "invalid wallet address")
	ErrBetTooSmall        = newError(KindValidation, "BetTooSmall", "bet amount is below minimum")
	ErrBetTooLarge        = newError(KindValidation, "BetTooLarge", "bet amount exceeds maximum")
	ErrMarketSizeExceeded = newError(KindValidation, "MarketSizeExceeded", "bet would exceed the maximum market size")
)

// State
var (
	ErrMarketNotActive            = newError(KindState, "MarketNotActive", "market is not active")
	ErrMarketEnded                = newError(KindState, "MarketEnded", "market has ended")
	ErrMarketNotEnded             = newError(KindState, "MarketNotEnded", "cannot resolve market before end date")
	ErrMarketNotResolved          = newError(KindState, "MarketNotResolved", "market is not resolved yet")
	ErrMarketAlreadyResolved      = newError(KindState, "MarketAlreadyResolved", "market is already resolved")
	ErrMarketNotCancelled         = newError(KindState, "MarketNotCancelled", "market is not cancelled")
	ErrCannotCancelResolvedMarket = newError(KindState, "CannotCancelResolvedMarket", "cannot cancel a market that is not active")
	ErrCannotCancelBeforeEndDate  = newError(KindState, "CannotCancelBeforeEndDate", "cannot cancel market before end date")
	ErrAlreadyClaimed             = newError(KindState, "AlreadyClaimed", "position already claimed")
	ErrBetLost                    = newError(KindState, "BetLost", "bet lost - no payout available")
	ErrMarketExists               = newError(KindState, "MarketExists", "market already exists")
	ErrBettingDisabled            = newError(KindState, "BettingDisabled", "betting is disabled")
	ErrResolutionDisabled         = newError(KindState, "ResolutionDisabled", "resolution is disabled")
	ErrMarketCreationDisabled     = newError(KindState, "MarketCreationDisabled", "market creation is disabled")
)

// Authorization
var (
	ErrUnauthorized = newError(KindAuthorization, "Unauthorized", "unauthorized")
)

// Arithmetic
var (
	ErrPoolOverflow              = newError(KindArithmetic, "PoolOverflow", "pool overflow: bet would exceed maximum pool size")
	ErrTotalVolumeOverflow       = newError(KindArithmetic, "TotalVolumeOverflow", "total volume overflow")
	ErrTotalBetsOverflow         = newError(KindArithmetic, "TotalBetsOverflow", "total bets counter overflow")
	ErrFeeOverflow               = newError(KindArithmetic, "FeeOverflow", "fee accumulation overflow")
	ErrNoWinnersCannotClaim      = newError(KindArithmetic, "NoWinnersCannotClaim", "no winners - cannot claim payout (winning pool is zero)")
	ErrPayoutCalculationOverflow = newError(KindArithmetic, "PayoutCalculationOverflow", "payout calculation overflow")
	ErrTotalClaimedOverflow      = newError(KindArithmetic, "TotalClaimedOverflow", "total claimed amount overflow")
)

// Lookup and funds
var (
	ErrMarketNotFound    = newError(KindNotFound, "MarketNotFound", "market not found")
	ErrPositionNotFound  = newError(KindNotFound, "PositionNotFound", "position not found")
	ErrAccountNotFound   = newError(KindNotFound, "AccountNotFound", "ledger account not found")
	ErrInsufficientFunds = newError(KindFunds, "InsufficientFunds", "insufficient funds")
)

// ErrConservationViolated means an accounting invariant failed after the fact.
// It indicates a bug on some write path and must never be corrected silently.
var ErrConservationViolated = newError(KindFatal, "ConservationViolated", "conservation invariant violated")

// KindOf returns the kind of err, or "" if err is not a settlement error
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// CodeOf returns the code of err, or "" if err is not a settlement error
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
