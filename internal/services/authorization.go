package services

import (
	"market-settlement/internal/models"
	"market-settlement/internal/settlement"
)

// Caller is the authenticated identity invoking an operation
type Caller struct {
	Wallet string
}

// Authenticated reports whether the caller carries a wallet identity
func (c Caller) Authenticated() bool {
	return c.Wallet != ""
}

// Recipients are the wallets receiving the fees of a resolved market
type Recipients struct {
	Platform string
	Creator  string
}

// AuthorizationPolicy decides who may perform each privileged operation.
// The platform authority comes from the parameter snapshot of the operation.
type AuthorizationPolicy struct {
	governance string
}

// NewAuthorizationPolicy builds the policy. governanceWallet may create
// markets on behalf of the governance process; it may be empty.
func NewAuthorizationPolicy(governanceWallet string) *AuthorizationPolicy {
	return &AuthorizationPolicy{governance: governanceWallet}
}

// RequireBettor allows any authenticated wallet
func (p *AuthorizationPolicy) RequireBettor(caller Caller) error {
	if !caller.Authenticated() {
		return settlement.ErrUnauthorized
	}
	return nil
}

// RequireAuthority allows only the platform authority
func (p *AuthorizationPolicy) RequireAuthority(caller Caller, params *models.GlobalParameters) error {
	if !caller.Authenticated() || caller.Wallet != params.Authority {
		return settlement.ErrUnauthorized
	}
	return nil
}

// CanCreate allows the platform authority and the governance wallet
func (p *AuthorizationPolicy) CanCreate(caller Caller, params *models.GlobalParameters) error {
	if !caller.Authenticated() {
		return settlement.ErrUnauthorized
	}
	if caller.Wallet == params.Authority || (p.governance != "" && caller.Wallet == p.governance) {
		return nil
	}
	return settlement.ErrUnauthorized
}

// RequireResolver allows only the market creator, and only with the fee
// recipients the market was set up with
func (p *AuthorizationPolicy) RequireResolver(
	caller Caller,
	market *models.Market,
	params *models.GlobalParameters,
	recipients Recipients,
) error {
	if !caller.Authenticated() || caller.Wallet != market.Creator {
		return settlement.ErrUnauthorized
	}
	if recipients.Platform != params.Authority {
		return settlement.ErrUnauthorized
	}
	if recipients.Creator != market.Creator {
		return settlement.ErrUnauthorized
	}
	return nil
}

// RequireOwner allows only the bettor of a position
func (p *AuthorizationPolicy) RequireOwner(caller Caller, position *models.Position) error {
	if !caller.Authenticated() || caller.Wallet != position.Bettor {
		return settlement.ErrUnauthorized
	}
	return nil
}
