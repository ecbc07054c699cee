package sessionauth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MrEthical07/sessionauth/internal/flows"
)

func (e *Engine) initFlows() {
	warn := func(msg string, err error) {
		e.logger.Warn(msg, zap.Error(err))
	}

	login := flows.LoginDeps{
		ClientIPFromContext: clientIPFromContext,
		LookupByEmail:       e.lookup(e.accounts.AccountByEmail),
		AccountNotFound:     ErrAccountNotFound,
		VerifyPassword:      e.verifier.Verify,
		DummyHash:           e.verifier.DummyHash(),
		Tokens:              e.tokens,
		Store:               e.store,
		RevocationTTL:       e.config.revocationTTL(),
		Warn:                warn,
	}
	if e.limiter != nil {
		login.RateLimiter = e.limiter
	}

	e.flows = flows.New(flows.Deps{
		Login: login,
		Refresh: flows.RefreshDeps{
			Tokens:          e.tokens,
			LookupByID:      e.lookup(e.accounts.AccountByID),
			AccountNotFound: ErrAccountNotFound,
			Store:           e.store,
			RevocationTTL:   e.config.revocationTTL(),
			Atomic:          e.config.Revocation.Atomic,
			RevokeOnReuse:   e.config.Revocation.RevokeOnReuse,
			Warn:            warn,
		},
		Logout: flows.LogoutDeps{
			Tokens: e.tokens,
			Store:  e.store,
		},
		Validate: flows.ValidateDeps{
			Tokens: e.tokens,
		},
	})
}

// lookup adapts an AccountProvider method to the flow-local account shape.
// A nil-error result with an empty ID is treated as not found.
func (e *Engine) lookup(fn func(context.Context, string) (Account, error)) flows.LookupFunc {
	return func(ctx context.Context, key string) (flows.Account, error) {
		a, err := fn(ctx, key)
		if err != nil {
			return flows.Account{}, err
		}
		if a.ID == "" {
			return flows.Account{}, errors.Join(ErrAccountNotFound, errors.New("provider returned empty account id"))
		}
		return flows.Account{ID: a.ID, PasswordHash: a.PasswordHash, Active: a.Active}, nil
	}
}
