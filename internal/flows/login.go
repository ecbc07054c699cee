package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/revocation"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureLimiter
	LoginFailureUnknownAccount
	LoginFailureInactive
	LoginFailureBadPassword
	LoginFailureLookup
	LoginFailureMint
	LoginFailureStore
)

// Infrastructure reports whether the failure was caused by a dependency
// outage rather than by the caller.
func (k LoginFailureKind) Infrastructure() bool {
	switch k {
	case LoginFailureLimiter, LoginFailureLookup, LoginFailureMint, LoginFailureStore:
		return true
	default:
		return false
	}
}

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	Email        string
	AccountID    string
	AccessToken  string
	RefreshToken string
}

// LoginRateLimiter is the login throttle.
type LoginRateLimiter interface {
	Check(ctx context.Context, email, ip string) error
	Increment(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email string) error
}

// LoginStore persists the refresh fingerprint issued at login.
type LoginStore interface {
	Put(ctx context.Context, accountID, fingerprint string, ttl time.Duration) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string
	LookupByEmail       LookupFunc
	AccountNotFound     error
	VerifyPassword      func(password, hash string) bool
	DummyHash           string
	Tokens              TokenMinter
	Store               LoginStore
	RevocationTTL       time.Duration
	RateLimiter         LoginRateLimiter
	Warn                func(msg string, err error)
}

// RunLogin verifies credentials and, on success, issues a token pair whose
// refresh fingerprint replaces any previous one for the account.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	email = strings.ToLower(strings.TrimSpace(email))
	ip := ""
	if deps.ClientIPFromContext != nil {
		ip = deps.ClientIPFromContext(ctx)
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.Check(ctx, email, ip); err != nil {
			failure := LoginFailureLimiter
			if errors.Is(err, rate.ErrRateLimited) {
				failure = LoginFailureRateLimited
			}
			return LoginResult{Failure: failure, Err: err, Email: email}
		}
	}

	fail := func(kind LoginFailureKind, accountID string, err error) LoginResult {
		if deps.RateLimiter != nil {
			if incErr := deps.RateLimiter.Increment(ctx, email, ip); incErr != nil && !errors.Is(incErr, rate.ErrRateLimited) {
				warn(deps, "login throttle increment failed", incErr)
			}
		}
		return LoginResult{Failure: kind, Err: err, Email: email, AccountID: accountID}
	}

	account, err := deps.LookupByEmail(ctx, email)
	if err != nil {
		if deps.AccountNotFound != nil && errors.Is(err, deps.AccountNotFound) {
			deps.VerifyPassword(password, deps.DummyHash)
			return fail(LoginFailureUnknownAccount, "", err)
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err, Email: email}
	}
	if !account.Active {
		deps.VerifyPassword(password, deps.DummyHash)
		return fail(LoginFailureInactive, account.ID, errors.New("account inactive"))
	}

	if !deps.VerifyPassword(password, account.PasswordHash) {
		return fail(LoginFailureBadPassword, account.ID, errors.New("password mismatch"))
	}

	access, refresh, err := mintPair(deps.Tokens, account.ID)
	if err != nil {
		return LoginResult{Failure: LoginFailureMint, Err: err, Email: email, AccountID: account.ID}
	}

	if err := deps.Store.Put(ctx, account.ID, revocation.Fingerprint(refresh), deps.RevocationTTL); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, Email: email, AccountID: account.ID}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.Reset(ctx, email); err != nil {
			warn(deps, "login throttle reset failed", err)
		}
	}

	return LoginResult{
		Email:        email,
		AccountID:    account.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

func warn(deps LoginDeps, msg string, err error) {
	if deps.Warn != nil {
		deps.Warn(msg, err)
	}
}
