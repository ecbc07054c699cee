package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/sessionauth/jwt"
	"github.com/MrEthical07/sessionauth/revocation"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureParse
	RefreshFailureUnknownAccount
	RefreshFailureLookup
	RefreshFailureRevoked
	RefreshFailureStoreRead
	RefreshFailureReuse
	RefreshFailureMint
	RefreshFailureRaceLost
	RefreshFailureStoreWrite
)

// Infrastructure reports whether the failure was caused by a dependency
// outage rather than by the presented token.
func (k RefreshFailureKind) Infrastructure() bool {
	switch k {
	case RefreshFailureLookup, RefreshFailureStoreRead, RefreshFailureMint, RefreshFailureStoreWrite:
		return true
	default:
		return false
	}
}

// RefreshResult carries either the rotated token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	AccountID    string
	AccessToken  string
	RefreshToken string
}

// RefreshStore is the revocation store surface used by rotation.
type RefreshStore interface {
	Get(ctx context.Context, accountID string) (string, error)
	Put(ctx context.Context, accountID, fingerprint string, ttl time.Duration) error
	Swap(ctx context.Context, accountID, expected, next string, ttl time.Duration) error
	Delete(ctx context.Context, accountID string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Tokens          TokenMinter
	LookupByID      LookupFunc
	AccountNotFound error
	Store           RefreshStore
	RevocationTTL   time.Duration
	// Atomic rotates with a compare-and-swap so concurrent refreshes of one
	// token produce a single winner. When false the write is an unconditional
	// Put and the last writer wins.
	Atomic        bool
	RevokeOnReuse bool
	Warn          func(msg string, err error)
}

// RunRefresh exchanges a live refresh token for a new pair and retires the
// presented one.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.Tokens.Parse(refreshToken, jwt.KindRefresh)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureParse, Err: err}
	}
	accountID := claims.Subject

	account, err := deps.LookupByID(ctx, accountID)
	if err != nil {
		if deps.AccountNotFound != nil && errors.Is(err, deps.AccountNotFound) {
			return RefreshResult{Failure: RefreshFailureUnknownAccount, Err: err, AccountID: accountID}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err, AccountID: accountID}
	}
	if !account.Active {
		return RefreshResult{Failure: RefreshFailureUnknownAccount, Err: errors.New("account inactive"), AccountID: accountID}
	}

	stored, err := deps.Store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, revocation.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureRevoked, Err: err, AccountID: accountID}
		}
		return RefreshResult{Failure: RefreshFailureStoreRead, Err: err, AccountID: accountID}
	}

	presented := revocation.Fingerprint(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
		if deps.RevokeOnReuse {
			if delErr := deps.Store.Delete(ctx, accountID); delErr != nil && deps.Warn != nil {
				deps.Warn("revoke on reuse failed", delErr)
			}
		}
		return RefreshResult{Failure: RefreshFailureReuse, Err: errors.New("refresh fingerprint mismatch"), AccountID: accountID}
	}

	access, refresh, err := mintPair(deps.Tokens, accountID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureMint, Err: err, AccountID: accountID}
	}
	next := revocation.Fingerprint(refresh)

	if deps.Atomic {
		err = deps.Store.Swap(ctx, accountID, presented, next, deps.RevocationTTL)
	} else {
		err = deps.Store.Put(ctx, accountID, next, deps.RevocationTTL)
	}
	if err != nil {
		switch {
		case errors.Is(err, revocation.ErrFingerprintMismatch), errors.Is(err, revocation.ErrNotFound):
			// Another refresh or a logout got there first.
			return RefreshResult{Failure: RefreshFailureRaceLost, Err: err, AccountID: accountID}
		default:
			return RefreshResult{Failure: RefreshFailureStoreWrite, Err: err, AccountID: accountID}
		}
	}

	return RefreshResult{
		AccountID:    accountID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
