package flows

import (
	"context"

	"github.com/MrEthical07/sessionauth/jwt"
)

// LogoutStore deletes the refresh slot of an account.
type LogoutStore interface {
	Delete(ctx context.Context, accountID string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Tokens TokenMinter
	Store  LogoutStore
}

// LogoutByAccessResult reports which account an access-token logout resolved
// to. Exactly one of ParseErr and StoreErr may be set.
type LogoutByAccessResult struct {
	AccountID string
	ParseErr  error
	StoreErr  error
}

// RunLogout revokes the account's refresh slot. Revoking an empty slot
// succeeds.
func RunLogout(ctx context.Context, accountID string, deps LogoutDeps) error {
	return deps.Store.Delete(ctx, accountID)
}

// RunLogoutByAccessToken resolves the account from a valid access token and
// revokes its refresh slot.
func RunLogoutByAccessToken(ctx context.Context, accessToken string, deps LogoutDeps) LogoutByAccessResult {
	claims, err := deps.Tokens.Parse(accessToken, jwt.KindAccess)
	if err != nil {
		return LogoutByAccessResult{ParseErr: err}
	}
	return LogoutByAccessResult{
		AccountID: claims.Subject,
		StoreErr:  RunLogout(ctx, claims.Subject, deps),
	}
}
