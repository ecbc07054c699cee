package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/sessionauth/jwt"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Validate ValidateDeps
}

// Account is the flow-local view of an account record.
type Account struct {
	ID           string
	PasswordHash string
	Active       bool
}

// TokenMinter mints and parses signed tokens.
type TokenMinter interface {
	Mint(subject string, kind jwt.Kind) (string, time.Time, error)
	Parse(token string, kind jwt.Kind) (*jwt.Claims, error)
}

// mintPair mints an access and a refresh token for accountID.
func mintPair(tokens TokenMinter, accountID string) (access, refresh string, err error) {
	access, _, err = tokens.Mint(accountID, jwt.KindAccess)
	if err != nil {
		return "", "", err
	}
	refresh, _, err = tokens.Mint(accountID, jwt.KindRefresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// LookupFunc resolves an account by email or ID.
type LookupFunc func(ctx context.Context, key string) (Account, error)
