package sessionauth

import "context"

// Account is the read-only view of an account the session core needs.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Active       bool
}

// AccountProvider reads accounts from the entity store. Both methods return
// ErrAccountNotFound (possibly wrapped) when no account matches; any other
// error is treated as an outage.
type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, id string) (Account, error)
}

// TokenPair is returned by Login and Refresh. It is never persisted.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is the outcome of a successful access-token validation.
type AuthResult struct {
	AccountID string
	TokenID   string
	ExpiresAt int64
}
