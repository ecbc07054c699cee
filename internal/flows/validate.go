package flows

import (
	"context"

	"github.com/MrEthical07/sessionauth/jwt"
)

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	Tokens TokenMinter
}

// ValidateResult returns either the verified claims or the parse error.
type ValidateResult struct {
	Claims *jwt.Claims
	Err    error
}

// RunValidate verifies an access token locally. Access tokens are not
// revocable, so there is no store round-trip.
func RunValidate(_ context.Context, accessToken string, deps ValidateDeps) ValidateResult {
	claims, err := deps.Tokens.Parse(accessToken, jwt.KindAccess)
	if err != nil {
		return ValidateResult{Err: err}
	}
	return ValidateResult{Claims: claims}
}
