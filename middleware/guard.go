package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/sessionauth"
)

const authResultKey = "sessionauth.result"

// Validator is satisfied by *sessionauth.Engine.
type Validator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*sessionauth.AuthResult, error)
}

// AuthResultFromContext returns the result stored by RequireAccess.
func AuthResultFromContext(c *gin.Context) (*sessionauth.AuthResult, bool) {
	v, ok := c.Get(authResultKey)
	if !ok {
		return nil, false
	}
	res, ok := v.(*sessionauth.AuthResult)
	return res, ok && res != nil
}

// AccountIDFromContext returns the authenticated account ID or "".
func AccountIDFromContext(c *gin.Context) string {
	res, ok := AuthResultFromContext(c)
	if !ok {
		return ""
	}
	return res.AccountID
}

// RequireAccess rejects requests without a valid access token with 401.
// Every rejection carries the same body.
func RequireAccess(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			abortUnauthorized(c)
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		res, err := v.ValidateAccess(c.Request.Context(), token)
		if err != nil {
			if sessionauth.KindOf(err) == sessionauth.KindInvalidToken {
				abortUnauthorized(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}

		c.Set(authResultKey, res)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}
