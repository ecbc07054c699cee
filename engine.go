package sessionauth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/sessionauth/internal/audit"
	"github.com/MrEthical07/sessionauth/internal/flows"
	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/jwt"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/revocation"
)

// Engine coordinates login, refresh and logout. It is safe for concurrent use
// once returned by Builder.Build.
type Engine struct {
	config   Config
	logger   *zap.Logger
	accounts AccountProvider
	tokens   *jwt.Manager
	verifier *password.Verifier
	store    *revocation.Store
	limiter  *rate.Limiter
	audit    *audit.Dispatcher
	metrics  *Metrics
	flows    flows.Service
}

// Close flushes pending audit events and closes the audit sink if it is an
// io.Closer. The Redis client is owned by the caller.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	return e.audit.Close()
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login checks email and password and issues a token pair. Any previously
// issued refresh token for the account stops working.
//
// Unknown email, inactive account and wrong password all return the same
// KindInvalidCredentials error after comparable work.
func (e *Engine) Login(ctx context.Context, email, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, newError(KindNotReady)
	}

	res := e.flows.Login(ctx, email, password)
	if res.Failure == flows.LoginFailureNone {
		e.metrics.Inc(MetricLoginSuccess)
		e.emitAudit(ctx, audit.EventLoginSuccess, true, res.AccountID, "", nil)
		return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
	}

	switch {
	case res.Failure == flows.LoginFailureRateLimited:
		e.metrics.Inc(MetricLoginRateLimited)
		e.logger.Debug("login rate limited", zap.String("ip", clientIPFromContext(ctx)))
		e.emitAudit(ctx, audit.EventLoginRateLimited, false, "", auditErrRateLimited, nil)
		return TokenPair{}, newError(KindRateLimited)
	case res.Failure.Infrastructure():
		e.metrics.Inc(MetricInfrastructureFailure)
		e.logger.Error("login backend failure",
			zap.String("stage", loginStage(res.Failure)),
			zap.String("account_id", res.AccountID),
			zap.Error(res.Err),
		)
		e.emitAudit(ctx, audit.EventLoginFailure, false, res.AccountID, auditErrUnavailable, nil)
		return TokenPair{}, newError(KindInfrastructure)
	default:
		e.metrics.Inc(MetricLoginFailure)
		e.logger.Debug("login rejected", zap.String("reason", loginStage(res.Failure)))
		e.emitAudit(ctx, audit.EventLoginFailure, false, res.AccountID, auditErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": loginStage(res.Failure)}
		})
		return TokenPair{}, newError(KindInvalidCredentials)
	}
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is retired; presenting it again yields KindInvalidToken.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, newError(KindNotReady)
	}

	res := e.flows.Refresh(ctx, refreshToken)
	switch {
	case res.Failure == flows.RefreshFailureNone:
		e.metrics.Inc(MetricRefreshSuccess)
		e.emitAudit(ctx, audit.EventRefreshSuccess, true, res.AccountID, "", nil)
		return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
	case res.Failure.Infrastructure():
		e.metrics.Inc(MetricInfrastructureFailure)
		e.logger.Error("refresh backend failure",
			zap.String("stage", refreshStage(res.Failure)),
			zap.String("account_id", res.AccountID),
			zap.Error(res.Err),
		)
		e.emitAudit(ctx, audit.EventRefreshInvalid, false, res.AccountID, auditErrUnavailable, nil)
		return TokenPair{}, newError(KindInfrastructure)
	case res.Failure == flows.RefreshFailureReuse:
		e.metrics.Inc(MetricRefreshFailure)
		e.metrics.Inc(MetricRefreshReuseDetected)
		e.logger.Warn("stale refresh token presented",
			zap.String("account_id", res.AccountID),
			zap.Bool("revoked", e.config.Revocation.RevokeOnReuse),
		)
		e.emitAudit(ctx, audit.EventRefreshReuseDetected, false, res.AccountID, auditErrRefreshReuse, nil)
		return TokenPair{}, newError(KindInvalidToken)
	default:
		e.metrics.Inc(MetricRefreshFailure)
		e.logger.Debug("refresh rejected",
			zap.String("reason", refreshStage(res.Failure)),
			zap.Error(res.Err),
		)
		code := auditErrInvalidToken
		if res.Failure == flows.RefreshFailureRevoked {
			code = auditErrRevoked
		}
		e.emitAudit(ctx, audit.EventRefreshInvalid, false, res.AccountID, code, func() map[string]string {
			return map[string]string{"reason": refreshStage(res.Failure)}
		})
		return TokenPair{}, newError(KindInvalidToken)
	}
}

// Logout revokes the refresh slot of accountID. It succeeds when the slot is
// already empty. Access tokens already issued stay valid until they expire.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	if !e.ready() {
		return newError(KindNotReady)
	}
	if err := e.flows.Logout(ctx, accountID); err != nil {
		e.metrics.Inc(MetricInfrastructureFailure)
		e.logger.Error("logout backend failure", zap.String("account_id", accountID), zap.Error(err))
		return newError(KindInfrastructure)
	}
	e.metrics.Inc(MetricLogout)
	e.emitAudit(ctx, audit.EventLogout, true, accountID, "", nil)
	return nil
}

// LogoutByAccessToken resolves the account from a valid access token and
// revokes its refresh slot.
func (e *Engine) LogoutByAccessToken(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return newError(KindNotReady)
	}
	res := e.flows.LogoutByAccessToken(ctx, accessToken)
	switch {
	case res.ParseErr != nil:
		e.logger.Debug("logout rejected", zap.Error(res.ParseErr))
		return newError(KindInvalidToken)
	case res.StoreErr != nil:
		e.metrics.Inc(MetricInfrastructureFailure)
		e.logger.Error("logout backend failure", zap.String("account_id", res.AccountID), zap.Error(res.StoreErr))
		return newError(KindInfrastructure)
	}
	e.metrics.Inc(MetricLogout)
	e.emitAudit(ctx, audit.EventLogout, true, res.AccountID, "", nil)
	return nil
}

// ValidateAccess verifies an access token locally.
//
//	Performance: no Redis round-trip.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, newError(KindNotReady)
	}

	start := time.Now()
	res := e.flows.Validate(ctx, accessToken)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	if res.Err != nil {
		e.metrics.Inc(MetricValidateFailure)
		e.logger.Debug("access token rejected", zap.Error(res.Err))
		return nil, newError(KindInvalidToken)
	}
	e.metrics.Inc(MetricValidateSuccess)

	result := &AuthResult{AccountID: res.Claims.Subject, TokenID: res.Claims.ID}
	if res.Claims.ExpiresAt != nil {
		result.ExpiresAt = res.Claims.ExpiresAt.Unix()
	}
	return result, nil
}

// Health pings the revocation store.
func (e *Engine) Health(ctx context.Context) (time.Duration, error) {
	if !e.ready() {
		return 0, newError(KindNotReady)
	}
	latency, err := e.store.Ping(ctx)
	if err != nil {
		e.logger.Warn("revocation store ping failed", zap.Error(err))
		return latency, newError(KindInfrastructure)
	}
	return latency, nil
}

func loginStage(k flows.LoginFailureKind) string {
	switch k {
	case flows.LoginFailureRateLimited:
		return "rate_limited"
	case flows.LoginFailureLimiter:
		return "throttle_store"
	case flows.LoginFailureUnknownAccount:
		return "unknown_account"
	case flows.LoginFailureInactive:
		return "inactive_account"
	case flows.LoginFailureBadPassword:
		return "bad_password"
	case flows.LoginFailureLookup:
		return "account_lookup"
	case flows.LoginFailureMint:
		return "mint"
	case flows.LoginFailureStore:
		return "revocation_store"
	default:
		return "none"
	}
}

func refreshStage(k flows.RefreshFailureKind) string {
	switch k {
	case flows.RefreshFailureParse:
		return "parse"
	case flows.RefreshFailureUnknownAccount:
		return "unknown_account"
	case flows.RefreshFailureLookup:
		return "account_lookup"
	case flows.RefreshFailureRevoked:
		return "revoked"
	case flows.RefreshFailureStoreRead:
		return "revocation_read"
	case flows.RefreshFailureReuse:
		return "reuse"
	case flows.RefreshFailureMint:
		return "mint"
	case flows.RefreshFailureRaceLost:
		return "rotation_race"
	case flows.RefreshFailureStoreWrite:
		return "revocation_write"
	default:
		return "none"
	}
}
