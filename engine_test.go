package sessionauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/sessionauth/revocation"
)

func TestLoginRefreshRotateScenario(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must return a different refresh token")
	}

	_, err = te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// The rotated token still works.
	if _, err := te.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("rotated token must be accepted: %v", err)
	}
}

func TestSecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	first := te.login(t, "alice@example.com")
	second := te.login(t, "alice@example.com")

	_, err := te.Refresh(ctx, first.RefreshToken)
	expectKind(t, err, KindInvalidToken)

	if _, err := te.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("latest refresh token must work: %v", err)
	}
}

func TestLoginsForDifferentAccountsAreIndependent(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	alice := te.login(t, "alice@example.com")
	_ = te.login(t, "bob@example.com")

	if _, err := te.Refresh(ctx, alice.RefreshToken); err != nil {
		t.Fatalf("another account's login must not affect alice: %v", err)
	}
}

func TestLogoutThenRefreshScenario(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	if err := te.Logout(ctx, "acct-alice"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := te.slot(t, "acct-alice"); ok {
		t.Fatal("logout must delete the slot")
	}

	_, err := te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)

	// Idempotent.
	if err := te.Logout(ctx, "acct-alice"); err != nil {
		t.Fatalf("repeat logout must succeed: %v", err)
	}
	if err := te.Logout(ctx, "acct-never-logged-in"); err != nil {
		t.Fatalf("logout of empty slot must succeed: %v", err)
	}
}

func TestLogoutDoesNotRevokeAccessTokens(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	if err := te.LogoutByAccessToken(ctx, pair.AccessToken); err != nil {
		t.Fatalf("logout by access token failed: %v", err)
	}

	res, err := te.ValidateAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("access tokens remain valid until expiry: %v", err)
	}
	if res.AccountID != "acct-alice" || res.TokenID == "" || res.ExpiresAt == 0 {
		t.Fatalf("unexpected auth result %+v", res)
	}

	_, err = te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)
}

func TestLogoutByAccessTokenRejectsBadToken(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	expectKind(t, te.LogoutByAccessToken(ctx, "garbage"), KindInvalidToken)
	expectKind(t, te.LogoutByAccessToken(ctx, pair.RefreshToken), KindInvalidToken)

	if _, ok := te.slot(t, "acct-alice"); !ok {
		t.Fatal("rejected logout must not touch the slot")
	}
}

func TestStoredValueIsFingerprintOnly(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	stored, ok := te.slot(t, "acct-alice")
	if !ok {
		t.Fatal("expected slot after login")
	}
	if stored == pair.RefreshToken || stored != revocation.Fingerprint(pair.RefreshToken) {
		t.Fatalf("slot must hold the fingerprint only, got %q", stored)
	}
	if ttl := te.mr.TTL("refresh_token:acct-alice"); ttl != 7*24*time.Hour {
		t.Fatalf("slot ttl must equal refresh ttl, got %v", ttl)
	}

	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	stored, _ = te.slot(t, "acct-alice")
	if stored == next.RefreshToken || stored != revocation.Fingerprint(next.RefreshToken) {
		t.Fatalf("rotated slot must hold the fingerprint only, got %q", stored)
	}

	for _, key := range te.mr.Keys() {
		v, err := te.mr.Get(key)
		if err != nil {
			continue
		}
		if v == pair.RefreshToken || v == next.RefreshToken || v == pair.AccessToken || v == next.AccessToken {
			t.Fatalf("raw token persisted under %q", key)
		}
	}
}

func TestRefreshRejectsForgedExpiredAndWrongKind(t *testing.T) {
	cfg := testConfig()
	te := newTestEngine(t, cfg, nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"access token": pair.AccessToken,
		"tampered":     pair.RefreshToken[:len(pair.RefreshToken)-2] + "xx",
	}
	for name, token := range cases {
		_, err := te.Refresh(ctx, token)
		if KindOf(err) != KindInvalidToken {
			t.Fatalf("%s: expected invalid token, got %v", name, err)
		}
	}

	// A refresh token whose slot expired.
	te.mr.FastForward(8 * 24 * time.Hour)
	_, err := te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)
}

func TestRefreshRejectsInactiveOrMissingAccount(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")

	te.accounts.mu.Lock()
	a := te.accounts.byID["acct-alice"]
	a.Active = false
	te.accounts.byID["acct-alice"] = a
	te.accounts.mu.Unlock()

	_, err := te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)

	te.accounts.mu.Lock()
	delete(te.accounts.byID, "acct-alice")
	te.accounts.mu.Unlock()

	_, err = te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)

	_, err := te.Login(context.Background(), "carol@example.com", testPassword)
	expectKind(t, err, KindInvalidCredentials)
	if _, ok := te.slot(t, "acct-carol"); ok {
		t.Fatal("inactive account must not get a slot")
	}
}

func TestRevokeOnReuseLogsOutHolder(t *testing.T) {
	cfg := testConfig()
	cfg.Revocation.RevokeOnReuse = true
	te := newTestEngine(t, cfg, nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	_, err = te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)

	_, err = te.Refresh(ctx, next.RefreshToken)
	expectKind(t, err, KindInvalidToken)
}

func TestLoginStoreOutageAborts(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.mr.Close()

	pair, err := te.Login(context.Background(), "alice@example.com", testPassword)
	expectKind(t, err, KindInfrastructure)
	if !errors.Is(err, ErrInfrastructure) {
		t.Fatalf("expected ErrInfrastructure, got %v", err)
	}
	if pair != (TokenPair{}) {
		t.Fatal("no tokens may be returned when the slot was not written")
	}
}

func TestLoginStoreOutageWithoutThrottleAborts(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	te := newTestEngine(t, cfg, nil)
	te.mr.Close()

	pair, err := te.Login(context.Background(), "alice@example.com", testPassword)
	expectKind(t, err, KindInfrastructure)
	if pair != (TokenPair{}) {
		t.Fatal("no tokens may be returned when the slot was not written")
	}
}

func TestRefreshStoreOutageIsNotInvalidToken(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	te.mr.Close()

	_, err := te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInfrastructure)
	if errors.Is(err, ErrInvalidToken) {
		t.Fatal("outage must never look like an invalid token")
	}

	expectKind(t, te.Logout(ctx, "acct-alice"), KindInfrastructure)
	if _, err := te.Health(ctx); KindOf(err) != KindInfrastructure {
		t.Fatalf("expected health failure, got %v", err)
	}
}

func TestAccountProviderOutage(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	te.accounts.setLookupErr(errors.New("db connection reset"))

	_, err := te.Login(ctx, "alice@example.com", testPassword)
	expectKind(t, err, KindInfrastructure)

	_, err = te.Refresh(ctx, pair.RefreshToken)
	expectKind(t, err, KindInfrastructure)
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxLoginAttempts = 3
	te := newTestEngine(t, cfg, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := te.Login(ctx, "alice@example.com", "wrong-password")
		expectKind(t, err, KindInvalidCredentials)
	}

	_, err := te.Login(ctx, "alice@example.com", testPassword)
	expectKind(t, err, KindRateLimited)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	te.mr.FastForward(cfg.RateLimit.LoginCooldown + time.Second)
	te.login(t, "alice@example.com")
}

func TestSuccessfulLoginResetsThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxLoginAttempts = 3
	te := newTestEngine(t, cfg, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = te.Login(ctx, "alice@example.com", "wrong-password")
	}
	te.login(t, "alice@example.com")

	for i := 0; i < 2; i++ {
		_, err := te.Login(ctx, "alice@example.com", "wrong-password")
		expectKind(t, err, KindInvalidCredentials)
	}
}

func TestValidateAccess(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	before := te.accounts.byIDCalls

	if _, err := te.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if te.accounts.byIDCalls != before {
		t.Fatal("validate must not call the account provider")
	}

	_, err := te.ValidateAccess(ctx, pair.RefreshToken)
	expectKind(t, err, KindInvalidToken)

	snap := te.MetricsSnapshot()
	if snap.Counters[MetricValidateSuccess] != 1 || snap.Counters[MetricValidateFailure] != 1 {
		t.Fatalf("unexpected validate counters: %+v", snap.Counters)
	}
}

func TestZeroEngineIsNotReady(t *testing.T) {
	var e Engine
	ctx := context.Background()

	_, err := e.Login(ctx, "a@x.com", "pw")
	expectKind(t, err, KindNotReady)
	_, err = e.Refresh(ctx, "token")
	expectKind(t, err, KindNotReady)
	expectKind(t, e.Logout(ctx, "acct"), KindNotReady)
	_, err = e.ValidateAccess(ctx, "token")
	expectKind(t, err, KindNotReady)
	if !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	if _, err := te.Health(context.Background()); err != nil {
		t.Fatalf("health failed: %v", err)
	}
}

func TestMetricsCountFlows(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	_, _ = te.Login(ctx, "alice@example.com", "wrong-password")
	next, _ := te.Refresh(ctx, pair.RefreshToken)
	_, _ = te.Refresh(ctx, pair.RefreshToken)
	_ = te.LogoutByAccessToken(ctx, next.AccessToken)

	snap := te.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricLoginSuccess:         1,
		MetricLoginFailure:         1,
		MetricRefreshSuccess:       1,
		MetricRefreshFailure:       1,
		MetricRefreshReuseDetected: 1,
		MetricLogout:               1,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("%s: expected %d, got %d", id, v, snap.Counters[id])
		}
	}
}

func TestBuilderValidation(t *testing.T) {
	_, rdb := newTestRedis(t)
	accounts := newMemAccounts(t)

	if _, err := New().WithConfig(testConfig()).WithAccountProvider(accounts).Build(); err == nil {
		t.Fatal("expected missing redis to fail")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected missing account provider to fail")
	}

	bad := testConfig()
	bad.JWT.RefreshSecret = bad.JWT.AccessSecret
	if _, err := New().WithConfig(bad).WithRedis(rdb).WithAccountProvider(accounts).Build(); err == nil {
		t.Fatal("expected shared secrets to fail")
	}

	b := New().WithConfig(testConfig()).WithRedis(rdb).WithAccountProvider(accounts)
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer e.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}
