package sessionauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/sessionauth/password"
)

const testPassword = "correct-password-123"

type memAccounts struct {
	mu        sync.Mutex
	byID      map[string]Account
	lookupErr error

	byEmailCalls int
	byIDCalls    int
}

func newMemAccounts(t *testing.T) *memAccounts {
	t.Helper()

	hasher, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}

	return &memAccounts{byID: map[string]Account{
		"acct-alice": {ID: "acct-alice", Email: "alice@example.com", PasswordHash: hash, Active: true},
		"acct-bob":   {ID: "acct-bob", Email: "bob@example.com", PasswordHash: hash, Active: true},
		"acct-carol": {ID: "acct-carol", Email: "carol@example.com", PasswordHash: hash, Active: false},
	}}
}

func (m *memAccounts) AccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmailCalls++
	if m.lookupErr != nil {
		return Account{}, m.lookupErr
	}
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memAccounts) AccountByID(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byIDCalls++
	if m.lookupErr != nil {
		return Account{}, m.lookupErr
	}
	a, ok := m.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) setLookupErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupErr = err
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-0123456789abcdef-xyz")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-0123456789abcdef-xyz")
	cfg.JWT.Issuer = "sessionauth-test"
	cfg.Password = PasswordConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.Metrics.Enabled = true
	return cfg
}

type testEngine struct {
	*Engine
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	accounts *memAccounts
}

func newTestEngine(t *testing.T, cfg Config, sink AuditSink) *testEngine {
	t.Helper()

	mr, rdb := newTestRedis(t)
	accounts := newMemAccounts(t)

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountProvider(accounts).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	return &testEngine{Engine: engine, mr: mr, rdb: rdb, accounts: accounts}
}

func (te *testEngine) login(t *testing.T, email string) TokenPair {
	t.Helper()
	pair, err := te.Login(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("login(%s) failed: %v", email, err)
	}
	return pair
}

func (te *testEngine) slot(t *testing.T, accountID string) (string, bool) {
	t.Helper()
	v, err := te.mr.Get("refresh_token:" + accountID)
	if errors.Is(err, miniredis.ErrKeyNotFound) {
		return "", false
	}
	if err != nil {
		t.Fatalf("miniredis get failed: %v", err)
	}
	return v, true
}

func expectKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if got := KindOf(err); got != want {
		t.Fatalf("expected kind %v, got %v (err=%v)", want, got, err)
	}
}

// waitFor polls cond for up to a second.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
