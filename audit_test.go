package sessionauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func auditConfig() Config {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false
	return cfg
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditLoginEvents(t *testing.T) {
	sink := NewChannelSink(16)
	te := newTestEngine(t, auditConfig(), sink)
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	if _, err := te.Login(ctx, "alice@example.com", testPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	ev := nextEvent(t, sink)
	if ev.EventType != "login_success" || !ev.Success || ev.AccountID != "acct-alice" || ev.IP != "203.0.113.7" {
		t.Fatalf("unexpected success event: %+v", ev)
	}

	_, _ = te.Login(ctx, "alice@example.com", "wrong-password")
	ev = nextEvent(t, sink)
	if ev.EventType != "login_failure" || ev.Success || ev.Error != "invalid_credentials" {
		t.Fatalf("unexpected failure event: %+v", ev)
	}
	if ev.Metadata["reason"] != "bad_password" {
		t.Fatalf("expected bad_password reason, got %+v", ev.Metadata)
	}

	_, _ = te.Login(ctx, "nobody@example.com", "whatever")
	ev = nextEvent(t, sink)
	if ev.EventType != "login_failure" || ev.AccountID != "" || ev.Error != "invalid_credentials" {
		t.Fatalf("unexpected unknown-account event: %+v", ev)
	}
}

func TestAuditRefreshReuseAndLogout(t *testing.T) {
	sink := NewChannelSink(16)
	te := newTestEngine(t, auditConfig(), sink)
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	_ = nextEvent(t, sink)

	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if ev := nextEvent(t, sink); ev.EventType != "refresh_success" || ev.AccountID != "acct-alice" {
		t.Fatalf("unexpected refresh event: %+v", ev)
	}

	_, _ = te.Refresh(ctx, pair.RefreshToken)
	if ev := nextEvent(t, sink); ev.EventType != "refresh_reuse_detected" || ev.Error != "refresh_reuse" {
		t.Fatalf("unexpected reuse event: %+v", ev)
	}

	if err := te.LogoutByAccessToken(ctx, next.AccessToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if ev := nextEvent(t, sink); ev.EventType != "logout" || !ev.Success {
		t.Fatalf("unexpected logout event: %+v", ev)
	}

	_, _ = te.Refresh(ctx, next.RefreshToken)
	if ev := nextEvent(t, sink); ev.EventType != "refresh_invalid" || ev.Error != "revoked" {
		t.Fatalf("unexpected revoked event: %+v", ev)
	}
}

func TestAuditNeverCarriesSecrets(t *testing.T) {
	var buf syncBuffer
	te := newTestEngine(t, auditConfig(), NewJSONWriterSink(&buf))
	ctx := context.Background()

	pair := te.login(t, "alice@example.com")
	next, _ := te.Refresh(ctx, pair.RefreshToken)
	_, _ = te.Refresh(ctx, pair.RefreshToken)
	_, _ = te.Login(ctx, "alice@example.com", "wrong-password")
	if err := te.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	out := buf.String()
	for _, secret := range []string{pair.AccessToken, pair.RefreshToken, next.AccessToken, next.RefreshToken, testPassword, "wrong-password"} {
		if secret != "" && strings.Contains(out, secret) {
			t.Fatalf("audit output leaked a secret: %q", secret)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 audit lines, got %d: %s", len(lines), out)
	}
	for _, line := range lines {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := NewChannelSink(4)
	cfg := testConfig()
	cfg.Audit.Enabled = false
	te := newTestEngine(t, cfg, sink)

	te.login(t, "alice@example.com")

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with audit disabled: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) { <-s.release }

func TestAuditDropIfFullDoesNotBlockLogin(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true
	cfg.RateLimit.Enabled = false
	te := newTestEngine(t, cfg, sink)
	t.Cleanup(func() { close(sink.release) })

	for i := 0; i < 5; i++ {
		_, _ = te.Login(context.Background(), "alice@example.com", "wrong-password")
	}
	waitFor(t, func() bool { return te.AuditDropped() > 0 })
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
