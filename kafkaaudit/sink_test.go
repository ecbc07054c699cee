package kafkaaudit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/MrEthical07/sessionauth"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestEmitKeysByAccount(t *testing.T) {
	w := &fakeWriter{}
	sink := New(w)

	now := time.Now().UTC().Truncate(time.Second)
	sink.Emit(context.Background(), sessionauth.AuditEvent{
		Timestamp: now,
		EventType: "login_success",
		AccountID: "acct-1",
		Success:   true,
	})

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "acct-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "login_success" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}

	var decoded sessionauth.AuditEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.EventType != "login_success" || !decoded.Timestamp.Equal(now) {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestEmitSwallowsWriterErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := New(w, WithWriteTimeout(time.Millisecond))

	sink.Emit(context.Background(), sessionauth.AuditEvent{EventType: "logout"})

	if err := sink.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer closed, err=%v", err)
	}
}

func TestSinkSatisfiesAuditSink(t *testing.T) {
	var _ sessionauth.AuditSink = New(&fakeWriter{})
}
