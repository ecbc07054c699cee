package sessionauth

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindInvalidCredentials, ErrInvalidCredentials},
		{KindInvalidToken, ErrInvalidToken},
		{KindInfrastructure, ErrInfrastructure},
		{KindRateLimited, ErrRateLimited},
		{KindNotReady, ErrEngineNotReady},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := newError(tc.kind)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected errors.Is to match %v", tc.sentinel)
			}
			if err.Error() != tc.sentinel.Error() {
				t.Fatalf("message mismatch: %q vs %q", err, tc.sentinel)
			}
			wrapped := fmt.Errorf("handler: %w", err)
			if KindOf(wrapped) != tc.kind {
				t.Fatalf("KindOf through wrap: expected %v, got %v", tc.kind, KindOf(wrapped))
			}
			for _, other := range tests {
				if other.kind != tc.kind && errors.Is(err, other.sentinel) {
					t.Fatalf("%v must not match %v", tc.kind, other.sentinel)
				}
			}
		})
	}
}

func TestKindOfForeignErrors(t *testing.T) {
	if KindOf(nil) != KindNone {
		t.Fatal("nil must be KindNone")
	}
	if KindOf(errors.New("boom")) != KindNone {
		t.Fatal("foreign errors must be KindNone")
	}
}
