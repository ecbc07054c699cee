package sessionauth

import "errors"

// ErrorKind discriminates the outcomes callers must tell apart.
type ErrorKind uint8

const (
	// KindNone is returned by KindOf for nil and foreign errors.
	KindNone ErrorKind = iota
	// KindInvalidCredentials covers unknown email, inactive account and wrong
	// password alike.
	KindInvalidCredentials
	// KindInvalidToken covers malformed, forged, expired, wrong-kind, revoked
	// and replayed tokens alike.
	KindInvalidToken
	// KindInfrastructure means a dependency (Redis, account store, signer)
	// failed. It is never reported as a credential or token problem.
	KindInfrastructure
	// KindRateLimited means the login throttle rejected the attempt.
	KindRateLimited
	// KindNotReady means the Engine was not built through Builder.
	KindNotReady
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidToken:
		return "invalid_token"
	case KindInfrastructure:
		return "infrastructure"
	case KindRateLimited:
		return "rate_limited"
	case KindNotReady:
		return "not_ready"
	default:
		return "none"
	}
}

var (
	// ErrInvalidCredentials matches every KindInvalidCredentials error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken matches every KindInvalidToken error.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInfrastructure matches every KindInfrastructure error.
	ErrInfrastructure = errors.New("authentication backend unavailable")
	// ErrRateLimited matches every KindRateLimited error.
	ErrRateLimited = errors.New("too many attempts")
	// ErrEngineNotReady matches every KindNotReady error.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrAccountNotFound is returned by an AccountProvider when no active
	// account matches. Providers may wrap it.
	ErrAccountNotFound = errors.New("account not found")
)

// Error is the only error type returned by Engine operations. Its message is
// the public message of its kind; the underlying cause is logged by the
// Engine and deliberately not exposed.
type Error struct {
	Kind ErrorKind
}

func newError(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

func (e *Error) Error() string {
	return e.sentinel().Error()
}

// Is lets errors.Is(err, ErrInvalidToken) and friends match by kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindInvalidToken:
		return ErrInvalidToken
	case KindRateLimited:
		return ErrRateLimited
	case KindNotReady:
		return ErrEngineNotReady
	default:
		return ErrInfrastructure
	}
}

// KindOf returns the kind of an Engine error, or KindNone.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
