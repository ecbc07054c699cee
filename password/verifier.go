package password

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a plaintext password against a stored hash of any
// supported format. It is stateless apart from its dummy hash and safe for
// concurrent use.
type Verifier struct {
	dummy string
}

// NewVerifier builds a Verifier whose dummy hash is produced with cfg, so an
// unknown-email login costs the same as a real one.
func NewVerifier(cfg Config) (*Verifier, error) {
	hasher, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash("dummy-password-never-matches")
	if err != nil {
		return nil, err
	}
	return &Verifier{dummy: dummy}, nil
}

// Verify reports whether password matches storedHash. Any malformed or
// unsupported hash yields false.
func (v *Verifier) Verify(password, storedHash string) bool {
	switch {
	case strings.HasPrefix(storedHash, argon2Prefix):
		ok, err := verifyArgon2(password, storedHash)
		return err == nil && ok
	case isBcrypt(storedHash):
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
	default:
		return false
	}
}

// DummyHash returns a valid hash that no real password is expected to match.
func (v *Verifier) DummyHash() string {
	return v.dummy
}
