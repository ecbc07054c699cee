package sessionauth

import (
	"bytes"
	"errors"
	"time"

	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/revocation"
)

// Config is read once by Builder.Build and treated as immutable afterwards.
type Config struct {
	JWT        JWTConfig
	Revocation RevocationConfig
	RateLimit  RateLimitConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// JWTConfig holds token signing settings. Access and refresh secrets must
// differ.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// RevocationConfig controls the refresh fingerprint slot.
type RevocationConfig struct {
	// KeyPrefix defaults to "refresh_token:".
	KeyPrefix string
	// TTL of the slot. Zero means JWT.RefreshTTL.
	TTL time.Duration
	// Atomic rotates with a compare-and-swap so that only one of several
	// concurrent refreshes of the same token succeeds.
	Atomic bool
	// RevokeOnReuse deletes the slot when a stale refresh token is presented,
	// logging out the legitimate holder as well.
	RevokeOnReuse bool
}

// RateLimitConfig controls the login failure throttle.
type RateLimitConfig struct {
	Enabled          bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	EnableIPThrottle bool
}

// PasswordConfig holds argon2id parameters for the dummy hash and for hashes
// produced by tooling.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls async audit delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults without secrets. Callers must
// set JWT.AccessSecret and JWT.RefreshSecret.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			KeyPrefix: revocation.DefaultPrefix,
			Atomic:    true,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			MaxLoginAttempts: 5,
			LoginCooldown:    15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// revocationTTL resolves the effective slot lifetime.
func (c *Config) revocationTTL() time.Duration {
	if c.Revocation.TTL > 0 {
		return c.Revocation.TTL
	}
	return c.JWT.RefreshTTL
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

// Validate rejects configurations the Engine cannot run safely with.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret must be set")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret must be set")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Revocation
	if c.Revocation.TTL < 0 {
		return errors.New("Revocation TTL must be >= 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldown <= 0 {
			return errors.New("RateLimit LoginCooldown must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	if _, err := password.NewArgon2(c.passwordConfig()); err != nil {
		return err
	}

	return nil
}

// LintWarning is a non-fatal configuration concern.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the list of warnings produced by Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, len(r))
	for i, w := range r {
		codes[i] = w.Code
	}
	return codes
}

// Lint reports settings that are valid but unusual for production. It does
// not replace Validate.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if len(c.JWT.AccessSecret) < 32 || len(c.JWT.RefreshSecret) < 32 {
		add("secret_short", "JWT secrets shorter than 32 bytes")
	}
	if c.JWT.AccessTTL > 15*time.Minute {
		add("access_ttl_long", "access tokens cannot be revoked; keep AccessTTL short")
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", "RefreshTTL exceeds 30 days")
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", "JWT Leeway exceeds 1 minute")
	}
	if c.Revocation.TTL > 0 && c.Revocation.TTL < c.JWT.RefreshTTL {
		add("revocation_ttl_short", "refresh tokens expire from the store before their exp claim")
	}
	if !c.Revocation.Atomic {
		add("non_atomic_rotation", "concurrent refreshes of one token may all succeed")
	}
	if !c.RateLimit.Enabled {
		add("rate_limits_disabled", "login throttling is disabled")
	} else if !c.RateLimit.EnableIPThrottle {
		add("ip_throttle_disabled", "login throttling is per-email only")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "audit events are not recorded")
	}

	return ws
}
