// Package sessionauth is the session-authentication core: it verifies
// credentials, issues short-lived JWT access tokens and long-lived JWT refresh
// tokens, and keeps one revocable, rotating refresh fingerprint per account in
// Redis.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// sessionauth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Flow orchestration, login throttling and audit dispatch
// live under internal/. Accounts are read through [AccountProvider]; the
// entity store itself is not owned here.
//
// # Error contract
//
// Every error returned by an Engine operation is an [*Error]. Use [KindOf] or
// errors.Is with the exported sentinels to branch. Credential and token
// failures never reveal which check failed; dependency outages are always
// [KindInfrastructure].
//
// # What this package must NOT do
//
//   - Persist access tokens or raw refresh tokens.
//   - Expose Redis clients or internal stores in its public API.
//   - Import any sub-package that re-imports sessionauth.
//
// # Performance contract
//
// ValidateAccess is the hot path and makes no Redis round-trip. Login and
// Refresh make a bounded number of Redis calls (throttle, slot read, slot
// write).
package sessionauth
