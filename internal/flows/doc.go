// Package flows contains the orchestration for every Engine session
// operation.
//
// Each flow (RunLogin, RunRefresh, RunLogout, RunValidate) takes a typed
// dependency struct and returns a result carrying either tokens or a
// classified failure. The root package maps failures to public error kinds,
// audit events and metrics; flows never decide what a caller is told.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (import cycle).
//   - Talk to Redis or the account store directly; all I/O goes through deps.
package flows
