// Package rate implements the Redis fixed-window login throttle.
//
// # Window semantics
//
// INCR plus EXPIRE on the first hit of a window. Keys:
//   - rl:login:<email>    per-account failures
//   - rl:login:ip:<ip>    per-client failures (optional)
//
// Only failures are counted; a successful login resets the account counter.
package rate
