// Package revocation stores the single live refresh-token fingerprint per
// account in Redis.
//
// # Key layout
//
//	<prefix><accountID> -> lowercase hex SHA-256 of the refresh token
//
// The default prefix is "refresh_token:". Entries carry a TTL equal to the
// refresh token lifetime, so Redis drops them without a sweeper.
//
// # Rotation
//
// [Store.Swap] replaces the fingerprint only if the stored value still equals
// the presented one. It runs as a single Lua script, which makes it the
// serialization point for concurrent refreshes of the same token.
//
// # What this package must NOT do
//
//   - Store raw refresh tokens. Only [Fingerprint] output is written.
//   - Verify token signatures or expiry.
package revocation
