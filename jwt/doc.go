// Package jwt mints and verifies the signed access and refresh tokens handed
// to clients.
//
// Access and refresh tokens are HS256 JWTs signed with independent secrets, so
// a leaked access secret cannot forge refresh tokens and vice versa. Tokens
// carry only the subject, a token kind, a random jti and standard expiry
// metadata.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Decide whether a verified refresh token is still live; that is the
//     revocation store's job.
package jwt
