// Package password checks presented passwords against stored hashes.
//
// # Supported formats
//
// Stored hashes are recognised by prefix:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//	$2a$ / $2b$ / $2y$ (bcrypt)
//
// Anything else fails verification. [Verifier.Verify] never returns an error;
// a malformed hash is simply a mismatch.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and hashes.
//   - Log plaintext passwords or hash parameters.
package password
