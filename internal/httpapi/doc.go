// Package httpapi mounts the session endpoints on a gin router.
//
// Every authentication failure returns 401 with the same body so callers
// cannot tell an unknown email from a wrong password or a revoked token from
// a forged one. Backend outages return 503.
package httpapi
