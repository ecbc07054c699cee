// Package middleware adapts sessionauth.Engine to gin.
//
// [RequireAccess] reads the bearer access token, calls
// Engine.ValidateAccess and stores the result on the gin context. It never
// touches Redis: access tokens are verified by signature and expiry only.
//
// [RequestLogger] writes one zap access line per request.
//
// This package does not parse tokens or make decisions beyond pass or
// reject.
package middleware
