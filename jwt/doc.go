// Package jwt is the token codec for the authentication engine. It issues and
// verifies HS256-signed access/refresh token pairs with strict validation
// semantics, and classifies every parse failure so the engine can distinguish
// structural corruption, signature mismatch, and plain expiry.
//
// # Expired-but-readable access tokens
//
// ParseAccess returns the decoded claims together with [ErrTokenExpired] when
// the only defect is expiry. The refresh protocol identifies the refreshing
// subject by reading the subject claim out of the old, already-expired access
// token, so claim extraction must survive expiry. Signature and structural
// checks are never relaxed.
//
// # Architecture boundaries
//
// This package owns signing, parsing, and lifetime arithmetic. It does NOT
// talk to Redis, evaluate roles, or enforce session policy; those belong to
// the engine.
package jwt
