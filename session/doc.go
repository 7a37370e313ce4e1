// Package session provides the Redis-backed session state for the
// authentication engine: one live refresh token per subject, plus a
// time-bounded revocation list for logged-out access tokens.
//
// # Key layout
//
// Refresh entries live at "<refresh prefix><subject>" with a TTL equal to the
// refresh token's remaining lifetime. Writing an entry overwrites any prior
// one, which is what enforces the single-active-session-per-subject policy.
// Blacklist entries live at "<blacklist prefix><sha256(token)>" with a TTL
// equal to the access token's remaining lifetime at revocation time; after
// that the token would be naturally expired, so the entry self-removes.
//
// # Architecture boundaries
//
// This package owns Redis key naming, TTL handling, and transport error
// wrapping. It does NOT parse tokens or decide authentication outcomes;
// those belong to the engine.
package session
