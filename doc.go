// Package authcore provides a Redis-backed authentication and session
// lifecycle engine: credential verification, signed JWT access/refresh token
// issuance, refresh-token rotation, and logout with a time-bounded access
// token blacklist.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The engine itself holds no mutable session state; the
// single live refresh token per subject and the revocation list live in
// Redis, so engine instances are horizontally replicable.
//
// # Session policy
//
// Each subject has at most one live session. Logging in (or refreshing)
// overwrites the subject's refresh entry, silently invalidating tokens issued
// to other devices. Refreshing rotates the pair: the previous refresh token
// keeps verifying cryptographically but no longer matches the stored entry,
// so replaying it fails.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the [CredentialStore] and [PasswordHasher] integration interfaces, and
// value types. Token signing lives in jwt/, Redis state in session/, the
// default hasher in password/, and coordination helpers under internal/.
package authcore
