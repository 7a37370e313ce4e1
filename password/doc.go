// Package password implements the engine's default credential hasher using
// argon2id with PHC-formatted output. The engine consumes it through the
// PasswordHasher interface, so deployments with an existing hash corpus can
// swap in their own implementation without touching the engine.
package password
