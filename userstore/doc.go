// Package userstore provides CredentialStore implementations for the
// authentication engine: an in-memory store for tests and examples, and a
// Postgres store built on pgx for production deployments.
package userstore
