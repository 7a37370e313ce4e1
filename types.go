package authcore

import (
	"context"
	"io"

	internalaudit "github.com/rateye/authcore/internal/audit"
)

// Role is a named role attached to an identity. Role strings are stored with
// identities and embedded in access-token claims.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "ROLE_USER"
	// RoleAdmin marks administrative identities.
	RoleAdmin Role = "ROLE_ADMIN"
)

// Authority is one capability derived from a role. Authorities are a fixed
// enumerated set; roles map onto them statically, with no runtime reflection.
type Authority uint8

const (
	// AuthorityReadSelf allows reading the subject's own identity projection.
	AuthorityReadSelf Authority = iota
	// AuthorityWriteSelf allows mutating the subject's own credentials.
	AuthorityWriteSelf
	// AuthorityManageUsers allows administrative access to other identities.
	AuthorityManageUsers
)

// String returns the stable wire name of the authority.
func (a Authority) String() string {
	switch a {
	case AuthorityReadSelf:
		return "read:self"
	case AuthorityWriteSelf:
		return "write:self"
	case AuthorityManageUsers:
		return "manage:users"
	default:
		return "unknown"
	}
}

// Authorities returns the capability set granted by the role. Unknown roles
// grant nothing.
func (r Role) Authorities() []Authority {
	switch r {
	case RoleUser:
		return []Authority{AuthorityReadSelf, AuthorityWriteSelf}
	case RoleAdmin:
		return []Authority{AuthorityReadSelf, AuthorityWriteSelf, AuthorityManageUsers}
	default:
		return nil
	}
}

// Known reports whether the role is part of the enumerated role set.
func (r Role) Known() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// UserIdentity is the persisted identity record owned by the credential
// store. ID and Email are immutable after registration; PasswordHash never
// leaves the store/engine boundary.
type UserIdentity struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string
}

// UserInfo is the non-sensitive projection returned by Register. It
// deliberately omits the password hash.
type UserInfo struct {
	ID    string
	Email string
}

// grantTypeBearer is the grant type stamped on every issued pair.
const grantTypeBearer = "Bearer"

// TokenPair is returned by Login and Reissue. RefreshExpiresAt is the refresh
// token expiry in Unix milliseconds.
type TokenPair struct {
	GrantType        string
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt int64
}

// AuthResult is returned by [Engine.Authenticate]: the verified subject, its
// role strings as embedded in the token, and the derived capability set.
type AuthResult struct {
	Subject     string
	Roles       []string
	Authorities []Authority
}

// CredentialStore is the engine's outbound interface to identity
// persistence. FindByID returns [ErrUserNotFound] for unknown ids; Save
// returns [ErrDuplicateIdentity] when a concurrent writer won an id/email
// uniqueness race.
type CredentialStore interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByID(ctx context.Context, id string) (*UserIdentity, error)
	Save(ctx context.Context, user UserIdentity) (*UserIdentity, error)
}

// PasswordHasher is the engine's outbound interface to one-way credential
// hashing. Verify returns (false, nil) for a clean mismatch and reserves the
// error for undecodable hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
