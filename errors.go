package authcore

import (
	"errors"

	"github.com/rateye/authcore/jwt"
)

var (
	// ErrDuplicateIdentity is returned by Register when the id or email is
	// already taken.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrInvalidCredentials is returned by Login for a wrong password and for
	// an unknown id alike, so callers cannot probe which ids exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by credential stores when no identity
	// matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUserID is returned by Register when the id violates the
	// 6–12 character, leading-letter format.
	ErrInvalidUserID = errors.New("invalid user id format")
	// ErrInvalidEmail is returned by Register for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrPasswordPolicy is returned by Register when the password misses the
	// length or character-class requirements.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrLoginRateLimited is returned by Login when the identifier or source
	// IP has exhausted its attempt budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshInvalid is returned by Reissue when the presented refresh
	// token fails signature or expiry checks.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrNoActiveSession is returned by Reissue when the subject has no live
	// session entry, typically after logout or refresh expiry.
	ErrNoActiveSession = errors.New("no active session")
	// ErrRefreshMismatch is returned by Reissue when the presented refresh
	// token differs from the stored one, i.e. a stale or replayed token from
	// before the last rotation.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrAccessInvalid is returned by Logout when the access token is not
	// currently valid.
	ErrAccessInvalid = errors.New("invalid access token")
	// ErrTokenRevoked is returned by Authenticate for a blacklisted access
	// token that would otherwise still verify.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrEngineNotReady is returned when a dependency was not wired through
	// the Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Token codec sentinels, re-exported so engine callers only need this
// package for error classification.
var (
	// ErrTokenMalformed reports structural corruption in a presented token.
	ErrTokenMalformed = jwt.ErrTokenMalformed
	// ErrTokenExpired reports an otherwise valid token past its expiry.
	ErrTokenExpired = jwt.ErrTokenExpired
	// ErrSignatureInvalid reports a token signature mismatch.
	ErrSignatureInvalid = jwt.ErrSignatureInvalid
)
