package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenMalformed reports structural corruption: the token is not a
// well-formed compact JWT or its claims cannot be decoded.
var ErrTokenMalformed = errors.New("malformed token")

// ErrTokenExpired reports a token that verified correctly but whose expiry
// has passed. ParseAccess still returns the decoded claims alongside it.
var ErrTokenExpired = errors.New("token expired")

// ErrSignatureInvalid reports a signature mismatch against the configured
// signing secret.
var ErrSignatureInvalid = errors.New("token signature invalid")

// Config holds the codec parameters. Secret, AccessTTL, and RefreshTTL are
// required; the engine refuses to start without them.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// AccessClaims is the claim set embedded in access tokens: subject, roles,
// and the registered issued-at/expiry claims.
type AccessClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// Pair is one issued access/refresh token pair. RefreshExpiresAt is the
// refresh token expiry in Unix milliseconds; the session store uses it to
// derive the entry TTL.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt int64
}

// Manager signs and verifies token pairs with a single process-wide HS256
// secret. It is immutable after construction and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready codec.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// IssuePair signs a new access/refresh pair for subject. The access token
// embeds subject and roles; the refresh token carries only a unique jti and
// its own longer expiry horizon, so it stays unlinked from roles.
func (m *Manager) IssuePair(subject string, roles []string) (*Pair, error) {
	now := time.Now()
	refreshExpiry := now.Add(m.config.RefreshTTL)

	access := AccessClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			Issuer:    m.config.Issuer,
		},
	}

	refresh := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
			Issuer:    m.config.Issuer,
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(m.config.Secret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(m.config.Secret)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry.UnixMilli(),
	}, nil
}

// ParseAccess decodes and verifies an access token, classifying failures as
// [ErrTokenMalformed], [ErrSignatureInvalid], or [ErrTokenExpired]. On plain
// expiry the decoded claims are returned together with the error so callers
// can still read the subject.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := m.parser().ParseWithClaims(tokenStr, claims, m.keyFunc)
	if err == nil {
		return claims, nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		// Signature already verified at this point; expose the claims.
		return claims, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSignatureInvalid
	default:
		return nil, ErrTokenMalformed
	}
}

// Valid reports whether tokenStr carries a correct signature and has not
// expired. It accepts both access and refresh tokens.
func (m *Manager) Valid(tokenStr string) bool {
	_, err := m.parser().Parse(tokenStr, m.keyFunc)
	return err == nil
}

// RemainingLifetime returns the time left until the token's expiry, clamped
// at zero. Unverifiable tokens report zero remaining lifetime.
func (m *Manager) RemainingLifetime(tokenStr string) time.Duration {
	claims := &jwt.RegisteredClaims{}
	_, err := m.parser().ParseWithClaims(tokenStr, claims, m.keyFunc)
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Manager) parser() *jwt.Parser {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	return jwt.NewParser(options...)
}

func (m *Manager) keyFunc(*jwt.Token) (interface{}, error) {
	return m.config.Secret, nil
}
