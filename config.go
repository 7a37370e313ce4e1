package authcore

import (
	"errors"
	"time"
)

// Config is the engine configuration. Zero-value fields fall back to the
// defaults from defaultConfig; Validate runs at Build time and treats missing
// signing material or lifetimes as fatal.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Account  AccountConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// JWTConfig carries the token codec parameters. Secret, AccessTTL, and
// RefreshTTL are required at process start.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// SessionConfig sets the Redis key namespaces for refresh entries and the
// access-token blacklist.
type SessionConfig struct {
	RefreshPrefix   string
	BlacklistPrefix string
}

// PasswordConfig holds the argon2id cost parameters for the default hasher.
// Ignored when a custom [PasswordHasher] is injected.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AccountConfig controls registration behavior.
type AccountConfig struct {
	DefaultRole Role
}

// SecurityConfig controls the Redis-backed login attempt limiter.
type SecurityConfig struct {
	EnableLoginThrottle bool
	EnableIPThrottle    bool
	MaxLoginAttempts    int
	LoginCooldown       time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			RefreshPrefix:   "RT:",
			BlacklistPrefix: "BL:",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Security: SecurityConfig{
			EnableLoginThrottle: false,
			EnableIPThrottle:    false,
			MaxLoginAttempts:    10,
			LoginCooldown:       15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration surface required at process start.
// Missing signing secret or lifetimes are configuration errors, not runtime
// conditions; the engine refuses to build.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT signing secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT signing secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("access token lifetime is required")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("refresh token lifetime is required")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("refresh token lifetime must not be shorter than access token lifetime")
	}
	if c.Session.RefreshPrefix == "" {
		return errors.New("session refresh prefix must not be empty")
	}
	if c.Session.BlacklistPrefix == "" {
		return errors.New("session blacklist prefix must not be empty")
	}
	if c.Session.RefreshPrefix == c.Session.BlacklistPrefix {
		return errors.New("refresh and blacklist prefixes must differ")
	}
	if !c.Account.DefaultRole.Known() {
		return errors.New("account default role is not a known role")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("login throttle requires a positive attempt budget")
		}
		if c.Security.LoginCooldown <= 0 {
			return errors.New("login throttle requires a positive cooldown")
		}
	}
	return nil
}
