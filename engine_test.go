package authcore_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rateye/authcore"
	"github.com/rateye/authcore/jwt"
	"github.com/rateye/authcore/userstore"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testConfig() authcore.Config {
	return authcore.Config{
		JWT: authcore.JWTConfig{
			Secret:     testSecret,
			AccessTTL:  30 * time.Minute,
			RefreshTTL: time.Hour,
			Issuer:     "authcore-test",
		},
		Session: authcore.SessionConfig{
			RefreshPrefix:   "RT:",
			BlacklistPrefix: "BL:",
		},
		Password: authcore.PasswordConfig{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   16,
		},
		Account: authcore.AccountConfig{
			DefaultRole: authcore.RoleUser,
		},
		Metrics: authcore.MetricsConfig{
			Enabled: true,
		},
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestEngine(t *testing.T, cfg authcore.Config) (*authcore.Engine, *miniredis.Miniredis, *userstore.Memory) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	store := userstore.NewMemory()

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mr, store
}

func registerAlice(t *testing.T, engine *authcore.Engine) {
	t.Helper()

	if _, err := engine.Register(context.Background(), "alice01", "alice@example.com", "Abcd1234!"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestRegisterCreatesIdentity(t *testing.T) {
	engine, _, store := newTestEngine(t, testConfig())

	info, err := engine.Register(context.Background(), "alice01", "alice@example.com", "Abcd1234!")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if info.ID != "alice01" || info.Email != "alice@example.com" {
		t.Fatalf("unexpected projection %+v", info)
	}

	user, err := store.FindByID(context.Background(), "alice01")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "Abcd1234!" {
		t.Fatal("password must be stored hashed")
	}
	if len(user.Roles) != 1 || user.Roles[0] != "ROLE_USER" {
		t.Fatalf("expected default role, got %v", user.Roles)
	}
}

func TestRegisterValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	cases := []struct {
		name     string
		id       string
		email    string
		password string
		want     error
	}{
		{"id too short", "abc", "a@example.com", "Abcd1234!", authcore.ErrInvalidUserID},
		{"id too long", "abcdefghijklm", "a@example.com", "Abcd1234!", authcore.ErrInvalidUserID},
		{"id starts with digit", "1alice", "a@example.com", "Abcd1234!", authcore.ErrInvalidUserID},
		{"id with dash", "alice-01", "a@example.com", "Abcd1234!", authcore.ErrInvalidUserID},
		{"email without at", "alice01", "not-an-email", "Abcd1234!", authcore.ErrInvalidEmail},
		{"email without tld", "alice01", "a@example", "Abcd1234!", authcore.ErrInvalidEmail},
		{"password too short", "alice01", "a@example.com", "Ab1!", authcore.ErrPasswordPolicy},
		{"password too long", "alice01", "a@example.com", "Abcd1234!Abcd1234!", authcore.ErrPasswordPolicy},
		{"password without digit", "alice01", "a@example.com", "Abcdefgh!", authcore.ErrPasswordPolicy},
		{"password without special", "alice01", "a@example.com", "Abcd1234x", authcore.ErrPasswordPolicy},
		{"password without letter", "alice01", "a@example.com", "12345678!", authcore.ErrPasswordPolicy},
		{"password with stray char", "alice01", "a@example.com", "Abcd 1234!", authcore.ErrPasswordPolicy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Register(ctx, tc.id, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	if _, err := engine.Register(ctx, "alice01", "other@example.com", "Abcd1234!"); !errors.Is(err, authcore.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity for id reuse, got %v", err)
	}
	if _, err := engine.Register(ctx, "bob2345", "alice@example.com", "Abcd1234!"); !errors.Is(err, authcore.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity for email reuse, got %v", err)
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.GrantType != "Bearer" {
		t.Fatalf("expected Bearer grant type, got %q", pair.GrantType)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	stored, err := mr.Get("RT:alice01")
	if err != nil {
		t.Fatalf("expected session entry: %v", err)
	}
	if stored != pair.RefreshToken {
		t.Fatal("stored refresh token must match the issued one")
	}
	if ttl := mr.TTL("RT:alice01"); ttl != time.Hour {
		t.Fatalf("expected session TTL to match refresh lifetime, got %v", ttl)
	}
}

func TestLoginOverwritesPriorSession(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	first, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	stored, err := mr.Get("RT:alice01")
	if err != nil {
		t.Fatalf("expected session entry: %v", err)
	}
	if stored != second.RefreshToken {
		t.Fatal("second login must own the session")
	}

	// The first session's refresh token is now a stale value.
	if _, err := engine.Reissue(ctx, first.AccessToken, first.RefreshToken); !errors.Is(err, authcore.ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch for the displaced session, got %v", err)
	}
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	_, unknownErr := engine.Login(ctx, "nobody99", "Abcd1234!")
	_, wrongErr := engine.Login(ctx, "alice01", "Wrong1234!")

	if !errors.Is(unknownErr, authcore.ErrInvalidCredentials) {
		t.Fatalf("unknown id: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, authcore.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("unknown id and wrong password must be indistinguishable")
	}
}

func TestLoginThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.Security = authcore.SecurityConfig{
		EnableLoginThrottle: true,
		MaxLoginAttempts:    2,
		LoginCooldown:       time.Minute,
	}
	engine, mr, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	registerAlice(t, engine)

	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, "alice01", "Wrong1234!"); !errors.Is(err, authcore.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	// Budget spent; even the correct password is refused.
	if _, err := engine.Login(ctx, "alice01", "Abcd1234!"); !errors.Is(err, authcore.ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := engine.Login(ctx, "alice01", "Abcd1234!"); err != nil {
		t.Fatalf("expected login to succeed after cooldown, got %v", err)
	}
}

func TestLoginResetsThrottleOnSuccess(t *testing.T) {
	cfg := testConfig()
	cfg.Security = authcore.SecurityConfig{
		EnableLoginThrottle: true,
		MaxLoginAttempts:    2,
		LoginCooldown:       time.Minute,
	}
	engine, _, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	registerAlice(t, engine)

	if _, err := engine.Login(ctx, "alice01", "Wrong1234!"); !errors.Is(err, authcore.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice01", "Abcd1234!"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// The successful login cleared the counter, so the full budget is back.
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, "alice01", "Wrong1234!"); !errors.Is(err, authcore.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
}

func TestReissueRotatesSession(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := engine.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Reissue failed: %v", err)
	}
	if rotated.AccessToken == pair.AccessToken || rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("reissue must mint fresh tokens")
	}
	if rotated.GrantType != "Bearer" {
		t.Fatalf("expected Bearer grant type, got %q", rotated.GrantType)
	}

	stored, err := mr.Get("RT:alice01")
	if err != nil {
		t.Fatalf("expected session entry: %v", err)
	}
	if stored != rotated.RefreshToken {
		t.Fatal("rotation must replace the stored refresh token")
	}

	// The pre-rotation refresh token is dead.
	if _, err := engine.Reissue(ctx, pair.AccessToken, pair.RefreshToken); !errors.Is(err, authcore.ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch for the rotated-out token, got %v", err)
	}
}

func TestReissueAcceptsExpiredAccessToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTTL = 50 * time.Millisecond
	engine, _, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// The expired access token still identifies the subject for reissue.
	rotated, err := engine.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Reissue with expired access token failed: %v", err)
	}

	result, err := engine.Authenticate(ctx, rotated.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result.Subject != "alice01" {
		t.Fatalf("unexpected subject %q", result.Subject)
	}
}

func TestReissueRejectsBadTokens(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Reissue(ctx, pair.AccessToken, "garbage"); !errors.Is(err, authcore.ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}

	if _, err := engine.Reissue(ctx, "garbage", pair.RefreshToken); !errors.Is(err, authcore.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}

	// An access token signed with a different secret must be rejected even
	// though it is structurally sound.
	forger, err := jwt.NewManager(jwt.Config{
		Secret:     []byte("ffffffffffffffffffffffffffffffff"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "authcore-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	forged, err := forger.IssuePair("alice01", nil)
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if _, err := engine.Reissue(ctx, forged.AccessToken, pair.RefreshToken); !errors.Is(err, authcore.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestReissueWithoutSession(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.Logout(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Reissue(ctx, pair.AccessToken, pair.RefreshToken); !errors.Is(err, authcore.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession after logout, got %v", err)
	}
}

func TestReissueAfterSessionExpiry(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The session entry expires store-side with the refresh lifetime.
	mr.FastForward(2 * time.Hour)

	if _, err := engine.Reissue(ctx, pair.AccessToken, pair.RefreshToken); !errors.Is(err, authcore.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession after session expiry, got %v", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Authenticate before logout failed: %v", err)
	}

	if err := engine.Logout(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if mr.Exists("RT:alice01") {
		t.Fatal("logout must delete the session entry")
	}
	if _, err := engine.Authenticate(ctx, pair.AccessToken); !errors.Is(err, authcore.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}

	// Logout is idempotent; a replayed token yields the same outcome.
	if err := engine.Logout(ctx, pair.AccessToken); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
}

func TestLogoutRejectsInvalidToken(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())

	if err := engine.Logout(context.Background(), "garbage"); !errors.Is(err, authcore.ErrAccessInvalid) {
		t.Fatalf("expected ErrAccessInvalid, got %v", err)
	}
}

func TestLogoutSkipsBlacklistForSpentToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTTL = 50 * time.Millisecond
	cfg.JWT.Leeway = 2 * time.Minute
	engine, mr, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Past expiry but inside leeway: the token still parses, yet it has no
	// lifetime left to blacklist.
	time.Sleep(100 * time.Millisecond)

	if err := engine.Logout(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "BL:") {
			t.Fatalf("no blacklist entry expected for a spent token, found %q", key)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	result, err := engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result.Subject != "alice01" {
		t.Fatalf("unexpected subject %q", result.Subject)
	}
	if len(result.Roles) != 1 || result.Roles[0] != "ROLE_USER" {
		t.Fatalf("unexpected roles %v", result.Roles)
	}
	if len(result.Authorities) != 2 {
		t.Fatalf("expected user authorities, got %v", result.Authorities)
	}
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTTL = 50 * time.Millisecond
	engine, _, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := engine.Authenticate(ctx, pair.AccessToken); !errors.Is(err, authcore.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestConcurrentReissue(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	registerAlice(t, engine)

	pair, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan *authcore.TokenPair, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			rotated, err := engine.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
			if err == nil {
				results <- rotated
				return
			}
			if !errors.Is(err, authcore.ErrRefreshMismatch) && !errors.Is(err, authcore.ErrNoActiveSession) {
				t.Errorf("unexpected reissue error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(results)

	winners := make(map[string]bool)
	for rotated := range results {
		winners[rotated.RefreshToken] = true
	}
	if len(winners) == 0 {
		t.Fatal("expected at least one successful reissue")
	}

	// Whatever raced, the surviving session belongs to one of the winners.
	stored, err := mr.Get("RT:alice01")
	if err != nil {
		t.Fatalf("expected session entry: %v", err)
	}
	if !winners[stored] {
		t.Fatal("stored refresh token must come from a successful reissue")
	}
}

func TestFullSessionLifecycle(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	if _, err := engine.Register(ctx, "alice01", "alice@example.com", "Abcd1234!"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	first, err := engine.Login(ctx, "alice01", "Abcd1234!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	second, err := engine.Reissue(ctx, first.AccessToken, first.RefreshToken)
	if err != nil {
		t.Fatalf("Reissue failed: %v", err)
	}

	if err := engine.Logout(ctx, second.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Reissue(ctx, second.AccessToken, second.RefreshToken); !errors.Is(err, authcore.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession after logout, got %v", err)
	}
	if _, err := engine.Authenticate(ctx, second.AccessToken); !errors.Is(err, authcore.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}
