package authcore

import (
	"context"
	"errors"

	internalaudit "github.com/rateye/authcore/internal/audit"
	"github.com/rateye/authcore/internal/rate"
	"github.com/rateye/authcore/jwt"
	"github.com/rateye/authcore/session"
)

// Engine is the authentication core. It owns the token codec, the
// Redis-backed session state, and the credential store, and exposes the four
// account operations: Register, Login, Reissue, and Logout, plus Authenticate
// for resource-side token checks.
//
// All methods are safe for concurrent use.
type Engine struct {
	config Config

	tokens   *jwt.Manager
	sessions *session.Store

	credentials  CredentialStore
	passwordHash PasswordHasher

	loginLimiter *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
}

// Close drains the audit dispatcher. Call it on shutdown so buffered events
// reach the sink.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e.metrics != nil {
		e.metrics.Inc(id)
	}
}

// Login verifies the id/password pair and, on success, issues a fresh token
// pair and stores the refresh token under the subject's session key. A prior
// session for the same subject is overwritten, so at most one refresh token
// per subject is ever valid.
//
// Unknown identifiers and wrong passwords both return [ErrInvalidCredentials]
// so callers cannot probe which accounts exist.
func (e *Engine) Login(ctx context.Context, id, password string) (*TokenPair, error) {
	if e == nil || e.credentials == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)

	if e.loginLimiter != nil {
		if err := e.loginLimiter.Check(ctx, id, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, id, ErrLoginRateLimited, nil)
			return nil, ErrLoginRateLimited
		}
	}

	user, err := e.credentials.FindByID(ctx, id)
	if err != nil {
		return nil, e.failLogin(ctx, id, "unknown_identifier")
	}

	ok, err := e.passwordHash.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, e.failLogin(ctx, id, "password_mismatch")
	}

	pair, err := e.issuePair(ctx, user.ID, user.Roles)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, id, err, nil)
		return nil, err
	}

	if e.loginLimiter != nil {
		// Best effort; a failed reset only means the counter expires on
		// its own cooldown.
		_ = e.loginLimiter.Reset(ctx, id, ip)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)

	return pair, nil
}

// failLogin records one failed attempt against the limiter and returns the
// error the caller should surface. When the attempt budget is exhausted the
// limiter error takes precedence over the credential error.
func (e *Engine) failLogin(ctx context.Context, id, reason string) error {
	if e.loginLimiter != nil {
		if err := e.loginLimiter.RecordFailure(ctx, id, clientIPFromContext(ctx)); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, id, ErrLoginRateLimited, nil)
			return ErrLoginRateLimited
		}
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, id, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})

	return ErrInvalidCredentials
}

// Reissue rotates a token pair. The presented access token may be expired but
// must be well formed and carry a valid signature; its subject selects the
// session. The presented refresh token must be valid and byte-identical to
// the stored one. On success a new pair is issued and the stored refresh
// token is replaced, which invalidates the presented one.
//
// Every failure path leaves session state untouched.
func (e *Engine) Reissue(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	if e == nil || e.tokens == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	if !e.tokens.Valid(refreshToken) {
		e.metricInc(MetricReissueFailure)
		e.emitAudit(ctx, auditEventReissueFailure, false, "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil && !errors.Is(err, ErrTokenExpired) {
		e.metricInc(MetricReissueFailure)
		e.emitAudit(ctx, auditEventReissueFailure, false, "", err, nil)
		return nil, err
	}
	if claims.Subject == "" {
		e.metricInc(MetricReissueFailure)
		e.emitAudit(ctx, auditEventReissueFailure, false, "", ErrTokenMalformed, nil)
		return nil, ErrTokenMalformed
	}

	subject := claims.Subject

	stored, err := e.sessions.GetRefreshToken(ctx, subject)
	if err != nil {
		if errors.Is(err, session.ErrRefreshNotFound) {
			e.metricInc(MetricReissueFailure)
			e.emitAudit(ctx, auditEventReissueFailure, false, subject, ErrNoActiveSession, nil)
			return nil, ErrNoActiveSession
		}
		e.metricInc(MetricReissueFailure)
		e.emitAudit(ctx, auditEventReissueFailure, false, subject, err, nil)
		return nil, err
	}

	if stored != refreshToken {
		e.metricInc(MetricReissueMismatch)
		e.emitAudit(ctx, auditEventReissueFailure, false, subject, ErrRefreshMismatch, func() map[string]string {
			return map[string]string{"reason": "refresh_mismatch"}
		})
		return nil, ErrRefreshMismatch
	}

	pair, err := e.issuePair(ctx, subject, claims.Roles)
	if err != nil {
		e.metricInc(MetricReissueFailure)
		e.emitAudit(ctx, auditEventReissueFailure, false, subject, err, nil)
		return nil, err
	}

	e.metricInc(MetricReissueSuccess)
	e.emitAudit(ctx, auditEventReissueSuccess, true, subject, nil, nil)

	return pair, nil
}

// Logout ends the subject's session: the stored refresh token is deleted and
// the presented access token is blacklisted for its remaining lifetime. An
// access token with no lifetime left is not blacklisted; expiry already
// rejects it everywhere.
//
// Logout with no active session still succeeds. The delete is idempotent and
// the blacklist entry is written either way, so a replayed token stays dead.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.tokens == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, "", err, nil)
		return ErrAccessInvalid
	}

	subject := claims.Subject

	if err := e.sessions.DeleteRefreshToken(ctx, subject); err != nil {
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, subject, err, nil)
		return err
	}

	if remaining := e.tokens.RemainingLifetime(accessToken); remaining > 0 {
		if err := e.sessions.BlacklistAccessToken(ctx, accessToken, remaining); err != nil {
			e.metricInc(MetricLogoutFailure)
			e.emitAudit(ctx, auditEventLogoutFailure, false, subject, err, nil)
			return err
		}
	}

	e.metricInc(MetricLogoutSuccess)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSuccess, true, subject, nil, nil)

	return nil
}

// Authenticate checks an access token the way a resource server would:
// signature, expiry, and the logout blacklist. On success it returns the
// subject with its roles and the derived authorities.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.tokens == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := e.sessions.IsBlacklisted(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		e.metricInc(MetricRevokedTokenHit)
		e.emitAudit(ctx, auditEventRevokedTokenUse, false, claims.Subject, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	}

	return &AuthResult{
		Subject:     claims.Subject,
		Roles:       claims.Roles,
		Authorities: authoritiesForRoles(claims.Roles),
	}, nil
}

// issuePair mints a token pair for the subject and stores the new refresh
// token under the session key, replacing whatever was there.
func (e *Engine) issuePair(ctx context.Context, subject string, roles []string) (*TokenPair, error) {
	pair, err := e.tokens.IssuePair(subject, roles)
	if err != nil {
		return nil, err
	}

	if err := e.sessions.PutRefreshToken(ctx, subject, pair.RefreshToken, e.tokens.RefreshTTL()); err != nil {
		return nil, err
	}

	return &TokenPair{
		GrantType:        grantTypeBearer,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// authoritiesForRoles expands roles into their authority sets, deduplicated,
// in role order.
func authoritiesForRoles(roles []string) []Authority {
	var out []Authority
	seen := make(map[Authority]struct{}, 4)
	for _, r := range roles {
		for _, a := range Role(r).Authorities() {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
