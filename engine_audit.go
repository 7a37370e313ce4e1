package authcore

import (
	"context"
	"time"

	internalaudit "github.com/rateye/authcore/internal/audit"
)

const (
	auditEventRegisterSuccess  = "register_success"
	auditEventRegisterFailure  = "register_failure"
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventReissueSuccess   = "reissue_success"
	auditEventReissueFailure   = "reissue_failure"
	auditEventLogoutSuccess    = "logout_success"
	auditEventLogoutFailure    = "logout_failure"
	auditEventRevokedTokenUse  = "revoked_token_use"
)

// emitAudit forwards one event to the dispatcher. metadata is a constructor
// rather than a map so the allocation is skipped entirely when auditing is
// disabled.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	failure error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Subject:   subject,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
