package authcore

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// User ids are 6 to 12 characters, start with a letter, and allow
	// letters, digits, and underscore after that.
	userIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{5,11}$`)

	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,6}$`)
)

// passwordSpecials is the accepted special-character set for passwords.
const passwordSpecials = "~!@#$%^&*()+|="

// validPassword enforces the password policy: 8 to 16 characters, at least
// one letter, one digit, and one special from passwordSpecials, and nothing
// outside those three classes.
func validPassword(s string) bool {
	if len(s) < 8 || len(s) > 16 {
		return false
	}
	var letter, digit, special bool
	for _, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			letter = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(passwordSpecials, c) >= 0:
			special = true
		default:
			return false
		}
	}
	return letter && digit && special
}

// Register creates a new identity. The id, email, and password are validated
// against the account policy before any store access; uniqueness of both id
// and email is then checked, the password is hashed, and the identity is
// persisted with the configured default role.
//
// The pre-save existence checks make the common duplicate case cheap; the
// store's own uniqueness guarantee closes the race between concurrent
// registrations, surfacing as [ErrDuplicateIdentity] from Save.
func (e *Engine) Register(ctx context.Context, id, email, pass string) (*UserInfo, error) {
	if e == nil || e.credentials == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	if !userIDPattern.MatchString(id) {
		e.emitAudit(ctx, auditEventRegisterFailure, false, id, ErrInvalidUserID, nil)
		return nil, ErrInvalidUserID
	}
	if !emailPattern.MatchString(email) {
		e.emitAudit(ctx, auditEventRegisterFailure, false, id, ErrInvalidEmail, nil)
		return nil, ErrInvalidEmail
	}
	if !validPassword(pass) {
		e.emitAudit(ctx, auditEventRegisterFailure, false, id, ErrPasswordPolicy, nil)
		return nil, ErrPasswordPolicy
	}

	taken, err := e.credentials.ExistsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, e.failRegisterDuplicate(ctx, id, "id_taken")
	}

	taken, err = e.credentials.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, e.failRegisterDuplicate(ctx, id, "email_taken")
	}

	hash, err := e.passwordHash.Hash(pass)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, id, err, nil)
		return nil, err
	}

	saved, err := e.credentials.Save(ctx, UserIdentity{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{string(e.config.Account.DefaultRole)},
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, e.failRegisterDuplicate(ctx, id, "save_conflict")
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, id, err, nil)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, saved.ID, nil, nil)

	return &UserInfo{ID: saved.ID, Email: saved.Email}, nil
}

func (e *Engine) failRegisterDuplicate(ctx context.Context, id, reason string) error {
	e.metricInc(MetricRegisterDuplicate)
	e.emitAudit(ctx, auditEventRegisterFailure, false, id, ErrDuplicateIdentity, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return ErrDuplicateIdentity
}
