package userstore

import (
	"context"
	"strings"
	"sync"

	"github.com/rateye/authcore"
)

// Memory is a mutex-guarded in-memory [authcore.CredentialStore]. It is
// intended for tests and examples; identities do not survive the process.
type Memory struct {
	mu     sync.RWMutex
	byID   map[string]authcore.UserIdentity
	emails map[string]string
}

// NewMemory returns an empty in-memory credential store.
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[string]authcore.UserIdentity),
		emails: make(map[string]string),
	}
}

func (m *Memory) ExistsByID(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byID[id]
	return ok, nil
}

func (m *Memory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.emails[normalizeEmail(email)]
	return ok, nil
}

func (m *Memory) FindByID(ctx context.Context, id string) (*authcore.UserIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}

	out := user
	out.Roles = append([]string(nil), user.Roles...)
	return &out, nil
}

// Save persists a new identity. The duplicate guard here is a last line of
// defense; the engine performs its own existence checks before calling Save.
func (m *Memory) Save(ctx context.Context, user authcore.UserIdentity) (*authcore.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, ok := m.byID[user.ID]; ok {
		return nil, authcore.ErrDuplicateIdentity
	}
	if _, ok := m.emails[email]; ok {
		return nil, authcore.ErrDuplicateIdentity
	}

	stored := user
	stored.Roles = append([]string(nil), user.Roles...)
	m.byID[user.ID] = stored
	m.emails[email] = user.ID

	out := stored
	out.Roles = append([]string(nil), stored.Roles...)
	return &out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
