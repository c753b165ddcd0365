package session

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/example/storefront-state/internal/auth"
	"github.com/example/storefront-state/internal/infrastructure/storage"
)

// Identity is the cached snapshot of who the token was issued for.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Manager owns the client's session state: the bearer token, the cached
// identity, and the expired flag the watchdog sets. Token and identity are
// persisted through the store adapter so a restart resumes the session.
type Manager struct {
	mu        sync.Mutex
	store     storage.Adapter
	inspector *auth.Inspector

	token    string
	identity *Identity
	expired  bool
}

// NewManager hydrates the session from storage. Corrupt slot data degrades to
// an anonymous session with a logged warning, never an error.
func NewManager(ctx context.Context, store storage.Adapter, inspector *auth.Inspector) *Manager {
	m := &Manager{store: store, inspector: inspector}

	if data, ok, err := store.Read(ctx, storage.SlotAuthToken); err != nil {
		log.Printf("[Session] Failed to read token slot: %v", err)
	} else if ok {
		m.token = string(data)
	}

	if data, ok, err := store.Read(ctx, storage.SlotUserInfo); err != nil {
		log.Printf("[Session] Failed to read identity slot: %v", err)
	} else if ok {
		var identity Identity
		if err := json.Unmarshal(data, &identity); err != nil {
			log.Printf("[Session] Corrupt identity slot, starting anonymous: %v", err)
		} else {
			m.identity = &identity
		}
	}

	return m
}

// SetToken installs a new bearer token, caches the identity read from its
// claims, and persists both. It resets the expired flag: a fresh login starts
// a fresh session.
func (m *Manager) SetToken(ctx context.Context, token string) error {
	claims, err := m.inspector.Inspect(token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	m.expired = false
	m.identity = &Identity{ID: claims.SubjectID(), Email: claims.Email, Role: claims.Role}
	identity := *m.identity
	m.mu.Unlock()

	if err := m.store.Write(ctx, storage.SlotAuthToken, []byte(token)); err != nil {
		log.Printf("[Session] Failed to persist token: %v", err)
	}
	if data, err := json.Marshal(identity); err == nil {
		if err := m.store.Write(ctx, storage.SlotUserInfo, data); err != nil {
			log.Printf("[Session] Failed to persist identity: %v", err)
		}
	}
	return nil
}

// Token returns the current bearer token, or "" for an anonymous session.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Identity returns the cached identity, if any.
func (m *Manager) Identity() (Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return Identity{}, false
	}
	return *m.identity, true
}

// Valid reports whether a token is present and not yet expired.
func (m *Manager) Valid(now time.Time) bool {
	token := m.Token()
	return token != "" && m.inspector.Valid(token, now)
}

// MarkExpired records that the watchdog observed the token expire.
func (m *Manager) MarkExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired = true
}

// Expired reports whether the session expired and has not been acknowledged.
func (m *Manager) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}

// Logout discards the token and identity, in memory and in storage. The cart
// is not session data and is left to its owner.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.identity = nil
	m.expired = false
	m.mu.Unlock()

	if err := m.store.Clear(ctx, storage.SlotAuthToken); err != nil {
		log.Printf("[Session] Failed to clear token slot: %v", err)
	}
	if err := m.store.Clear(ctx, storage.SlotUserInfo); err != nil {
		log.Printf("[Session] Failed to clear identity slot: %v", err)
	}
}
