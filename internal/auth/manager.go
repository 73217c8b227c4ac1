// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package auth

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ledgernotes/ledgernotes/internal/store"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "ledgernotes_session"

// purgeInterval bounds how often Attach sweeps expired sessions.
const purgeInterval = time.Minute

// Manager holds sessions in process memory, keyed by token hash.
// Sessions do not survive restarts. Expired sessions are purged lazily
// during Attach; there is no background janitor.
//
// Manager is safe for concurrent use. Mutation goes through Manager
// methods; returned sessions are defensive copies.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session // keyed by TokenHash
	ttl       time.Duration
	lastPurge time.Time
}

// NewManager creates a session manager with the given TTL.
// A non-positive TTL falls back to DefaultSessionTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		lastPurge: time.Now(),
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Attach resolves the request's session from its cookie, or creates a new
// empty session and issues a token on the response. It never fails: if token
// generation itself fails, the request proceeds with a detached anonymous
// session that cannot be persisted across requests.
func (m *Manager) Attach(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if session := m.lookup(cookie.Value); session != nil {
			return session
		}
	}

	token, hash, err := GenerateSessionToken()
	if err != nil {
		slog.ErrorContext(r.Context(), "session token generation failed", "error", err)
		now := time.Now()
		return &Session{ID: store.NewULID(), CreatedAt: now, ExpiresAt: now.Add(m.ttl), LastSeenAt: now}
	}

	now := time.Now()
	session := &Session{
		ID:         store.NewULID(),
		TokenHash:  hash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
		LastSeenAt: now,
	}

	m.mu.Lock()
	m.purgeLocked(now)
	m.sessions[hash] = session
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return copySession(session)
}

// lookup returns a copy of the live session matching the plaintext token,
// touching its LastSeenAt, or nil if absent, expired, or failing token
// verification.
func (m *Manager) lookup(token string) *Session {
	hash := HashSessionToken(token)

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[hash]
	if !ok {
		return nil
	}
	if match, err := VerifySessionToken(token, session.TokenHash); err != nil || !match {
		return nil
	}
	if session.IsExpired() {
		delete(m.sessions, hash)
		return nil
	}
	session.LastSeenAt = time.Now()
	return copySession(session)
}

// SetUser stores a snapshot of the authenticated user in the session.
// The passed handle is updated so the caller observes the new state.
func (m *Manager) SetUser(session *Session, user store.User) {
	snapshot := user.Clone()

	m.mu.Lock()
	if stored, ok := m.sessions[session.TokenHash]; ok {
		u := snapshot.Clone()
		stored.User = &u
	}
	m.mu.Unlock()

	session.User = &snapshot
}

// ClearUser destroys the session server-side and instructs the client to
// discard its token.
func (m *Manager) ClearUser(w http.ResponseWriter, session *Session) {
	m.mu.Lock()
	delete(m.sessions, session.TokenHash)
	m.mu.Unlock()

	session.User = nil

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentUser returns a copy of the session's user snapshot, or nil for an
// anonymous session. The manager's record is authoritative; the snapshot may
// be stale relative to the store.
func (m *Manager) CurrentUser(session *Session) *store.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.sessions[session.TokenHash]
	if !ok || stored.User == nil {
		return nil
	}
	u := stored.User.Clone()
	return &u
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// purgeLocked removes expired sessions. Caller holds m.mu.
func (m *Manager) purgeLocked(now time.Time) {
	if now.Sub(m.lastPurge) < purgeInterval {
		return
	}
	for hash, session := range m.sessions {
		if session.IsExpiredAt(now) {
			delete(m.sessions, hash)
		}
	}
	m.lastPurge = now
}
