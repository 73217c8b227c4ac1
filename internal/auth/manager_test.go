// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgernotes/ledgernotes/internal/store"
)

func attachOnce(t *testing.T, m *Manager, cookies []*http.Cookie) (*Session, *httptest.ResponseRecorder) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	session := m.Attach(w, r)
	require.NotNil(t, session)
	return session, w
}

func TestManager_Attach_NewSession(t *testing.T) {
	m := NewManager(time.Hour)

	session, w := attachOnce(t, m, nil)

	assert.False(t, session.Authenticated())
	assert.Equal(t, 1, m.Len())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, HashSessionToken(cookie.Value), session.TokenHash)
}

func TestManager_Attach_ExistingSession(t *testing.T) {
	m := NewManager(time.Hour)

	first, w := attachOnce(t, m, nil)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	second, w2 := attachOnce(t, m, cookies)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, m.Len())
	assert.Empty(t, w2.Result().Cookies(), "no new cookie on an existing session")
}

func TestManager_Attach_UnknownCookie(t *testing.T) {
	m := NewManager(time.Hour)

	stale := &http.Cookie{Name: SessionCookieName, Value: "no-such-token"}
	session, w := attachOnce(t, m, []*http.Cookie{stale})

	assert.False(t, session.Authenticated())
	require.Len(t, w.Result().Cookies(), 1, "fresh token issued for an unknown cookie")
	assert.Equal(t, 1, m.Len())
}

func TestManager_SetUser(t *testing.T) {
	m := NewManager(time.Hour)
	session, _ := attachOnce(t, m, nil)

	user := store.User{
		ID:       store.NewULID().String(),
		Username: "ada",
		Progress: []string{"ias2"},
	}
	m.SetUser(session, user)

	require.True(t, session.Authenticated())
	assert.Equal(t, "ada", session.User.Username)

	// The stored record holds its own copy.
	user.Progress[0] = "mutated"
	current := m.CurrentUser(session)
	require.NotNil(t, current)
	assert.Equal(t, []string{"ias2"}, current.Progress)
}

func TestManager_ClearUser(t *testing.T) {
	m := NewManager(time.Hour)
	session, _ := attachOnce(t, m, nil)
	m.SetUser(session, store.User{ID: store.NewULID().String(), Username: "ada"})

	w := httptest.NewRecorder()
	m.ClearUser(w, session)

	assert.False(t, session.Authenticated())
	assert.Nil(t, m.CurrentUser(session))
	assert.Equal(t, 0, m.Len())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestManager_CurrentUser_Anonymous(t *testing.T) {
	m := NewManager(time.Hour)
	session, _ := attachOnce(t, m, nil)

	assert.Nil(t, m.CurrentUser(session))
}

func TestManager_CurrentUser_ReturnsCopy(t *testing.T) {
	m := NewManager(time.Hour)
	session, _ := attachOnce(t, m, nil)
	m.SetUser(session, store.User{ID: store.NewULID().String(), Username: "ada", Progress: []string{"ias2"}})

	first := m.CurrentUser(session)
	require.NotNil(t, first)
	first.Progress[0] = "mutated"

	second := m.CurrentUser(session)
	require.NotNil(t, second)
	assert.Equal(t, []string{"ias2"}, second.Progress)
}

func TestManager_ExpiredSessionNotResolved(t *testing.T) {
	m := NewManager(time.Hour)
	session, w := attachOnce(t, m, nil)

	// Force the stored record to be expired.
	m.mu.Lock()
	m.sessions[session.TokenHash].ExpiresAt = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	fresh, _ := attachOnce(t, m, w.Result().Cookies())
	assert.NotEqual(t, session.ID, fresh.ID)
}

func TestManager_DefaultTTL(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, DefaultSessionTTL, m.TTL())
}
