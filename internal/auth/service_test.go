// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgernotes/ledgernotes/internal/auth"
	"github.com/ledgernotes/ledgernotes/pkg/errutil"

	"github.com/ledgernotes/ledgernotes/internal/store"
)

// memStore is an in-memory DocumentStore for service tests.
type memStore struct {
	doc      *store.Document
	readErr  error
	writeErr error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{doc: store.NewDocument()}
}

func (m *memStore) Read(_ context.Context) (*store.Document, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.doc.Clone(), nil
}

func (m *memStore) Write(_ context.Context, doc *store.Document) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.doc = doc.Clone()
	return nil
}

func newTestService(t *testing.T, docs auth.DocumentStore) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(docs, auth.NewArgon2idHasher())
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	_, err := auth.NewService(nil, auth.NewArgon2idHasher())
	assert.Error(t, err)

	_, err = auth.NewService(newMemStore(), nil)
	assert.Error(t, err)
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "ada", false},
		{"valid with digits and underscore", "ada_lovelace_1815", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 31), true},
		{"max length ok", strings.Repeat("a", 30), false},
		{"starts with digit", "1ada", true},
		{"starts with underscore", "_ada", true},
		{"contains space", "ada lovelace", true},
		{"contains dash", "ada-lovelace", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account with empty progress", func(t *testing.T) {
		docs := newMemStore()
		svc := newTestService(t, docs)

		user, err := svc.Signup(ctx, "ada", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "ada", user.Username)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, []string{}, user.Progress)
		assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

		stored := docs.doc.FindByUsername("ada")
		require.NotNil(t, stored)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("duplicate username rejected before write", func(t *testing.T) {
		docs := newMemStore()
		svc := newTestService(t, docs)

		_, err := svc.Signup(ctx, "ada", "s3cret")
		require.NoError(t, err)
		writesAfterFirst := docs.writes

		_, err = svc.Signup(ctx, "ada", "other")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
		errutil.AssertErrorCode(t, err, "ACCOUNT_USERNAME_TAKEN")
		assert.Equal(t, writesAfterFirst, docs.writes)
		assert.Len(t, docs.doc.Users, 1)
	})

	t.Run("username match is case-sensitive", func(t *testing.T) {
		docs := newMemStore()
		svc := newTestService(t, docs)

		_, err := svc.Signup(ctx, "ada", "s3cret")
		require.NoError(t, err)

		_, err = svc.Signup(ctx, "Ada", "s3cret")
		require.NoError(t, err)
		assert.Len(t, docs.doc.Users, 2)
	})

	t.Run("invalid username rejected without store access", func(t *testing.T) {
		docs := newMemStore()
		docs.readErr = errors.New("should not be called")
		svc := newTestService(t, docs)

		_, err := svc.Signup(ctx, "a", "s3cret")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
	})

	t.Run("store errors propagate", func(t *testing.T) {
		docs := newMemStore()
		docs.writeErr = store.ErrStorage
		svc := newTestService(t, docs)

		_, err := svc.Signup(ctx, "ada", "s3cret")
		assert.ErrorIs(t, err, store.ErrStorage)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*auth.Service, *memStore, *store.User) {
		t.Helper()
		docs := newMemStore()
		svc := newTestService(t, docs)
		user, err := svc.Signup(ctx, "ada", "s3cret")
		require.NoError(t, err)
		return svc, docs, user
	}

	t.Run("valid credentials return the signed-up user", func(t *testing.T) {
		svc, _, created := setup(t)

		user, err := svc.Login(ctx, "ada", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.Equal(t, "ada", user.Username)
	})

	t.Run("wrong password and unknown user yield the identical error", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, errWrong := svc.Login(ctx, "ada", "not it")
		_, errUnknown := svc.Login(ctx, "nobody", "s3cret")

		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.ErrorIs(t, errWrong, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("legacy bcrypt hash upgraded on login", func(t *testing.T) {
		docs := newMemStore()
		svc := newTestService(t, docs)

		legacy, err := bcrypt.GenerateFromPassword([]byte("migrated"), bcrypt.MinCost)
		require.NoError(t, err)
		docs.doc.Users = append(docs.doc.Users, store.User{
			ID:           store.NewULID().String(),
			Username:     "grace",
			PasswordHash: string(legacy),
			Progress:     []string{},
		})

		user, err := svc.Login(ctx, "grace", "migrated")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

		stored := docs.doc.FindByUsername("grace")
		require.NotNil(t, stored)
		assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

		// And the upgraded hash keeps working.
		_, err = svc.Login(ctx, "grace", "migrated")
		assert.NoError(t, err)
	})

	t.Run("login succeeds when upgrade write fails", func(t *testing.T) {
		docs := newMemStore()
		svc := newTestService(t, docs)

		legacy, err := bcrypt.GenerateFromPassword([]byte("migrated"), bcrypt.MinCost)
		require.NoError(t, err)
		docs.doc.Users = append(docs.doc.Users, store.User{
			ID:           store.NewULID().String(),
			Username:     "grace",
			PasswordHash: string(legacy),
			Progress:     []string{},
		})
		docs.writeErr = store.ErrStorage

		user, err := svc.Login(ctx, "grace", "migrated")
		require.NoError(t, err)
		assert.Equal(t, "grace", user.Username)
	})

	t.Run("store read errors propagate", func(t *testing.T) {
		docs := newMemStore()
		docs.readErr = store.ErrStorage
		svc := newTestService(t, docs)

		_, err := svc.Login(ctx, "ada", "s3cret")
		assert.ErrorIs(t, err, store.ErrStorage)
	})
}
