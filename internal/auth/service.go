// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package auth

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/samber/oops"

	"github.com/ledgernotes/ledgernotes/internal/store"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// DocumentStore is the store adapter surface the account service needs.
type DocumentStore interface {
	// Read loads the current on-disk document into a working copy.
	Read(ctx context.Context) (*store.Document, error)

	// Write atomically replaces the on-disk document.
	Write(ctx context.Context, doc *store.Document) error
}

// Service provides account operations: signup and login.
type Service struct {
	store  DocumentStore
	hasher PasswordHasher
	logger *slog.Logger
}

// NewService creates an account Service.
func NewService(docs DocumentStore, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(docs, hasher, slog.Default())
}

// NewServiceWithLogger creates an account Service with an explicit logger.
func NewServiceWithLogger(docs DocumentStore, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if docs == nil {
		return nil, oops.Errorf("document store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{store: docs, hasher: hasher, logger: logger}, nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// Signup creates a new account and returns the stored user.
// Returns ErrUsernameTaken when the username exists (exact, case-sensitive
// match). The store is rewritten whole or not at all: a failure at any step
// aborts before Write.
func (s *Service) Signup(ctx context.Context, username, password string) (*store.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	if doc.FindByUsername(username) != nil {
		return nil, oops.Code("ACCOUNT_USERNAME_TAKEN").
			With("username", username).
			Wrap(ErrUsernameTaken)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := store.User{
		ID:           store.NewULID().String(),
		Username:     username,
		PasswordHash: hash,
		Progress:     []string{},
	}
	doc.Users = append(doc.Users, user)

	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created", "user_id", user.ID, "username", username)

	u := user.Clone()
	return &u, nil
}

// Login verifies credentials and returns the matched user.
// Unknown username and wrong password both produce the identical
// ErrInvalidCredentials; a dummy hash is verified when the user is absent so
// the two cases are not timing-distinguishable.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	user := doc.FindByUsername(username)

	targetHash := dummyPasswordHash
	if user != nil {
		targetHash = user.PasswordHash
	}

	// Always verify (constant-time with respect to user existence)
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if user == nil {
			return nil, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, verifyErr
	}

	if user == nil || !valid {
		return nil, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	// Upgrade legacy bcrypt hashes in place. Best effort: login succeeds
	// even if the rewrite fails.
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			user.PasswordHash = newHash
			if writeErr := s.store.Write(ctx, doc); writeErr != nil {
				s.logger.WarnContext(ctx, "password hash upgrade failed",
					"user_id", user.ID,
					"error", writeErr,
				)
			}
		}
	}

	u := user.Clone()
	return &u, nil
}
