// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package auth

import "errors"

// Sentinel errors surfaced to the boundary layer, which maps each to an
// HTTP status. Services wrap these with oops codes for logging context.
var (
	// ErrNotFound is returned when a referenced user no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned by signup when the username exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned by login for an unknown username or
	// a wrong password. Both cases produce this identical error so callers
	// cannot tell which field was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotAuthenticated is returned when an operation requires a logged-in
	// session and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMalformedHash is returned when a stored password hash cannot be
	// parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)
