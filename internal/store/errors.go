// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package store

import "errors"

// ErrStorage is the sentinel for any storage failure: unreadable medium,
// corrupt document structure, unsupported version, or write I/O failure.
var ErrStorage = errors.New("storage failure")

// ErrDuplicateUsername is returned when a write would violate the
// username-uniqueness invariant.
var ErrDuplicateUsername = errors.New("duplicate username")
