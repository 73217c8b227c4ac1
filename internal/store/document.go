// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

// Package store persists the application state as a single flat-file JSON
// document. The document is loaded fully into memory and rewritten whole on
// every mutation; there are no partial or append updates.
package store

import (
	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// DocumentVersion is the schema version written to every document.
const DocumentVersion = "1.0.0"

// supportedVersions accepts any document of the current major version.
// Documents written by a future major version are rejected on read.
var supportedVersions = mustConstraint("^1")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// User is one account in the store document.
// Progress holds the IDs of the subjects the user has marked complete.
type User struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash"`
	Progress     []string `json:"progress"`
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	progress := make([]string, len(u.Progress))
	copy(progress, u.Progress)
	u.Progress = progress
	return u
}

// Document is the single root object of the store.
// Invariant: Username is unique (exact, case-sensitive) across Users.
type Document struct {
	Version string `json:"version,omitempty"`
	Users   []User `json:"users"`
}

// NewDocument returns an empty document at the current version.
func NewDocument() *Document {
	return &Document{
		Version: DocumentVersion,
		Users:   []User{},
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	users := make([]User, len(d.Users))
	for i, u := range d.Users {
		users[i] = u.Clone()
	}
	return &Document{
		Version: d.Version,
		Users:   users,
	}
}

// FindByUsername returns the user with the exact username, or nil.
// Matching is case-sensitive.
func (d *Document) FindByUsername(username string) *User {
	for i := range d.Users {
		if d.Users[i].Username == username {
			return &d.Users[i]
		}
	}
	return nil
}

// FindByID returns the user with the given ID, or nil.
func (d *Document) FindByID(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// checkUnique returns an error naming the first duplicated username, if any.
func (d *Document) checkUnique() error {
	seen := make(map[string]struct{}, len(d.Users))
	for _, u := range d.Users {
		if _, dup := seen[u.Username]; dup {
			return oops.Code("STORE_DUPLICATE_USERNAME").
				With("username", u.Username).
				Wrap(ErrDuplicateUsername)
		}
		seen[u.Username] = struct{}{}
	}
	return nil
}

// checkVersion verifies the document version is readable by this build.
// An empty version is treated as current: documents written by the original
// implementation carry no version field.
func checkVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return oops.Code("STORE_CORRUPT").
			With("version", version).
			Wrap(ErrStorage)
	}
	if !supportedVersions.Check(v) {
		return oops.Code("STORE_VERSION_UNSUPPORTED").
			With("version", version).
			With("supported", supportedVersions.String()).
			Wrap(ErrStorage)
	}
	return nil
}
