// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
)

// FileStore is the flat-file document store adapter.
//
// Read loads the whole on-disk document; Write atomically replaces it.
// Callers must Read before inspecting data and Write after mutating it; the
// adapter does not auto-sync. The mutex guards file integrity only: two
// interleaved read-modify-write sequences still race and the last Write
// wins, which is an accepted gap at this system's scale.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore persisting to the given path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, oops.Code("STORE_PATH_EMPTY").Errorf("store path cannot be empty")
	}
	return &FileStore{path: path}, nil
}

// Path returns the on-disk location of the document.
func (s *FileStore) Path() string {
	return s.path
}

// Read loads the current on-disk document, creating it with an empty users
// sequence if absent. Documents written by earlier releases are migrated to
// the current shape before validation. The returned document is the caller's
// private working copy. Fails wrapping ErrStorage if the medium is
// unreadable, the structure is invalid, or the document version is
// unsupported.
func (s *FileStore) Read(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("STORE_READ_FAILED").Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := NewDocument()
		if err := s.writeLocked(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, oops.Code("STORE_READ_FAILED").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}

	data = migrateLegacy(data)

	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code("STORE_CORRUPT").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("STORE_CORRUPT").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	if doc.Users == nil {
		doc.Users = []User{}
	}

	return &doc, nil
}

// Write serializes the document and atomically replaces the on-disk copy
// (temp file + rename, so a failed write never leaves a partial document).
// Documents violating the username-uniqueness invariant are rejected before
// anything touches the disk.
func (s *FileStore) Write(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("STORE_WRITE_FAILED").Wrap(err)
	}
	if doc == nil {
		return oops.Code("STORE_WRITE_FAILED").Errorf("document cannot be nil")
	}
	if err := doc.checkUnique(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(doc)
}

// migrateLegacy rewrites documents written by earlier releases into the
// current shape. The only known difference is the password hash living under
// a user's "password" key instead of "passwordHash". Anything unparseable is
// returned untouched so schema validation reports it.
func migrateLegacy(data []byte) []byte {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return data
	}

	users, ok := raw["users"].([]any)
	if !ok {
		return data
	}

	changed := false
	for _, entry := range users {
		user, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := user["passwordHash"]; ok {
			continue
		}
		hash, ok := user["password"]
		if !ok {
			continue
		}
		user["passwordHash"] = hash
		delete(user, "password")
		changed = true
	}
	if !changed {
		return data
	}

	migrated, err := json.Marshal(raw)
	if err != nil {
		return data
	}
	return migrated
}

// writeLocked performs the atomic replace. Caller holds s.mu.
func (s *FileStore) writeLocked(doc *Document) error {
	if doc.Version == "" {
		doc.Version = DocumentVersion
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oops.Code("STORE_WRITE_FAILED").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".db-*.tmp")
	if err != nil {
		return oops.Code("STORE_WRITE_FAILED").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return oops.Code("STORE_WRITE_FAILED").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return oops.Code("STORE_WRITE_FAILED").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return oops.Code("STORE_WRITE_FAILED").
			With("path", s.path).
			With("cause", err.Error()).
			Wrap(ErrStorage)
	}
	return nil
}
