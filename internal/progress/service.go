// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

// Package progress tracks which study notes a user has marked complete.
package progress

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/oops"

	"github.com/ledgernotes/ledgernotes/internal/auth"
	"github.com/ledgernotes/ledgernotes/internal/catalog"
	"github.com/ledgernotes/ledgernotes/internal/store"
)

// Service replaces a user's completed-notes set. Each update is a full
// replacement of the previous set: the client submits the complete checked
// state, not a delta. Concurrent updates to the same account resolve
// last-write-wins at the store.
type Service struct {
	store    auth.DocumentStore
	sessions *auth.Manager
	catalog  *catalog.Catalog
	logger   *slog.Logger
}

// NewService creates a progress Service. The catalog is advisory: item IDs
// outside it are stored verbatim so a catalog edit never corrupts existing
// accounts.
func NewService(docs auth.DocumentStore, sessions *auth.Manager, cat *catalog.Catalog, logger *slog.Logger) (*Service, error) {
	if docs == nil {
		return nil, oops.Errorf("document store is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session manager is required")
	}
	if cat == nil {
		return nil, oops.Errorf("catalog is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: docs, sessions: sessions, catalog: cat, logger: logger}, nil
}

// Update replaces the session user's completed set with itemIDs, persists it,
// and refreshes the session snapshot. Returns ErrNotAuthenticated for an
// anonymous session (the store is not touched) and ErrNotFound when the
// account has vanished from the store since login.
func (s *Service) Update(ctx context.Context, session *auth.Session, itemIDs []string) (*store.User, error) {
	current := s.sessions.CurrentUser(session)
	if current == nil {
		return nil, oops.Code("PROGRESS_NOT_AUTHENTICATED").Wrap(auth.ErrNotAuthenticated)
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	user := doc.FindByID(current.ID)
	if user == nil {
		return nil, oops.Code("PROGRESS_USER_GONE").
			With("user_id", current.ID).
			Wrap(auth.ErrNotFound)
	}

	items := normalize(itemIDs)
	for _, id := range items {
		if !s.catalog.Has(id) {
			s.logger.DebugContext(ctx, "progress item outside catalog", "user_id", user.ID, "item_id", id)
		}
	}

	user.Progress = items

	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}

	s.sessions.SetUser(session, *user)

	s.logger.InfoContext(ctx, "progress updated", "user_id", user.ID, "items", len(items))

	u := user.Clone()
	return &u, nil
}

// normalize dedupes and sorts item IDs so stored progress is canonical.
func normalize(itemIDs []string) []string {
	seen := make(map[string]struct{}, len(itemIDs))
	items := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, id)
	}
	sort.Strings(items)
	return items
}
