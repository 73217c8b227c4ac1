// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// DefaultLinkPatterns are the link shapes a catalog is expected to use:
// app-relative note pages or external http(s) URLs.
var DefaultLinkPatterns = []string{
	"/notes/*.html",
	"http://**",
	"https://**",
}

// Validate checks catalog integrity: every subject has a name and a link,
// every link matches one of the allowed glob patterns, and app-relative links
// resolve to an existing file under notesDir. An empty notesDir skips the
// file-existence check. Returns one error per problem, or nil.
func (c *Catalog) Validate(notesDir string, patterns []string) []error {
	if len(patterns) == 0 {
		patterns = DefaultLinkPatterns
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return []error{oops.Code("CATALOG_BAD_PATTERN").
				With("pattern", p).
				Wrap(err)}
		}
		globs = append(globs, g)
	}

	var errs []error
	for _, s := range c.Subjects {
		if s.Name == "" {
			errs = append(errs, oops.With("id", s.ID).Errorf("subject %q has no name", s.ID))
		}
		if s.Link == "" {
			errs = append(errs, oops.With("id", s.ID).Errorf("subject %q has no link", s.ID))
			continue
		}

		matched := false
		for _, g := range globs {
			if g.Match(s.Link) {
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, oops.With("id", s.ID).With("link", s.Link).
				Errorf("subject %q link %q matches no allowed pattern", s.ID, s.Link))
			continue
		}

		if notesDir != "" && strings.HasPrefix(s.Link, "/notes/") {
			rel := strings.TrimPrefix(s.Link, "/notes/")
			if _, err := os.Stat(filepath.Join(notesDir, rel)); err != nil {
				errs = append(errs, oops.With("id", s.ID).With("link", s.Link).
					Errorf("subject %q note file not found under %s", s.ID, notesDir))
			}
		}
	}
	return errs
}
