// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/samber/oops"

	"github.com/ledgernotes/ledgernotes/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// templateSet holds the parsed page templates.
type templateSet struct {
	index  *template.Template
	signup *template.Template
	login  *template.Template
}

func loadTemplates() (*templateSet, error) {
	parse := func(name string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, oops.With("template", name).Wrap(err)
		}
		return t, nil
	}

	index, err := parse("index.html")
	if err != nil {
		return nil, err
	}
	signup, err := parse("signup.html")
	if err != nil {
		return nil, err
	}
	login, err := parse("login.html")
	if err != nil {
		return nil, err
	}

	return &templateSet{index: index, signup: signup, login: login}, nil
}

// subjectView is one catalog row on the index page.
type subjectView struct {
	catalog.Subject
	Done bool
}

// indexData feeds the index template.
type indexData struct {
	Username string
	Subjects []subjectView
	Done     int
}

// formData feeds the signup and login templates.
type formData struct {
	Username string
	Error    string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.ErrorContext(r.Context(), "template render failed", "error", err)
	}
}
