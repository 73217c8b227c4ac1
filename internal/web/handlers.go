// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package web

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/ledgernotes/ledgernotes/internal/auth"
	"github.com/ledgernotes/ledgernotes/internal/store"
	"github.com/ledgernotes/ledgernotes/pkg/errutil"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("POST /progress", s.handleProgress)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The static tree is embedded; a missing subdirectory is a
		// packaging bug.
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	if s.cfg.NotesDir != "" {
		mux.Handle("GET /notes/", http.StripPrefix("/notes/", http.FileServer(http.Dir(s.cfg.NotesDir))))
	}

	return s.withTelemetry(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := s.cfg.Sessions.Attach(w, r)
	user := s.cfg.Sessions.CurrentUser(session)

	data := indexData{
		Subjects: make([]subjectView, 0, s.cfg.Catalog.Len()),
	}

	done := make(map[string]bool)
	if user != nil {
		data.Username = user.Username
		for _, id := range user.Progress {
			done[id] = true
		}
	}

	for _, subject := range s.cfg.Catalog.Subjects {
		view := subjectView{Subject: subject, Done: done[subject.ID]}
		if view.Done {
			data.Done++
		}
		data.Subjects = append(data.Subjects, view)
	}

	s.render(w, r, s.templates.index, http.StatusOK, data)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.cfg.Sessions.Attach(w, r)
	s.render(w, r, s.templates.signup, http.StatusOK, formData{})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	session := s.cfg.Sessions.Attach(w, r)

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.cfg.Accounts.Signup(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			s.render(w, r, s.templates.signup, http.StatusBadRequest, formData{
				Username: username,
				Error:    "That username is already taken.",
			})
		case errors.Is(err, store.ErrStorage):
			errutil.LogError(s.logger, "signup failed", err)
			s.render(w, r, s.templates.signup, http.StatusInternalServerError, formData{
				Username: username,
				Error:    "Something went wrong. Please try again.",
			})
		default:
			s.render(w, r, s.templates.signup, http.StatusBadRequest, formData{
				Username: username,
				Error:    "Usernames are 3 to 30 characters: letters, numbers, and underscores, starting with a letter. Passwords cannot be empty.",
			})
		}
		return
	}

	s.cfg.Sessions.SetUser(session, *user)
	s.cfg.Metrics.RecordSignup()

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.cfg.Sessions.Attach(w, r)
	s.render(w, r, s.templates.login, http.StatusOK, formData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	session := s.cfg.Sessions.Attach(w, r)

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.cfg.Accounts.Login(r.Context(), username, password)
	if err != nil {
		s.cfg.Metrics.RecordLogin(false)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.render(w, r, s.templates.login, http.StatusUnauthorized, formData{
				Username: username,
				Error:    "Invalid username or password.",
			})
		default:
			errutil.LogError(s.logger, "login failed", err)
			s.render(w, r, s.templates.login, http.StatusInternalServerError, formData{
				Username: username,
				Error:    "Something went wrong. Please try again.",
			})
		}
		return
	}

	s.cfg.Sessions.SetUser(session, *user)
	s.cfg.Metrics.RecordLogin(true)

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := s.cfg.Sessions.Attach(w, r)
	s.cfg.Sessions.ClearUser(w, session)

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	session := s.cfg.Sessions.Attach(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Checkbox forms post "progress"; array-style clients post "progress[]".
	items := append(r.PostForm["progress"], r.PostForm["progress[]"]...)

	if _, err := s.cfg.Progress.Update(r.Context(), session, items); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotAuthenticated):
			http.Error(w, "not authenticated", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrNotFound):
			http.Error(w, "account not found", http.StatusNotFound)
		default:
			errutil.LogError(s.logger, "progress update failed", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	s.cfg.Metrics.RecordProgressUpdate()

	http.Redirect(w, r, "/", http.StatusFound)
}
