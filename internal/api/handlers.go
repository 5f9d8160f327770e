package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"matbot/internal/assistant"
	"matbot/internal/chat"
	"matbot/internal/theme"
	"matbot/internal/userdb"
)

// statusFromError maps taxonomy errors to HTTP status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, userdb.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, userdb.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, chat.ErrLastSession):
		return http.StatusConflict
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrMissingCredentials),
		errors.Is(err, assistant.ErrUnknownTheme):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFromError(err), map[string]string{"error": err.Error()})
}

// stateResponse is the JSON view of an interaction
type stateResponse struct {
	LoggedIn bool           `json:"logged_in"`
	Username string         `json:"username,omitempty"`
	Theme    string         `json:"theme"`
	Active   string         `json:"active"`
	Sessions []string       `json:"sessions"`
	Messages []chat.Message `json:"messages"`
	Warning  string         `json:"warning,omitempty"`
}

func stateFrom(view assistant.View, warning string) stateResponse {
	return stateResponse{
		LoggedIn: view.LoggedIn,
		Username: view.Username,
		Theme:    view.Theme,
		Active:   view.Active,
		Sessions: view.Sessions,
		Messages: view.Messages,
		Warning:  warning,
	}
}

// handleIndex renders the chat page for the current interaction
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	it := s.interaction(w, r)
	view := it.Snapshot()

	css, err := theme.CSS(view.Theme)
	if err != nil {
		s.logger.WithContext("error", err.Error()).Error("failed to render theme")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"LoggedIn": view.LoggedIn,
		"Username": view.Username,
		"Theme":    view.Theme,
		"Active":   view.Active,
		"Sessions": view.Sessions,
		"Messages": view.Messages,
		"ThemeCSS": template.CSS(css),
	}
	if err := s.templates.ExecuteTemplate(w, "chat.html", data); err != nil {
		s.logger.WithContext("error", err.Error()).Error("failed to render chat template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleThemeCSS serves the interaction's palette as a stylesheet
func (s *Server) handleThemeCSS(w http.ResponseWriter, r *http.Request) {
	it := s.interaction(w, r)
	view := it.Snapshot()

	css, err := theme.CSS(view.Theme)
	if err != nil {
		http.Error(w, "Unknown theme", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(css))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleSignup creates an account and logs it in
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	it := s.interaction(w, r)
	if _, err := it.Dispatch(r.Context(), assistant.Signup{Username: req.Username, Password: req.Password}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), ""))
}

// handleLogin authenticates and adopts the stored scope
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	it := s.interaction(w, r)
	if _, err := it.Dispatch(r.Context(), assistant.Login{Username: req.Username, Password: req.Password}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), ""))
}

// handleLogout drops back to a fresh guest scope
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	it := s.interaction(w, r)
	if _, err := it.Dispatch(r.Context(), assistant.Logout{}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), ""))
}

// handleMessage submits a user message and returns the reply
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	it := s.interaction(w, r)
	res, err := it.Dispatch(r.Context(), assistant.SubmitMessage{Content: req.Content})
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyMessage) {
			// Blank input is a no-op, not an error
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reply":   res.Reply,
		"session": res.Session,
		"warning": res.Warning,
	})
}

// handleSessions lists sessions on GET, creates one on POST
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	it := s.interaction(w, r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), ""))

	case http.MethodPost:
		res, err := it.Dispatch(r.Context(), assistant.CreateSession{})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), res.Warning))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type sessionRequest struct {
	Name string `json:"name"`
}

// handleSessionDelete removes a named session
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	it := s.interaction(w, r)
	res, err := it.Dispatch(r.Context(), assistant.DeleteSession{Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), res.Warning))
}

// handleSessionSelect switches the active session
func (s *Server) handleSessionSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	it := s.interaction(w, r)
	if _, err := it.Dispatch(r.Context(), assistant.SelectSession{Name: req.Name}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), ""))
}

// handleTheme returns the current theme on GET, switches it on POST
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	it := s.interaction(w, r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"theme": it.Snapshot().Theme,
			"modes": theme.Modes(),
		})

	case http.MethodPost:
		var req struct {
			Theme string `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		res, err := it.Dispatch(r.Context(), assistant.ChangeTheme{Mode: req.Theme})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateFrom(it.Snapshot(), res.Warning))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleActivity returns the logged-in user's recent activity
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	it := s.interaction(w, r)
	view := it.Snapshot()
	if !view.LoggedIn {
		http.Error(w, "Login required", http.StatusUnauthorized)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := s.activity.RecentForUser(r.Context(), view.Username, limit)
	if err != nil {
		s.logger.WithContext("error", err.Error()).Error("failed to read activity log")
		http.Error(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// handleResource proxies a documentation lookup
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.config.ResourcesEnabled || s.fetcher == nil {
		http.Error(w, "Resource lookups are disabled", http.StatusServiceUnavailable)
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}

	article, err := s.fetcher.Lookup(r.Context(), url)
	if err != nil {
		s.logger.WithContext("error", err.Error()).Warn("resource lookup failed")
		http.Error(w, "Lookup failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, article)
}
