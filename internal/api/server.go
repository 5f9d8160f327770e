package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"matbot/internal/assistant"
	"matbot/internal/audit"
	"matbot/internal/logging"
	"matbot/internal/resources"
)

// ActivityReader exposes the activity log to the API
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
	RecentForUser(ctx context.Context, username string, limit int) ([]audit.Event, error)
}

// ResourceFetcher looks up documentation pages
type ResourceFetcher interface {
	Lookup(ctx context.Context, url string) (*resources.Article, error)
}

// ServerConfig holds server behavior toggles
type ServerConfig struct {
	ResourcesEnabled bool
}

// Server holds dependencies and provides HTTP handlers
type Server struct {
	interactions *InteractionManager
	activity     ActivityReader
	fetcher      ResourceFetcher
	wsHub        *WebSocketHub
	templates    *template.Template
	config       *ServerConfig
	logger       *logging.Logger
}

// NewServer creates a server with dependencies and loads templates
func NewServer(interactions *InteractionManager, activity ActivityReader, fetcher ResourceFetcher, config *ServerConfig, logger *logging.Logger) (*Server, error) {
	return NewServerWithTemplatePath(interactions, activity, fetcher, config, logger, "web/templates/*.html")
}

// NewServerWithTemplatePath creates a server with a custom template path (useful for testing)
func NewServerWithTemplatePath(interactions *InteractionManager, activity ActivityReader, fetcher ResourceFetcher, config *ServerConfig, logger *logging.Logger, templatePath string) (*Server, error) {
	tmpl, err := template.ParseGlob(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	srv := &Server{
		interactions: interactions,
		activity:     activity,
		fetcher:      fetcher,
		wsHub:        NewWebSocketHub(),
		templates:    tmpl,
		config:       config,
		logger:       logger,
	}

	go srv.wsHub.Run()

	return srv, nil
}

// Hub returns the server's websocket hub so the assistant's events can
// be published through it
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Notify implements assistant.Notifier by broadcasting refresh events
// to every connected client
func (s *Server) Notify(event assistant.Event) {
	s.wsHub.Broadcast(event.Type, event.Session)
}

// RegisterRoutes sets up all HTTP routes
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Static files - serve from web/static/
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// Page routes
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/theme.css", s.handleThemeCSS)

	// API routes
	mux.HandleFunc("/api/signup", s.handleSignup)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/api/message", s.handleMessage)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/delete", s.handleSessionDelete)
	mux.HandleFunc("/api/sessions/select", s.handleSessionSelect)
	mux.HandleFunc("/api/theme", s.handleTheme)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/resource", s.handleResource)

	// WebSocket
	mux.HandleFunc("/ws", s.handleWebSocket)
}
