// Package server provides the HTTP dashboard and API for posecam.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/posecam/internal/app"
	"github.com/ayusman/posecam/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
}

// Server represents the HTTP server for the posecam application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/detection", s.handleDetection)

	// Session history needs the store behind the app
	if s.config.App != nil && s.config.App.Store() != nil {
		sessionsHandler := api.NewSessionsHandler(s.config.App.Store())
		s.mux.Handle("/api/sessions", sessionsHandler)
		s.mux.Handle("/api/sessions/", sessionsHandler)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
		s.mux.Handle("/api/poses", NewPosesHandler(s.config.App))
		s.mux.Handle("/metrics", s.config.App.Metrics().Handler())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleStatus handles GET requests to /api/status and reports the live
// pipeline state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a := s.config.App
	if a == nil {
		http.Error(w, "Pipeline not available", http.StatusServiceUnavailable)
		return
	}

	response := map[string]interface{}{
		"enabled":    a.IsEnabled(),
		"session_id": a.SessionID(),
		"pose_count": 0,
	}

	if snap := a.Latest(); snap != nil {
		response["pose_count"] = len(snap.Poses)
		response["seq"] = snap.Seq
		response["camera_width"] = snap.CameraSize.X
		response["camera_height"] = snap.CameraSize.Y
	}

	m := a.Metrics()
	response["frames_received"] = m.FramesReceived.Load()
	response["frames_dropped"] = m.FramesDropped.Load()
	response["frames_processed"] = m.FramesProcessed.Load()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleDetection toggles pose detection.
// GET returns the current state, POST {"enabled": bool} changes it.
func (s *Server) handleDetection(w http.ResponseWriter, r *http.Request) {
	a := s.config.App
	if a == nil {
		http.Error(w, "Pipeline not available", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"enabled": a.IsEnabled()})

	case http.MethodPost:
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		a.SetEnabled(req.Enabled)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"enabled": a.IsEnabled()})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
