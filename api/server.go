package api

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/grid"
	"github.com/wricardo/gridpath/game/orchestrator"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/transport/websocket"
)

//go:embed static
var staticFiles embed.FS

// Server represents the REST API server
type Server struct {
	service service.ViewService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(viewService service.ViewService, hub *websocket.Hub) *Server {
	s := &Server{
		service: viewService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// View state and editing
	api.HandleFunc("/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/pointer", s.handlePointer).Methods("POST")
	api.HandleFunc("/intent", s.handleIntent).Methods("POST")
	api.HandleFunc("/reset", s.handleReset).Methods("POST")

	// Controls
	api.HandleFunc("/size", s.handleSize).Methods("PUT")
	api.HandleFunc("/step", s.handleStep).Methods("PUT")
	api.HandleFunc("/display", s.handleDisplay).Methods("PUT")

	// Rendering
	api.HandleFunc("/frame.png", s.handleFrame).Methods("GET")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets/{name}", s.handleApplyPreset).Methods("POST")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Embedded canvas page
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("embedded static files missing: %v", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(static)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError picks a status code for errors returned by the view
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, config.ErrPresetNotFound), errors.Is(err, service.ErrNoPresets):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, config.ErrInvalidPreset), errors.Is(err, orchestrator.ErrInvalidDisplay):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orchestrator.ErrLoopStopped):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// View Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.State(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req service.PointerInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rect.Width <= 0 || req.Rect.Height <= 0 {
		respondError(w, http.StatusBadRequest, "rect width and height must be positive")
		return
	}

	result, err := s.service.Pointer(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[EDIT] pointer button=%d cell=%s intent=%s applied=%t",
		req.Button, result.Cell, result.Intent, result.Applied)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Intent string `json:"intent"`
		X      *int   `json:"x"`
		Y      *int   `json:"y"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	intent, err := grid.ParseIntent(req.Intent)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		respondError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	cell := grid.Position{X: *req.X, Y: *req.Y}
	result, err := s.service.ApplyIntent(r.Context(), intent, cell)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[EDIT] intent=%s cell=%s applied=%t", intent, cell, result.Applied)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Reset(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Grid reset successfully",
		"state":   state,
	})
}

// Control Handlers

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows *int `json:"rows"`
		Cols *int `json:"cols"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rows == nil && req.Cols == nil {
		respondError(w, http.StatusBadRequest, "rows or cols is required")
		return
	}

	// A missing axis keeps its current value
	rows, cols := 0, 0
	if req.Rows == nil || req.Cols == nil {
		current, err := s.service.State(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		rows, cols = current.Size.Rows, current.Size.Cols
	}
	if req.Rows != nil {
		rows = *req.Rows
	}
	if req.Cols != nil {
		cols = *req.Cols
	}

	state, err := s.service.Resize(r.Context(), rows, cols)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StepMs *int `json:"step_ms"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StepMs == nil {
		respondError(w, http.StatusBadRequest, "step_ms is required")
		return
	}

	state, err := s.service.SetStep(r.Context(), *req.StepMs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	var req render.Display
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.SetDisplay(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Rendering Handlers

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.service.WritePNG(r.Context(), w); err != nil {
		w.Header().Del("Content-Type")
		respondServiceError(w, err)
	}
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := strings.TrimSuffix(vars["name"], ".json")

	state, err := s.service.ApplyPreset(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[PRESET] applied %s (%dx%d, %d walls)", name, state.Size.Rows, state.Size.Cols, len(state.Walls))
	respondJSON(w, http.StatusOK, state)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}

	state, err := s.service.State(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.hub.ServeWS(w, r, state)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
