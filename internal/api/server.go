// Package api is the HTTP/WS surface: tab lifecycle, tree editing,
// analysis control, puzzle sessions, the game database, and the event
// stream pushing engine results to connected clients.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/studychess/studychess/internal/analysis"
	"github.com/studychess/studychess/internal/config"
	"github.com/studychess/studychess/internal/gamedb"
	"github.com/studychess/studychess/internal/rules"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	orch   *analysis.Orchestrator
	store  *gamedb.Store
	rules  rules.Engine
	hub    *Hub
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. It starts the event
// hub pumping orchestrator events to websocket clients.
func NewServer(orch *analysis.Orchestrator, store *gamedb.Store, eng rules.Engine, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orch:  orch,
		store: store,
		rules: eng,
		hub:   NewHub(log),
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	go s.hub.Run(orch.Events())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/engines", s.handleEngines)

	r.Route("/api/tabs", func(r chi.Router) {
		r.Post("/", s.handleOpenTab)
		r.Route("/{tabID}", func(r chi.Router) {
			r.Get("/", s.handleTabSnapshot)
			r.Delete("/", s.handleCloseTab)
			r.Post("/navigate", s.handleNavigate)
			r.Post("/moves", s.handlePlayMove)
			r.Post("/nodes/delete", s.handleDeleteNode)
			r.Post("/nodes/promote", s.handlePromoteVariation)
			r.Post("/nodes/comment", s.handleSetComment)
			r.Post("/nodes/annotation", s.handleSetAnnotation)
			r.Get("/themes", s.handleThemes)

			r.Post("/analysis/{engineID}/start", s.handleStartAnalysis)
			r.Post("/analysis/{engineID}/stop", s.handleStopAnalysis)

			r.Post("/puzzle", s.handleStartPuzzle)
			r.Post("/puzzle/move", s.handlePuzzleMove)
			r.Post("/puzzle/promotion", s.handlePuzzlePromotion)
		})
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/import", s.handleImportGames)
		r.Get("/", s.handleListGames)
		r.Delete("/", s.handleDeleteGames)
		r.Get("/count", s.handleCountGames)
		r.Get("/search", s.handleSearchGames)
		r.Post("/{gameID}/open", s.handleOpenStoredGame)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"engines": s.orch.Engines()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
