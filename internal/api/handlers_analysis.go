package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studychess/studychess/internal/analysis"
	"github.com/studychess/studychess/internal/puzzle"
)

func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	tabID := chi.URLParam(r, "tabID")
	engineID := chi.URLParam(r, "engineID")

	sessionID, err := s.orch.StartAnalysis(tabID, engineID)
	if err != nil {
		analysisError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"session": sessionID.String(),
		"engine":  engineID,
	})
}

func (s *Server) handleStopAnalysis(w http.ResponseWriter, r *http.Request) {
	tabID := chi.URLParam(r, "tabID")
	engineID := chi.URLParam(r, "engineID")

	if err := s.orch.StopAnalysis(tabID, engineID); err != nil {
		analysisError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startPuzzleRequest struct {
	Solution []string `json:"solution"` // SAN line, user's side first
	Policy   string   `json:"policy"`   // off | onSuccess | always
}

type puzzleMoveRequest struct {
	Move string `json:"move"`
}

type puzzlePromotionRequest struct {
	Piece string `json:"piece"` // q, r, b, or n
}

func (s *Server) handleStartPuzzle(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req startPuzzleRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Solution) == 0 {
		jsonError(w, "solution line is required", http.StatusBadRequest)
		return
	}
	policy := puzzle.AdvancePolicy(req.Policy)
	switch policy {
	case puzzle.AdvanceOff, puzzle.AdvanceOnSuccess, puzzle.AdvanceAlways:
	case "":
		policy = puzzle.AdvanceOff
	default:
		jsonError(w, "unknown advance policy", http.StatusBadRequest)
		return
	}

	tab.StartPuzzle(s.rules, req.Solution, policy)
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": puzzle.StatusAwaitingMove,
		"plies":  len(req.Solution),
	})
}

func (s *Server) handlePuzzleMove(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req puzzleMoveRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := tab.PuzzleMove(req.Move)
	if err != nil {
		puzzleError(w, err)
		return
	}
	writePuzzleOutcome(w, out)
}

func (s *Server) handlePuzzlePromotion(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req puzzlePromotionRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := tab.PuzzlePromotion(req.Piece)
	if err != nil {
		puzzleError(w, err)
		return
	}
	writePuzzleOutcome(w, out)
}

func writePuzzleOutcome(w http.ResponseWriter, out puzzle.Outcome) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           out.Status,
		"current":          out.Path.String(),
		"reply":            out.Reply,
		"solvedIndex":      out.SolvedIndex,
		"pendingPromotion": out.PendingPromotion,
		"advance":          out.Advance,
	})
}

func analysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrUnknownTab), errors.Is(err, analysis.ErrUnknownEngine):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, analysis.ErrEngineBusy):
		jsonError(w, err.Error(), http.StatusTooManyRequests)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func puzzleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrNoPuzzle), errors.Is(err, puzzle.ErrNoPendingPromotion):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		treeError(w, err)
	}
}
