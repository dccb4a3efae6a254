package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studychess/studychess/internal/analysis"
	"github.com/studychess/studychess/internal/gametree"
	"github.com/studychess/studychess/internal/pgn"
	"github.com/studychess/studychess/internal/rules"
	"github.com/studychess/studychess/internal/themes"
)

type openTabRequest struct {
	PGN string `json:"pgn"` // empty opens the starting position
	FEN string `json:"fen"` // used when no PGN is given
}

type pathRequest struct {
	Path string `json:"path"`
}

type moveRequest struct {
	Path string `json:"path"`
	Move string `json:"move"`
}

type commentRequest struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

type annotationRequest struct {
	Path string `json:"path"`
	Tag  string `json:"tag"`
}

// nodeDTO is the wire form of one tree node. Children keep their order;
// index 0 is the mainline.
type nodeDTO struct {
	ID         string    `json:"id"`
	Move       string    `json:"move,omitempty"`
	FEN        string    `json:"fen"`
	Comment    string    `json:"comment,omitempty"`
	Annotation string    `json:"annotation,omitempty"`
	Children   []nodeDTO `json:"children,omitempty"`
}

func toNodeDTO(n *gametree.Node) nodeDTO {
	dto := nodeDTO{
		ID:         n.ID.String(),
		Move:       n.Move,
		FEN:        n.FEN,
		Comment:    n.Comment,
		Annotation: string(n.Annotation),
	}
	for _, child := range n.Children {
		dto.Children = append(dto.Children, toNodeDTO(child))
	}
	return dto
}

func (s *Server) handleOpenTab(w http.ResponseWriter, r *http.Request) {
	var req openTabRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var tab *analysis.Tab
	switch {
	case req.PGN != "":
		game, err := pgn.Parse(req.PGN, s.rules)
		if err != nil {
			jsonError(w, "parse pgn: "+err.Error(), http.StatusBadRequest)
			return
		}
		tab = s.orch.OpenTab(game.Tree, game.Headers)
	case req.FEN != "":
		tab = s.orch.OpenTab(gametree.New(req.FEN, s.rules), nil)
	default:
		tab = s.orch.OpenTab(gametree.New(rules.StartingFEN, s.rules), nil)
	}

	writeJSON(w, http.StatusCreated, s.snapshot(tab))
}

func (s *Server) handleTabSnapshot(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(tab))
}

func (s *Server) snapshot(tab *analysis.Tab) map[string]any {
	headers := map[string]string{}
	for _, tag := range tab.Headers().Tags() {
		v, _ := tab.Headers().Get(tag)
		headers[tag] = v
	}

	var root nodeDTO
	var current string
	tab.ReadTree(func(tree *gametree.Tree, cur gametree.Path) {
		root = toNodeDTO(tree.Root)
		current = cur.String()
	})

	return map[string]any{
		"tab":         tab.ID,
		"tree":        root,
		"current":     current,
		"headers":     headers,
		"orientation": tab.Headers().Orientation(),
	}
}

func (s *Server) handleCloseTab(w http.ResponseWriter, r *http.Request) {
	s.orch.CloseTab(chi.URLParam(r, "tabID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req pathRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := gametree.ParsePath(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orch.Navigate(tab.ID, p); err != nil {
		treeError(w, err)
		return
	}
	fen, line, cur := tab.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"current": cur.String(),
		"fen":     fen,
		"line":    line,
	})
}

func (s *Server) handlePlayMove(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := gametree.ParsePath(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	next, err := s.orch.PlayMove(tab.ID, p, req.Move)
	if err != nil {
		treeError(w, err)
		return
	}
	fen, line, _ := tab.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"current": next.String(),
		"fen":     fen,
		"line":    line,
	})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	s.treeMutation(w, r, func(tab *analysis.Tab, p gametree.Path) (gametree.Path, error) {
		return tab.DeleteNode(p)
	})
}

func (s *Server) handlePromoteVariation(w http.ResponseWriter, r *http.Request) {
	s.treeMutation(w, r, func(tab *analysis.Tab, p gametree.Path) (gametree.Path, error) {
		return tab.PromoteVariation(p)
	})
}

func (s *Server) treeMutation(w http.ResponseWriter, r *http.Request, op func(*analysis.Tab, gametree.Path) (gametree.Path, error)) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req pathRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := gametree.ParsePath(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := op(tab, p)
	if err != nil {
		treeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": result.String()})
}

func (s *Server) handleSetComment(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := gametree.ParsePath(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tab.SetComment(p, req.Text); err != nil {
		treeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAnnotation(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	var req annotationRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := gametree.ParsePath(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tab.SetAnnotation(p, gametree.Annotation(req.Tag)); err != nil {
		treeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleThemes classifies the tab's current position.
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	fen, line, _ := tab.Current()

	mate, err := s.rules.IsCheckmate(fen)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Reconstruct side-to-move per ply from the final position.
	moves := make([]themes.MoveEvent, len(line))
	side := startingSide(fen, len(line))
	for i, san := range line {
		moves[i] = themes.MoveEvent{Side: side, SAN: san}
		side = otherSide(side)
	}

	tags := themes.Classify(themes.Context{
		MoveNumber: rules.MoveNumber(fen),
		Endgame:    themes.IsEndgamePosition(fen),
		Mate:       mate,
		FinalFEN:   fen,
		Moves:      moves,
	})
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// startingSide walks back from the side to move after n plies.
func startingSide(finalFEN string, n int) string {
	side := "white"
	if rules.SideToMove(finalFEN) == "b" {
		side = "black"
	}
	if n%2 == 1 {
		side = otherSide(side)
	}
	return side
}

func otherSide(side string) string {
	if side == "white" {
		return "black"
	}
	return "white"
}

func (s *Server) tab(w http.ResponseWriter, r *http.Request) (*analysis.Tab, bool) {
	tab, ok := s.orch.Tab(chi.URLParam(r, "tabID"))
	if !ok {
		jsonError(w, "tab not found", http.StatusNotFound)
		return nil, false
	}
	return tab, true
}

func decodeBody(r *http.Request, v any) error {
	defer io.Copy(io.Discard, r.Body)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

// treeError maps domain errors onto HTTP status codes.
func treeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gametree.ErrInvalidPath):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, gametree.ErrIllegalMove), errors.Is(err, rules.ErrIllegalMove):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, analysis.ErrUnknownTab):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		jsonError(w, err.Error(), http.StatusBadRequest)
	}
}
