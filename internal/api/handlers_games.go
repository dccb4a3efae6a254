package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studychess/studychess/internal/gamedb"
	"github.com/studychess/studychess/internal/pgn"
)

// handleImportGames accepts a PGN file upload and imports it as a
// background task. Progress arrives on the event stream under the
// returned task id.
func (s *Server) handleImportGames(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImportBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxImportBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxImportBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxImportBytes), http.StatusRequestEntityTooLarge)
		return
	}

	source := r.FormValue("source")
	if source == "" {
		source = sanitizeFilename(header.Filename)
	}

	chunks := pgn.SplitGames(string(data))
	if len(chunks) == 0 {
		jsonError(w, "no games found in file", http.StatusBadRequest)
		return
	}

	taskID := "import:" + source
	s.orch.RunTask(taskID, func(ctx context.Context, report func(done, total int)) error {
		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.importGame(ctx, source, chunk); err != nil {
				s.log.Warn("skipping unparseable game", "source", source, "index", i, "error", err)
			}
			report(i+1, len(chunks))
		}
		return nil
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"task":   taskID,
		"source": source,
		"games":  len(chunks),
	})
}

func (s *Server) importGame(ctx context.Context, source, chunk string) error {
	tokens, err := pgn.Tokenize(chunk)
	if err != nil {
		return err
	}
	headers := pgn.ResolveHeaders(tokens)
	g := gamedb.Game{Source: source, PGN: chunk}
	g.White, _ = headers.Get("White")
	g.Black, _ = headers.Get("Black")
	g.Event, _ = headers.Get("Event")
	g.Site, _ = headers.Get("Site")
	g.Date, _ = headers.Get("Date")
	g.Result, _ = headers.Get("Result")
	_, err = s.store.Put(ctx, g)
	return err
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)

	games, err := s.store.Read(r.Context(), source, offset, limit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"games":  games,
		"offset": offset,
		"count":  len(games),
	})
}

// handleDeleteGames drops every game imported under one source.
func (s *Server) handleDeleteGames(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}
	n, err := s.store.DeleteSource(r.Context(), source)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "deleted": n})
}

func (s *Server) handleCountGames(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (s *Server) handleSearchGames(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		jsonError(w, "q is required", http.StatusBadRequest)
		return
	}
	games, err := s.store.Search(r.Context(), term, queryInt(r, "limit", 50))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "count": len(games)})
}

// handleOpenStoredGame parses a stored game into a fresh tab.
func (s *Server) handleOpenStoredGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		jsonError(w, "bad game id", http.StatusBadRequest)
		return
	}
	g, err := s.store.Get(r.Context(), id)
	if errors.Is(err, gamedb.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	game, err := pgn.Parse(g.PGN, s.rules)
	if err != nil {
		jsonError(w, "stored game does not parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	tab := s.orch.OpenTab(game.Tree, game.Headers)
	writeJSON(w, http.StatusCreated, s.snapshot(tab))
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
