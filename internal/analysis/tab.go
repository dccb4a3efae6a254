package analysis

import (
	"sync"
	"sync/atomic"

	"github.com/studychess/studychess/internal/gametree"
	"github.com/studychess/studychess/internal/pgn"
	"github.com/studychess/studychess/internal/puzzle"
)

// Tab owns one game tree, the current position within it, the analysis
// generation counter, and the active session handles. All tree access
// is serialized by the tab's lock; engine streams never touch the tree,
// they only carry data that is checked against the tab's generation.
type Tab struct {
	ID string

	mu       sync.Mutex
	tree     *gametree.Tree
	headers  *pgn.Headers
	current  gametree.Path
	sessions map[string]*Session // keyed by engine id
	solver   *puzzle.Solver

	generation atomic.Uint64
}

// NewTab wraps a parsed game in a tab positioned at the root.
func NewTab(id string, tree *gametree.Tree, headers *pgn.Headers) *Tab {
	if headers == nil {
		headers = pgn.NewHeaders()
	}
	return &Tab{
		ID:       id,
		tree:     tree,
		headers:  headers,
		current:  gametree.Root,
		sessions: map[string]*Session{},
	}
}

// Generation returns the tab's current analysis generation.
func (t *Tab) Generation() uint64 { return t.generation.Load() }

// Invalidate advances the generation without moving the position.
// Restarting analysis goes through here so lines still in flight from
// the replaced session fail the generation check.
func (t *Tab) Invalidate() { t.generation.Add(1) }

// Accept reports whether an engine result still applies to this tab.
// Stale generations are the caller's cue to drop the result silently.
func (t *Tab) Accept(r EngineResult) bool {
	return r.Tab == t.ID && r.Generation == t.Generation()
}

// Headers returns the game's header bag.
func (t *Tab) Headers() *pgn.Headers { return t.headers }

// Current returns the FEN at the current position, the moves leading to
// it, and its path.
func (t *Tab) Current() (string, []string, gametree.Path) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLocked()
}

func (t *Tab) currentLocked() (string, []string, gametree.Path) {
	n, err := t.tree.NodeAt(t.current)
	if err != nil {
		// The current path is maintained across mutations; reaching here
		// is a bug, fall back to the root.
		t.current = gametree.Root
		n = t.tree.Root
	}
	line, _ := t.tree.LineTo(t.current)
	return n.FEN, line, t.current.Clone()
}

// Navigate moves the current position and invalidates outstanding
// analysis by bumping the generation.
func (t *Tab) Navigate(p gametree.Path) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.tree.NodeAt(p); err != nil {
		return err
	}
	t.current = p.Clone()
	t.generation.Add(1)
	return nil
}

// AddMove plays a move at the given location (append-or-reuse) and
// makes the resulting node current.
func (t *Tab) AddMove(p gametree.Path, move string) (gametree.Path, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, err := t.tree.AddMove(p, move)
	if err != nil {
		return nil, err
	}
	t.current = next
	t.generation.Add(1)
	return next.Clone(), nil
}

// DeleteNode removes a subtree; the parent becomes current so no stale
// path survives the mutation.
func (t *Tab) DeleteNode(p gametree.Path) (gametree.Path, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent, err := t.tree.DeleteNode(p)
	if err != nil {
		return nil, err
	}
	t.current = parent
	t.generation.Add(1)
	return parent.Clone(), nil
}

// PromoteVariation makes the node at p the first sibling and moves the
// current position onto it. When that lands on a different node than
// before, outstanding analysis is for the wrong position, so the
// generation advances; promoting the node already current leaves it
// alone.
func (t *Tab) PromoteVariation(p gametree.Path) (gametree.Path, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, prevErr := t.tree.NodeAt(t.current)
	promoted, err := t.tree.PromoteVariation(p)
	if err != nil {
		return nil, err
	}
	t.current = promoted
	if node, err := t.tree.NodeAt(promoted); err == nil {
		if prevErr != nil || node.ID != prev.ID {
			t.generation.Add(1)
		}
	}
	return promoted.Clone(), nil
}

// SetComment updates the comment at p.
func (t *Tab) SetComment(p gametree.Path, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.SetComment(p, text)
}

// SetAnnotation updates the annotation at p.
func (t *Tab) SetAnnotation(p gametree.Path, tag gametree.Annotation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.SetAnnotation(p, tag)
}

// ReadTree runs fn with the tree and current path under the tab lock.
// fn must not retain either past the call.
func (t *Tab) ReadTree(fn func(tree *gametree.Tree, current gametree.Path)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.tree, t.current)
}

// StartPuzzle begins a puzzle attempt at the current position.
func (t *Tab) StartPuzzle(r puzzle.Rules, solution []string, policy puzzle.AdvancePolicy) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.solver = puzzle.New(r, t.tree, t.current, solution, policy)
}

// PuzzleMove feeds one user move to the active puzzle.
func (t *Tab) PuzzleMove(move string) (puzzle.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.solver == nil {
		return puzzle.Outcome{}, ErrNoPuzzle
	}
	out, err := t.solver.TryMove(move)
	if err == nil && !out.PendingPromotion {
		t.current = out.Path
		t.generation.Add(1)
	}
	return out, err
}

// PuzzlePromotion completes a held promotion move.
func (t *Tab) PuzzlePromotion(piece string) (puzzle.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.solver == nil {
		return puzzle.Outcome{}, ErrNoPuzzle
	}
	out, err := t.solver.ChoosePromotion(piece)
	if err == nil && !out.PendingPromotion {
		t.current = out.Path
		t.generation.Add(1)
	}
	return out, err
}

func (t *Tab) setSession(engineID string, s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[engineID] = s
}

func (t *Tab) takeSession(engineID string) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.sessions[engineID]
	delete(t.sessions, engineID)
	return s
}

func (t *Tab) runningEngines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for id, s := range t.sessions {
		if st := s.State(); st != StateStopped && st != StateErrored {
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *Tab) allSessions() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	return out
}
