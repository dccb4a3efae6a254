// Package puzzle drives the practice state machine: the user's moves
// are checked against an expected solution line, scripted replies are
// auto-played, and a configured policy decides auto-advance.
package puzzle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studychess/studychess/internal/gametree"
)

// Status of one puzzle attempt.
type Status string

const (
	StatusAwaitingMove Status = "awaitingMove"
	StatusCorrect      Status = "correct"
	StatusIncorrect    Status = "incorrect"
)

// AdvancePolicy decides whether a finished puzzle advances to the next.
type AdvancePolicy string

const (
	AdvanceOff       AdvancePolicy = "off"
	AdvanceOnSuccess AdvancePolicy = "onSuccess"
	AdvanceAlways    AdvancePolicy = "always"
)

// ErrNoPendingPromotion is returned when a promotion choice arrives
// without a held pawn move.
var ErrNoPendingPromotion = errors.New("no pending promotion")

// Rules is the slice of the rules boundary the solver needs.
type Rules interface {
	ApplyMove(fen, move string) (newFEN, san string, err error)
	IsCheckmate(fen string) (bool, error)
	NeedsPromotion(fen, move string) (bool, error)
}

// Outcome reports the effect of one user move.
type Outcome struct {
	Status           Status
	Path             gametree.Path // current location after any moves played
	Reply            string        // SAN of the auto-played reply, if any
	SolvedIndex      int
	PendingPromotion bool
	Advance          bool // move on to the next puzzle, per policy
}

// Solver holds one puzzle attempt against a game tree. The solution is
// an ordered SAN line starting with the user's side to move.
type Solver struct {
	rules    Rules
	tree     *gametree.Tree
	cur      gametree.Path
	solution []string
	solved   int
	status   Status
	policy   AdvancePolicy
	pending  string // pawn move held until a promotion piece is chosen
}

// New starts a puzzle at the given tree location.
func New(r Rules, tree *gametree.Tree, at gametree.Path, solution []string, policy AdvancePolicy) *Solver {
	return &Solver{
		rules:    r,
		tree:     tree,
		cur:      at.Clone(),
		solution: solution,
		status:   StatusAwaitingMove,
		policy:   policy,
	}
}

// Status returns the attempt status.
func (s *Solver) Status() Status { return s.status }

// SolvedIndex returns how many solution plies have been matched.
func (s *Solver) SolvedIndex() int { return s.solved }

// Path returns the current tree location.
func (s *Solver) Path() gametree.Path { return s.cur.Clone() }

// TryMove plays one user move. The move always lands in the tree (so it
// stays visible and undoable); only while the attempt is still awaiting
// does it get matched against the solution. A wrong move fixes the
// status at Incorrect once; later moves are played but not re-evaluated.
func (s *Solver) TryMove(move string) (Outcome, error) {
	node, err := s.tree.NodeAt(s.cur)
	if err != nil {
		return Outcome{}, err
	}

	if pending, err := s.rules.NeedsPromotion(node.FEN, move); err == nil && pending {
		s.pending = move
		return s.outcome("", false, true), nil
	}

	newFEN, san, err := s.rules.ApplyMove(node.FEN, move)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w", err)
	}

	s.cur, err = s.tree.AddMove(s.cur, san)
	if err != nil {
		return Outcome{}, err
	}

	if s.status != StatusAwaitingMove || s.solved >= len(s.solution) {
		return s.outcome("", false, false), nil
	}

	expected := s.solution[s.solved]
	mate, _ := s.rules.IsCheckmate(newFEN)
	if san != expected && !mate {
		s.status = StatusIncorrect
		return s.outcome("", s.policy == AdvanceAlways, false), nil
	}

	// Accepted. The final expected move ends the puzzle, and so does a
	// checkmate delivered early: the opponent has no scripted reply left
	// to play from a mated position.
	if s.solved == len(s.solution)-1 || mate {
		s.solved++
		s.status = StatusCorrect
		return s.outcome("", s.policy != AdvanceOff, false), nil
	}

	// Auto-play the scripted opponent reply and advance past both plies.
	reply := s.solution[s.solved+1]
	s.cur, err = s.tree.AddMove(s.cur, reply)
	if err != nil {
		return Outcome{}, fmt.Errorf("scripted reply %q: %w", reply, err)
	}
	s.solved += 2
	if s.solved >= len(s.solution) {
		s.status = StatusCorrect
		return s.outcome(reply, s.policy != AdvanceOff, false), nil
	}
	return s.outcome(reply, false, false), nil
}

// ChoosePromotion completes a held pawn move with the chosen piece
// (q, r, b, or n) and checks it like any other move.
func (s *Solver) ChoosePromotion(piece string) (Outcome, error) {
	if s.pending == "" {
		return Outcome{}, ErrNoPendingPromotion
	}
	move := s.pending + strings.ToLower(strings.TrimSpace(piece))
	s.pending = ""
	return s.TryMove(move)
}

func (s *Solver) outcome(reply string, advance, pendingPromo bool) Outcome {
	return Outcome{
		Status:           s.status,
		Path:             s.cur.Clone(),
		Reply:            reply,
		SolvedIndex:      s.solved,
		PendingPromotion: pendingPromo,
		Advance:          advance,
	}
}
