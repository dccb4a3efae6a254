package puzzle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studychess/studychess/internal/gametree"
)

// stubRules accepts every move, encodes positions as move history, and
// treats any move ending in '#' as delivering checkmate.
type stubRules struct{}

func (stubRules) ApplyMove(fen, move string) (string, string, error) {
	if move == "bad" {
		return "", "", errors.New("illegal")
	}
	return fen + ";" + move, move, nil
}

func (stubRules) IsCheckmate(fen string) (bool, error) {
	return len(fen) > 0 && fen[len(fen)-1] == '#', nil
}

func (stubRules) NeedsPromotion(fen, move string) (bool, error) {
	return move == "e7e8", nil
}

func newSolver(t *testing.T, solution []string, policy AdvancePolicy) (*Solver, *gametree.Tree) {
	t.Helper()
	tree := gametree.New("start", stubRules{})
	return New(stubRules{}, tree, gametree.Root, solution, policy), tree
}

func TestTryMove_CorrectAdvancesByTwo(t *testing.T) {
	s, _ := newSolver(t, []string{"Nf3", "Nc6", "Bb5"}, AdvanceOff)

	out, err := s.TryMove("Nf3")
	require.NoError(t, err)
	require.Equal(t, StatusAwaitingMove, out.Status)
	require.Equal(t, "Nc6", out.Reply, "the scripted reply auto-plays")
	require.Equal(t, 2, out.SolvedIndex)
	require.Equal(t, gametree.Path{0, 0}, out.Path)
}

func TestTryMove_FinalMoveCompletes(t *testing.T) {
	s, _ := newSolver(t, []string{"Qa8"}, AdvanceOnSuccess)

	out, err := s.TryMove("Qa8")
	require.NoError(t, err)
	require.Equal(t, StatusCorrect, out.Status)
	require.Empty(t, out.Reply)
	require.True(t, out.Advance)
}

func TestTryMove_MatingMoveAcceptedOverCanonical(t *testing.T) {
	s, _ := newSolver(t, []string{"Qa8"}, AdvanceOff)

	// A different move that delivers mate still counts.
	out, err := s.TryMove("Qh1#")
	require.NoError(t, err)
	require.Equal(t, StatusCorrect, out.Status)
}

func TestTryMove_EarlyMateEndsPuzzle(t *testing.T) {
	s, tree := newSolver(t, []string{"Qh1", "Kg8", "Qa8"}, AdvanceOnSuccess)

	// Mate on the first ply, with two scripted plies still unplayed. The
	// opponent cannot reply from a mated position, so the puzzle ends
	// here instead of forcing the script.
	out, err := s.TryMove("Qxf7#")
	require.NoError(t, err)
	require.Equal(t, StatusCorrect, out.Status)
	require.Empty(t, out.Reply)
	require.True(t, out.Advance)

	require.Len(t, tree.Root.Children, 1)
	require.Equal(t, "Qxf7#", tree.Root.Children[0].Move)
}

func TestTryMove_WrongMoveStillPlayed(t *testing.T) {
	s, tree := newSolver(t, []string{"Nf3", "Nc6"}, AdvanceOff)

	out, err := s.TryMove("a3")
	require.NoError(t, err)
	require.Equal(t, StatusIncorrect, out.Status)
	require.Equal(t, 0, out.SolvedIndex, "solved index must not advance")
	require.False(t, out.Advance)

	// Visible and undoable: the move is in the tree.
	n, err := tree.NodeAt(gametree.Path{0})
	require.NoError(t, err)
	require.Equal(t, "a3", n.Move)

	// Status is fixed at the first wrong move; later moves still play
	// but are not re-evaluated.
	out, err = s.TryMove("Nf3")
	require.NoError(t, err)
	require.Equal(t, StatusIncorrect, out.Status)
	require.Equal(t, 0, out.SolvedIndex)
}

func TestTryMove_WrongMoveAdvanceAlways(t *testing.T) {
	s, _ := newSolver(t, []string{"Nf3"}, AdvanceAlways)
	out, err := s.TryMove("a3")
	require.NoError(t, err)
	require.Equal(t, StatusIncorrect, out.Status)
	require.True(t, out.Advance, "always policy advances on failure too")
}

func TestTryMove_IllegalMoveIsNoOp(t *testing.T) {
	s, tree := newSolver(t, []string{"Nf3"}, AdvanceOff)
	_, err := s.TryMove("bad")
	require.Error(t, err)
	require.Equal(t, StatusAwaitingMove, s.Status())
	require.Empty(t, tree.Root.Children)
}

func TestPromotionHeldUntilChosen(t *testing.T) {
	s, tree := newSolver(t, []string{"e7e8q"}, AdvanceOff)

	out, err := s.TryMove("e7e8")
	require.NoError(t, err)
	require.True(t, out.PendingPromotion)
	require.Empty(t, tree.Root.Children, "held move must not reach the tree")

	out, err = s.ChoosePromotion("Q")
	require.NoError(t, err)
	require.Equal(t, StatusCorrect, out.Status)

	_, err = s.ChoosePromotion("q")
	require.ErrorIs(t, err, ErrNoPendingPromotion)
}
