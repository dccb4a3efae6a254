package gametree

import (
	"errors"
	"fmt"
	"testing"
)

// fakeMover records positions as "start;e4;e5;..." so tests can assert
// the position invariant without a real rules engine.
type fakeMover struct{}

func (fakeMover) ApplyMove(fen, move string) (string, string, error) {
	if move == "illegal" {
		return "", "", errors.New("no such move")
	}
	return fen + ";" + move, move, nil
}

func newTestTree() *Tree {
	return New("start", fakeMover{})
}

func TestAddMove_PositionInvariant(t *testing.T) {
	tr := newTestTree()
	p, err := tr.AddMove(Root, "e4")
	if err != nil {
		t.Fatalf("AddMove: %v", err)
	}
	n, err := tr.NodeAt(p)
	if err != nil {
		t.Fatalf("NodeAt(%v): %v", p, err)
	}
	if n.FEN != "start;e4" {
		t.Errorf("position = %q, want result of applying e4 to the parent", n.FEN)
	}
	if n.Move != "e4" {
		t.Errorf("move = %q", n.Move)
	}
}

func TestAddMove_ReusesExistingChild(t *testing.T) {
	tr := newTestTree()
	p1, _ := tr.AddMove(Root, "e4")
	p2, err := tr.AddMove(Root, "e4")
	if err != nil {
		t.Fatalf("AddMove: %v", err)
	}
	if !p1.Equal(p2) {
		t.Errorf("same move twice gave paths %v and %v", p1, p2)
	}
	if got := len(tr.Root.Children); got != 1 {
		t.Errorf("expected 1 child, got %d", got)
	}
}

func TestAddMove_AppendsVariationLast(t *testing.T) {
	tr := newTestTree()
	tr.AddMove(Root, "e4")
	p, _ := tr.AddMove(Root, "d4")
	if !p.Equal(Path{1}) {
		t.Errorf("variation path = %v, want [1]", p)
	}
}

func TestAddMove_IllegalMove(t *testing.T) {
	tr := newTestTree()
	_, err := tr.AddMove(Root, "illegal")
	if !errors.Is(err, ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
	if len(tr.Root.Children) != 0 {
		t.Error("tree must be unchanged after a rejected move")
	}
}

func TestDeleteNode_RenumbersSiblings(t *testing.T) {
	tr := newTestTree()
	tr.AddMove(Root, "e4")
	tr.AddMove(Root, "d4")
	tr.AddMove(Root, "c4")

	back, err := tr.DeleteNode(Path{1})
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if !back.IsRoot() {
		t.Errorf("returned path = %v, want root", back)
	}
	if len(tr.Root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tr.Root.Children))
	}
	if tr.Root.Children[1].Move != "c4" {
		t.Errorf("sibling above the deleted index must shift down, got %q", tr.Root.Children[1].Move)
	}
}

func TestDeleteNode_RootAndStalePaths(t *testing.T) {
	tr := newTestTree()
	if _, err := tr.DeleteNode(Root); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("deleting root: err = %v, want ErrInvalidPath", err)
	}
	tr.AddMove(Root, "e4")
	if _, err := tr.DeleteNode(Path{5}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("stale index: err = %v, want ErrInvalidPath", err)
	}
}

func TestPromoteVariation(t *testing.T) {
	tr := newTestTree()
	tr.AddMove(Root, "e4")
	tr.AddMove(Root, "d4")
	tr.AddMove(Root, "c4")

	p, err := tr.PromoteVariation(Path{2})
	if err != nil {
		t.Fatalf("PromoteVariation: %v", err)
	}
	if !p.Equal(Path{0}) {
		t.Errorf("promoted path = %v, want [0]", p)
	}
	var order []string
	for _, c := range tr.Root.Children {
		order = append(order, c.Move)
	}
	want := fmt.Sprint([]string{"c4", "e4", "d4"})
	if fmt.Sprint(order) != want {
		t.Errorf("sibling order = %v, want %v", order, want)
	}
}

func TestSetAnnotation_Idempotent(t *testing.T) {
	tr := newTestTree()
	p, _ := tr.AddMove(Root, "e4")
	if err := tr.SetAnnotation(p, AnnotationGood); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetAnnotation(p, AnnotationGood); err != nil {
		t.Fatal(err)
	}
	n, _ := tr.NodeAt(p)
	if n.Annotation != AnnotationGood {
		t.Errorf("annotation = %q", n.Annotation)
	}

	// A later tag replaces, never accumulates.
	tr.SetAnnotation(p, AnnotationBlunder)
	n, _ = tr.NodeAt(p)
	if n.Annotation != AnnotationBlunder {
		t.Errorf("annotation = %q, want replacement", n.Annotation)
	}
}

func TestSetAnnotation_RejectsUnknownTag(t *testing.T) {
	tr := newTestTree()
	p, _ := tr.AddMove(Root, "e4")
	if err := tr.SetAnnotation(p, Annotation("???")); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestFindByID_SurvivesMutation(t *testing.T) {
	tr := newTestTree()
	tr.AddMove(Root, "e4")
	p, _ := tr.AddMove(Root, "d4")
	n, _ := tr.NodeAt(p)

	// Promotion changes the node's path but not its identity.
	tr.PromoteVariation(p)
	found, ok := tr.FindByID(n.ID)
	if !ok {
		t.Fatal("node not found by ID after promotion")
	}
	if !found.Equal(Path{0}) {
		t.Errorf("path after promotion = %v, want [0]", found)
	}
}

func TestLineTo(t *testing.T) {
	tr := newTestTree()
	p, _ := tr.AddMove(Root, "e4")
	p, _ = tr.AddMove(p, "e5")
	moves, err := tr.LineTo(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 2 || moves[0] != "e4" || moves[1] != "e5" {
		t.Errorf("line = %v", moves)
	}
	if got := tr.MainLine(); len(got) != 2 {
		t.Errorf("mainline = %v", got)
	}
}
