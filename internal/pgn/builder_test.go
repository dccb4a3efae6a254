package pgn

import (
	"errors"
	"strings"
	"testing"

	"github.com/studychess/studychess/internal/gametree"
)

// chainMover accepts any move and encodes the position as the move
// history, which keeps builder tests independent of the rules library.
type chainMover struct{}

func (chainMover) ApplyMove(fen, move string) (string, string, error) {
	if strings.HasPrefix(move, "Z") {
		return "", "", errors.New("rejected")
	}
	return fen + ";" + move, move, nil
}

func TestParse_Mainline(t *testing.T) {
	game, err := Parse(`[Event "x"]

1. e4 e5 2. Nf3 Nc6 1-0`, chainMover{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	main := game.Tree.MainLine()
	want := []string{"e4", "e5", "Nf3", "Nc6"}
	if len(main) != len(want) {
		t.Fatalf("mainline = %v", main)
	}
	for i := range want {
		if main[i] != want[i] {
			t.Fatalf("mainline = %v, want %v", main, want)
		}
	}
	if game.Result != "1-0" {
		t.Errorf("result = %q", game.Result)
	}
}

func TestParse_VariationBranches(t *testing.T) {
	game, err := Parse(`1. e4 e5 (1... c5 2. Nf3) 2. Bc4 *`, chainMover{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := game.Tree.Root
	if len(root.Children) != 1 {
		t.Fatalf("root children = %d", len(root.Children))
	}
	after1e4 := root.Children[0]
	if len(after1e4.Children) != 2 {
		t.Fatalf("expected mainline reply and one variation, got %d", len(after1e4.Children))
	}
	if after1e4.Children[0].Move != "e5" || after1e4.Children[1].Move != "c5" {
		t.Errorf("children = %q, %q", after1e4.Children[0].Move, after1e4.Children[1].Move)
	}
	// The variation continues below c5.
	if len(after1e4.Children[1].Children) != 1 || after1e4.Children[1].Children[0].Move != "Nf3" {
		t.Error("variation continuation missing")
	}
	// The mainline resumes after the variation closes.
	if len(after1e4.Children[0].Children) != 1 || after1e4.Children[0].Children[0].Move != "Bc4" {
		t.Error("mainline continuation missing after variation")
	}
}

func TestParse_CommentsAndAnnotations(t *testing.T) {
	game, err := Parse(`1. e4 {best by test} e5?! 2. Nf3 $2 *`, chainMover{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, err := game.Tree.NodeAt(gametree.Path{0})
	if err != nil {
		t.Fatal(err)
	}
	if n.Comment != "best by test" {
		t.Errorf("comment = %q", n.Comment)
	}
	n, _ = game.Tree.NodeAt(gametree.Path{0, 0})
	if n.Annotation != gametree.AnnotationDubious {
		t.Errorf("suffix annotation = %q", n.Annotation)
	}
	n, _ = game.Tree.NodeAt(gametree.Path{0, 0, 0})
	if n.Annotation != gametree.AnnotationMistake {
		t.Errorf("NAG annotation = %q", n.Annotation)
	}
}

func TestParse_CustomStartFromFENHeader(t *testing.T) {
	game, err := Parse(`[FEN "8/8/8/8/8/8/8/K6k w - - 0 40"]

1. Ka2 *`, chainMover{})
	if err != nil {
		t.Fatal(err)
	}
	if game.Tree.Root.FEN != "8/8/8/8/8/8/8/K6k w - - 0 40" {
		t.Errorf("root FEN = %q", game.Tree.Root.FEN)
	}
	if game.Tree.Root.Move != "" {
		t.Error("root must carry no move")
	}
}

func TestParse_ErrorsAbortWhole(t *testing.T) {
	cases := []string{
		`1. e4 (2. d4`,        // unclosed variation
		`(1. e4) *`,           // variation before any move
		`1. Zz *`,             // rejected by rules
		`1. e4 ) *`,           // unbalanced close
	}
	for _, src := range cases {
		game, err := Parse(src, chainMover{})
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Parse(%q): err = %v, want *ParseError", src, err)
		}
		if game != nil {
			t.Errorf("Parse(%q): partial game must not be returned", src)
		}
	}
}

func TestSplitGames(t *testing.T) {
	src := `[Event "one"]

1. e4 e5 1-0

[Event "two"]
[White "B"]

1. d4 *
`
	games := SplitGames(src)
	if len(games) != 2 {
		t.Fatalf("split into %d games, want 2", len(games))
	}
	if !strings.Contains(games[0], `"one"`) || !strings.Contains(games[1], `"two"`) {
		t.Errorf("bad split: %q / %q", games[0], games[1])
	}
}
