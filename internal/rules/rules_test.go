package rules

import (
	"errors"
	"strings"
	"testing"
)

func TestApplyMove_SANAndUCI(t *testing.T) {
	var e Std
	fen1, san, err := e.ApplyMove(StartingFEN, "e4")
	if err != nil {
		t.Fatalf("ApplyMove(e4): %v", err)
	}
	if san != "e4" {
		t.Errorf("san = %q", san)
	}
	if SideToMove(fen1) != "b" {
		t.Errorf("side to move after e4 = %q, want b", SideToMove(fen1))
	}

	// Same move in UCI coordinates normalizes to the same SAN.
	fen2, san2, err := e.ApplyMove(StartingFEN, "e2e4")
	if err != nil {
		t.Fatalf("ApplyMove(e2e4): %v", err)
	}
	if san2 != san || fen2 != fen1 {
		t.Errorf("UCI form gave (%q,%q), SAN form gave (%q,%q)", san2, fen2, san, fen1)
	}
}

func TestApplyMove_Illegal(t *testing.T) {
	var e Std
	if _, _, err := e.ApplyMove(StartingFEN, "e5"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
	if _, _, err := e.ApplyMove("not a fen", "e4"); !errors.Is(err, ErrBadPosition) {
		t.Errorf("err = %v, want ErrBadPosition", err)
	}
}

func TestLegalMoves_StartCount(t *testing.T) {
	var e Std
	moves, err := e.LegalMoves(StartingFEN)
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 20 {
		t.Errorf("start position has %d legal moves, want 20", len(moves))
	}
}

func TestIsCheckmate(t *testing.T) {
	var e Std
	// Fool's mate final position, white to move and mated.
	mated := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	ok, err := e.IsCheckmate(mated)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected checkmate")
	}
	ok, err = e.IsCheckmate(StartingFEN)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("start position is not checkmate")
	}
}

func TestNeedsPromotion(t *testing.T) {
	var e Std
	// White pawn on e7, free to promote.
	fen := "8/4P2k/8/8/8/8/8/4K3 w - - 0 1"
	pending, err := e.NeedsPromotion(fen, "e7e8")
	if err != nil {
		t.Fatal(err)
	}
	if !pending {
		t.Error("e7e8 without a piece must await a promotion choice")
	}
	pending, err = e.NeedsPromotion(fen, "e7e8q")
	if err != nil {
		t.Fatal(err)
	}
	if pending {
		t.Error("a complete promotion move is not pending")
	}

	// A last-rank move by anything but a pawn never awaits a piece.
	rookFEN := "8/4R2k/8/8/8/8/8/4K3 w - - 0 1"
	pending, err = e.NeedsPromotion(rookFEN, "e7e8")
	if err != nil {
		t.Fatal(err)
	}
	if pending {
		t.Error("a rook lift to the last rank is not a promotion")
	}

	// The chosen promotion applies cleanly.
	_, san, err := e.ApplyMove(fen, "e7e8q")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(san, "e8=Q") {
		t.Errorf("promotion san = %q", san)
	}
}

func TestMoveNumber(t *testing.T) {
	if n := MoveNumber(StartingFEN); n != 1 {
		t.Errorf("MoveNumber = %d", n)
	}
	if n := MoveNumber("8/8/8/8/8/8/8/K6k w - - 0 42"); n != 42 {
		t.Errorf("MoveNumber = %d", n)
	}
	if n := MoveNumber("garbage"); n != 1 {
		t.Errorf("MoveNumber on garbage = %d, want fallback 1", n)
	}
}
