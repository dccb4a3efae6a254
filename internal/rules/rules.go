// Package rules is the boundary to the chess rules library. Nothing
// outside this package touches move legality, notation, or board state;
// callers hand FEN strings and move text across and get FEN strings back.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	// ErrIllegalMove marks a move the rules engine rejects at a position.
	ErrIllegalMove = errors.New("illegal move")
	// ErrBadPosition marks an unparseable FEN.
	ErrBadPosition = errors.New("bad position")
)

// Engine is the rules capability the rest of the system consumes.
type Engine interface {
	// ApplyMove applies a move (SAN or UCI) to a position, returning the
	// resulting FEN and the canonical SAN of the move.
	ApplyMove(fen, move string) (newFEN, san string, err error)
	// LegalMoves lists the legal moves at a position in canonical SAN.
	LegalMoves(fen string) ([]string, error)
	// IsCheckmate reports whether the side to move is checkmated.
	IsCheckmate(fen string) (bool, error)
	// NeedsPromotion reports whether the move is a pawn push to the last
	// rank that still lacks a promotion piece.
	NeedsPromotion(fen, move string) (bool, error)
}

// Std implements Engine on top of notnil/chess.
type Std struct{}

var _ Engine = Std{}

func gameAt(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	return chess.NewGame(opt), nil
}

var (
	sanNotation chess.AlgebraicNotation
	uciNotation chess.UCINotation
)

// decodeMove accepts SAN first, then long algebraic / UCI.
func decodeMove(pos *chess.Position, move string) (*chess.Move, error) {
	if m, err := sanNotation.Decode(pos, move); err == nil {
		return m, nil
	}
	m, err := uciNotation.Decode(pos, move)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (Std) ApplyMove(fen, move string) (string, string, error) {
	g, err := gameAt(fen)
	if err != nil {
		return "", "", err
	}
	pos := g.Position()
	m, err := decodeMove(pos, move)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrIllegalMove, move, err)
	}
	san := sanNotation.Encode(pos, m)
	if err := g.Move(m); err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrIllegalMove, move, err)
	}
	return g.Position().String(), san, nil
}

func (Std) LegalMoves(fen string) ([]string, error) {
	g, err := gameAt(fen)
	if err != nil {
		return nil, err
	}
	pos := g.Position()
	moves := g.ValidMoves()
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = sanNotation.Encode(pos, m)
	}
	return out, nil
}

func (Std) IsCheckmate(fen string) (bool, error) {
	g, err := gameAt(fen)
	if err != nil {
		return false, err
	}
	return g.Position().Status() == chess.Checkmate, nil
}

func (Std) NeedsPromotion(fen, move string) (bool, error) {
	g, err := gameAt(fen)
	if err != nil {
		return false, err
	}
	// Only bare from-to squares can be awaiting a piece; a move carrying
	// a promotion piece (e7e8q, e8=Q) is already complete. The squares
	// are checked against the legal moves, never just decoded: every
	// legal move on a promoting pair carries a promo piece, so a bare
	// pair matching one is held for the choice.
	fromTo := strings.ToLower(strings.TrimSpace(move))
	if len(fromTo) != 4 {
		return false, nil
	}
	for _, m := range g.ValidMoves() {
		if m.S1().String()+m.S2().String() == fromTo && m.Promo() != chess.NoPieceType {
			return true, nil
		}
	}
	return false, nil
}

// SideToMove reads the side-to-move field of a FEN ("w" or "b") without
// consulting the rules library; malformed strings default to white.
func SideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) >= 2 && fields[1] == "b" {
		return "b"
	}
	return "w"
}

// MoveNumber reads the fullmove counter of a FEN, defaulting to 1.
func MoveNumber(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1
	}
	n := 0
	for _, r := range fields[5] {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 1
	}
	return n
}
