// Package themes classifies finished lines into training tags: game
// phase, endgame subtype, and mate patterns. Everything here is a pure
// function over a Context; no tree or I/O dependencies.
package themes

import "strings"

// Tag is a training-classification tag.
type Tag string

const (
	TagOpening    Tag = "opening"
	TagMiddlegame Tag = "middlegame"
	TagEndgame    Tag = "endgame"

	TagPawnEndgame         Tag = "pawnEndgame"
	TagRookEndgame         Tag = "rookEndgame"
	TagQueenEndgame        Tag = "queenEndgame"
	TagQueenAndRookEndgame Tag = "queenAndRookEndgame"
	TagBishopEndgame       Tag = "bishopEndgame"
	TagKnightEndgame       Tag = "knightEndgame"

	TagMate    Tag = "mate"
	TagMateIn1 Tag = "mateIn1"
	TagMateIn2 Tag = "mateIn2"
	TagMateIn3 Tag = "mateIn3"
	TagMateIn4 Tag = "mateIn4"
	TagMateIn5 Tag = "mateIn5"
)

var mateInTags = map[int]Tag{
	1: TagMateIn1, 2: TagMateIn2, 3: TagMateIn3, 4: TagMateIn4, 5: TagMateIn5,
}

// openingMoveLimit is the last move number still tagged as opening.
const openingMoveLimit = 12

// MoveEvent is one recorded move of the analyzed line.
type MoveEvent struct {
	Side string // "white" or "black"
	SAN  string
}

// Context carries everything a classification call needs. It is built
// fresh per call and never stored.
type Context struct {
	MoveNumber int
	Endgame    bool
	Mate       bool
	MateIn     int // explicit mate-in-N; 0 when not supplied
	FinalFEN   string
	Moves      []MoveEvent
}

// Classify unions the phase, endgame-subtype, mate, and registered
// pattern tags for one context.
func Classify(ctx Context) []Tag {
	tags := PhaseTags(ctx)
	if ctx.Endgame {
		tags = append(tags, EndgameTags(ctx.FinalFEN)...)
	}
	tags = append(tags, MateTags(ctx)...)
	for _, fn := range matePatterns {
		tags = append(tags, fn(ctx)...)
	}
	return tags
}

// PhaseTags tags the game phase. Opening and Endgame can legitimately
// coexist when material runs out early.
func PhaseTags(ctx Context) []Tag {
	var tags []Tag
	if ctx.MoveNumber <= openingMoveLimit {
		tags = append(tags, TagOpening)
	}
	if ctx.Endgame {
		tags = append(tags, TagEndgame)
	} else if ctx.MoveNumber > openingMoveLimit {
		tags = append(tags, TagMiddlegame)
	}
	return tags
}

// EndgameTags picks the endgame subtype from the piece placement of the
// final position. The exclusivity guards make the subtypes mutually
// exclusive.
func EndgameTags(finalFEN string) []Tag {
	c := countPieces(finalFEN)
	majors := c.queens + c.rooks
	minors := c.bishops + c.knights

	if majors == 0 && minors == 0 {
		return []Tag{TagPawnEndgame}
	}
	var tags []Tag
	switch {
	case c.rooks > 0 && c.queens == 0 && minors == 0:
		tags = append(tags, TagRookEndgame)
	case c.queens > 0 && c.rooks == 0 && minors == 0:
		tags = append(tags, TagQueenEndgame)
	case c.queens > 0 && c.rooks > 0 && minors == 0:
		tags = append(tags, TagQueenAndRookEndgame)
	}
	switch {
	case c.bishops > 0 && c.knights == 0 && majors == 0:
		tags = append(tags, TagBishopEndgame)
	case c.knights > 0 && c.bishops == 0 && majors == 0:
		tags = append(tags, TagKnightEndgame)
	}
	return tags
}

// MateTags tags mates. Without an explicit count, mate-in-N derives
// from how many moves the mating side made in the recorded line; counts
// outside 1..5 keep only the generic tag.
func MateTags(ctx Context) []Tag {
	if !ctx.Mate && ctx.MateIn == 0 {
		return nil
	}
	tags := []Tag{TagMate}
	count := ctx.MateIn
	if count == 0 {
		count = deriveMateMoves(ctx.Moves)
	}
	if tag, ok := mateInTags[count]; ok {
		tags = append(tags, tag)
	}
	return tags
}

func deriveMateMoves(moves []MoveEvent) int {
	if len(moves) == 0 {
		return 0
	}
	matingSide := moves[len(moves)-1].Side
	n := 0
	for _, mv := range moves {
		if mv.Side == matingSide {
			n++
		}
	}
	return n
}

type pieceCount struct {
	queens, rooks, bishops, knights int
}

// countPieces tallies both sides' pieces in the placement field,
// case-insensitively, ignoring digits and rank separators.
func countPieces(fen string) pieceCount {
	placement := fen
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		placement = fen[:i]
	}
	var c pieceCount
	for _, r := range strings.ToLower(placement) {
		switch r {
		case 'q':
			c.queens++
		case 'r':
			c.rooks++
		case 'b':
			c.bishops++
		case 'n':
			c.knights++
		}
	}
	return c
}

// IsEndgamePosition is the heuristic used to set Context.Endgame when
// no explicit flag is available: six or fewer pieces besides kings and
// pawns remain.
func IsEndgamePosition(fen string) bool {
	c := countPieces(fen)
	return c.queens+c.rooks+c.bishops+c.knights <= 6
}

// PatternFunc is the extension point for mate-pattern heuristics
// (back-rank, smothered, ...). None ship yet.
type PatternFunc func(Context) []Tag

var matePatterns []PatternFunc

// RegisterMatePattern adds a pattern heuristic consulted by Classify.
func RegisterMatePattern(fn PatternFunc) {
	matePatterns = append(matePatterns, fn)
}
