package pgn

import (
	"strconv"
	"strings"

	"github.com/studychess/studychess/internal/gametree"
	"github.com/studychess/studychess/internal/rules"
)

// Game is the outcome of parsing one PGN game: the move tree, the
// resolved header bag, and the recorded result (if any).
type Game struct {
	Tree    *gametree.Tree
	Headers *Headers
	Result  string
}

// Parse tokenizes src and builds a game tree from it. Variations nest
// via the usual RAV rule: a parenthesized line is an alternative to the
// move just played. Nothing is committed on error; the caller gets the
// offending fragment in a *ParseError.
func Parse(src string, mover gametree.Mover) (*Game, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	headers := ResolveHeaders(tokens)

	startFEN := rules.StartingFEN
	if fen, ok := headers.Get("FEN"); ok {
		startFEN = fen
	}

	tree := gametree.New(startFEN, mover)
	game := &Game{Tree: tree, Headers: headers}

	cur := gametree.Root
	var stack []gametree.Path

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenHeader:
			// Already resolved.
		case TokenMove:
			next, err := tree.AddMove(cur, tok.Value)
			if err != nil {
				return nil, parseErr(tok.Line, tok.Value, "illegal move")
			}
			cur = next
			if tok.Suffix != "" {
				if a := gametree.Annotation(tok.Suffix); a.Valid() {
					tree.SetAnnotation(cur, a)
				}
			}
		case TokenComment:
			if err := tree.SetComment(cur, tok.Value); err != nil {
				return nil, parseErr(tok.Line, tok.Value, "comment out of place")
			}
		case TokenNAG:
			code, err := strconv.Atoi(tok.Value)
			if err != nil {
				return nil, parseErr(tok.Line, "$"+tok.Value, "bad NAG")
			}
			if a, ok := gametree.AnnotationFromNAG(code); ok {
				tree.SetAnnotation(cur, a)
			}
		case TokenVariationStart:
			if cur.IsRoot() {
				return nil, parseErr(tok.Line, "(", "variation before any move")
			}
			stack = append(stack, cur)
			cur = cur.Parent()
		case TokenVariationEnd:
			if len(stack) == 0 {
				return nil, parseErr(tok.Line, ")", "unbalanced variation close")
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		case TokenResult:
			game.Result = tok.Value
		}
	}
	if len(stack) != 0 {
		return nil, parseErr(0, "(", "unclosed variation")
	}
	return game, nil
}

// SplitGames cuts a multi-game PGN text into per-game chunks. A header
// line that follows movetext opens the next game.
func SplitGames(src string) []string {
	var games []string
	var buf strings.Builder
	sawMoves := false

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			games = append(games, s)
		}
		buf.Reset()
		sawMoves = false
	}

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && sawMoves {
			flush()
		} else if trimmed != "" && !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "%") {
			sawMoves = true
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()
	return games
}
