package pgn

import "fmt"

// TokenKind classifies a lexical token of a PGN game.
type TokenKind int

const (
	TokenHeader TokenKind = iota
	TokenMove
	TokenComment
	TokenNAG
	TokenVariationStart
	TokenVariationEnd
	TokenResult
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	names := []string{
		"HEADER", "MOVE", "COMMENT", "NAG",
		"VARIATION_START", "VARIATION_END", "RESULT",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "UNKNOWN"
}

// Token is one typed element of the flat token stream.
type Token struct {
	Kind   TokenKind
	Tag    string // header tag name
	Value  string // header value, move SAN, comment text, NAG digits, result
	Suffix string // trailing !/? marks carried by a move ("!", "??", "!?", ...)
	Line   int    // 1-based source line
}

// ParseError reports malformed PGN input together with the offending
// fragment and its line.
type ParseError struct {
	Line     int
	Fragment string
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("pgn: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("pgn: line %d: %s near %q", e.Line, e.Msg, e.Fragment)
}

func parseErr(line int, fragment, msg string) error {
	return &ParseError{Line: line, Fragment: fragment, Msg: msg}
}
