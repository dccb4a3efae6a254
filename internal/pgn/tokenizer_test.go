package pgn

import (
	"errors"
	"testing"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_HeadersAndMoves(t *testing.T) {
	src := `[Event "Test Match"]
[White "Carlsen, Magnus"]

1. e4 e5 2. Nf3 1-0
`
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []TokenKind{
		TokenHeader, TokenHeader,
		TokenMove, TokenMove, TokenMove, TokenResult,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
	if tokens[0].Tag != "Event" || tokens[0].Value != "Test Match" {
		t.Errorf("header = %+v", tokens[0])
	}
	if tokens[2].Value != "e4" {
		t.Errorf("first move = %q", tokens[2].Value)
	}
	if tokens[5].Value != "1-0" {
		t.Errorf("result = %q", tokens[5].Value)
	}
}

func TestTokenize_CommentsVariationsNAGs(t *testing.T) {
	src := `1. e4 {king pawn} e5 (1... c5 $2) 2. Nf3!? *`
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []TokenKind{
		TokenMove, TokenComment, TokenMove,
		TokenVariationStart, TokenMove, TokenNAG, TokenVariationEnd,
		TokenMove, TokenResult,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
	if tokens[1].Value != "king pawn" {
		t.Errorf("comment = %q", tokens[1].Value)
	}
	if tokens[5].Value != "2" {
		t.Errorf("nag = %q", tokens[5].Value)
	}
	if tokens[7].Value != "Nf3" || tokens[7].Suffix != "!?" {
		t.Errorf("suffixed move = %+v", tokens[7])
	}
}

func TestTokenize_EscapedQuoteInHeader(t *testing.T) {
	tokens, err := Tokenize(`[Event "The \"Big\" One"]`)
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Value != `The "Big" One` {
		t.Errorf("value = %q", tokens[0].Value)
	}
}

func TestTokenize_Malformed(t *testing.T) {
	cases := []string{
		`[Event "unterminated]`,
		`1. e4 {never closed`,
		`1. e4 $`,
	}
	for _, src := range cases {
		_, err := Tokenize(src)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Tokenize(%q): err = %v, want *ParseError", src, err)
		}
	}
}

func TestTokenize_ReportsLine(t *testing.T) {
	_, err := Tokenize("[Event \"ok\"]\n[Bad \"oops]\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v", err)
	}
	if perr.Line != 2 {
		t.Errorf("line = %d, want 2", perr.Line)
	}
}
