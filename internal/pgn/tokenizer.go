// Package pgn turns PGN text into a typed token stream and builds game
// trees from it. Header resolution (including board orientation) happens
// once at parse time.
package pgn

import "strings"

type scanner struct {
	src  string
	pos  int
	line int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) next() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.next()
		default:
			return
		}
	}
}

// Tokenize lexes one PGN game into its flat token sequence.
func Tokenize(src string) ([]Token, error) {
	s := &scanner{src: src, line: 1}
	var tokens []Token

	for {
		s.skipSpace()
		if s.eof() {
			return tokens, nil
		}
		line := s.line
		switch c := s.peek(); {
		case c == '[':
			tok, err := s.scanHeader()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case c == '{':
			tok, err := s.scanComment()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case c == ';':
			tokens = append(tokens, s.scanLineComment())
		case c == '%':
			// Escape line, skipped whole.
			for !s.eof() && s.next() != '\n' {
			}
		case c == '(':
			s.next()
			tokens = append(tokens, Token{Kind: TokenVariationStart, Line: line})
		case c == ')':
			s.next()
			tokens = append(tokens, Token{Kind: TokenVariationEnd, Line: line})
		case c == '$':
			s.next()
			digits := s.scanWhile(isDigit)
			if digits == "" {
				return nil, parseErr(line, "$", "empty NAG")
			}
			tokens = append(tokens, Token{Kind: TokenNAG, Value: digits, Line: line})
		case c == '*':
			s.next()
			tokens = append(tokens, Token{Kind: TokenResult, Value: "*", Line: line})
		default:
			word := s.scanWhile(isWordByte)
			if word == "" {
				return nil, parseErr(line, string(c), "unexpected character")
			}
			tok, keep, err := classifyWord(word, line)
			if err != nil {
				return nil, err
			}
			if keep {
				tokens = append(tokens, tok)
			}
		}
	}
}

func (s *scanner) scanHeader() (Token, error) {
	line := s.line
	s.next() // consume '['
	s.skipSpace()
	tag := s.scanWhile(func(c byte) bool {
		return c != ' ' && c != '\t' && c != '"' && c != ']' && c != '\n'
	})
	if tag == "" {
		return Token{}, parseErr(line, "[", "header tag missing")
	}
	s.skipSpace()
	if s.eof() || s.peek() != '"' {
		return Token{}, parseErr(line, tag, "header value must be quoted")
	}
	s.next() // opening quote
	var val strings.Builder
	for {
		if s.eof() {
			return Token{}, parseErr(line, tag, "unterminated header value")
		}
		c := s.next()
		if c == '\\' && !s.eof() && (s.peek() == '"' || s.peek() == '\\') {
			val.WriteByte(s.next())
			continue
		}
		if c == '"' {
			break
		}
		val.WriteByte(c)
	}
	s.skipSpace()
	if s.eof() || s.next() != ']' {
		return Token{}, parseErr(line, tag, "header not closed")
	}
	return Token{Kind: TokenHeader, Tag: tag, Value: val.String(), Line: line}, nil
}

func (s *scanner) scanComment() (Token, error) {
	line := s.line
	s.next() // consume '{'
	start := s.pos
	for !s.eof() {
		if s.peek() == '}' {
			text := strings.TrimSpace(s.src[start:s.pos])
			s.next()
			return Token{Kind: TokenComment, Value: text, Line: line}, nil
		}
		s.next()
	}
	return Token{}, parseErr(line, "{", "unterminated comment")
}

func (s *scanner) scanLineComment() Token {
	line := s.line
	s.next() // consume ';'
	start := s.pos
	for !s.eof() && s.peek() != '\n' {
		s.next()
	}
	return Token{Kind: TokenComment, Value: strings.TrimSpace(s.src[start:s.pos]), Line: line}
}

func (s *scanner) scanWhile(pred func(byte) bool) string {
	start := s.pos
	for !s.eof() && pred(s.peek()) {
		s.next()
	}
	return s.src[start:s.pos]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordByte(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '(', ')', '{', '}', ';', '$', '[', ']':
		return false
	}
	return true
}

// classifyWord sorts a bare word into a move, a result, or a skipped
// move-number token.
func classifyWord(word string, line int) (Token, bool, error) {
	switch word {
	case "1-0", "0-1", "1/2-1/2":
		return Token{Kind: TokenResult, Value: word, Line: line}, true, nil
	}
	if isMoveNumber(word) {
		return Token{}, false, nil
	}
	san := strings.TrimRight(word, "!?")
	suffix := word[len(san):]
	if san == "" {
		return Token{}, false, parseErr(line, word, "not a move")
	}
	return Token{Kind: TokenMove, Value: san, Suffix: suffix, Line: line}, true, nil
}

// isMoveNumber matches "12.", "12...", and a bare "12".
func isMoveNumber(word string) bool {
	trimmed := strings.TrimRight(word, ".")
	if trimmed == "" {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if !isDigit(trimmed[i]) {
			return false
		}
	}
	return true
}
