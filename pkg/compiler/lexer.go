package compiler

import (
	"fmt"
	"log/slog"
	"unicode"
)

// Scanner holds all mutable state for a single scanning pass over src.
// Tokens are produced on demand by Next; the cursor never moves backwards.
type Scanner struct {
	src    []rune
	pos    int // index of the next rune to consume
	line   int // current 1-based source line
	col    int // 1-based column of src[pos]
	onDiag DiagnosticHandler
}

// NewScanner returns a Scanner over src. Warnings for skipped characters go
// to onDiag; a nil handler sends them to the default slog logger.
func NewScanner(src string, onDiag DiagnosticHandler) *Scanner {
	if onDiag == nil {
		onDiag = logDiagnostics(slog.Default())
	}
	return &Scanner{src: []rune(src), line: 1, col: 1, onDiag: onDiag}
}

// peek returns the rune at the current position without advancing.
func (s *Scanner) peek() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (s *Scanner) peek2() rune {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

// advance consumes one rune and returns it.
func (s *Scanner) advance() rune {
	if s.pos >= len(s.src) {
		return 0
	}
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *Scanner) atEnd() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) skipWhitespace() {
	for !s.atEnd() && unicode.IsSpace(s.peek()) {
		s.advance()
	}
}

// skipLineComment discards everything up to and including the next newline.
// The opening "//" must already have been consumed.
func (s *Scanner) skipLineComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
	if s.peek() == '\n' {
		s.advance()
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at s.peek().
func (s *Scanner) scanIdent() Token {
	line, col := s.line, s.col
	start := s.pos
	for !s.atEnd() && (isLetter(s.peek()) || isDigit(s.peek())) {
		s.advance()
	}
	lexeme := string(s.src[start:s.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Column: col}
}

// scanNumber collects a run of decimal digits. There is no sign, radix
// prefix or fraction; the value is always a non-negative literal.
func (s *Scanner) scanNumber() Token {
	line, col := s.line, s.col
	start := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	return Token{Type: NUMBER, Lexeme: string(s.src[start:s.pos]), Line: line, Column: col}
}

func (s *Scanner) warn(ch rune, line, col int, format string, args ...any) {
	s.onDiag(Diagnostic{Line: line, Column: col, Char: ch, Message: fmt.Sprintf(format, args...)})
}

// Next skips whitespace and comments and returns the next Token. Unknown
// characters and a lone '!' are reported and skipped, and scanning carries on.
// At end of input every call returns EOF.
func (s *Scanner) Next() Token {
	for {
		s.skipWhitespace()
		if s.atEnd() {
			return Token{Type: EOF, Line: s.line, Column: s.col}
		}
		if s.peek() == '/' && s.peek2() == '/' {
			s.advance()
			s.advance()
			s.skipLineComment()
			continue
		}

		ch := s.peek()
		line, col := s.line, s.col

		if isLetter(ch) {
			return s.scanIdent()
		}
		if isDigit(ch) {
			return s.scanNumber()
		}

		tok := func(tt TokenType, lexeme string) Token {
			return Token{Type: tt, Lexeme: lexeme, Line: line, Column: col}
		}

		s.advance() // consume the character before the switch
		switch ch {
		case '{':
			return tok(LBRACE, "{")
		case '}':
			return tok(RBRACE, "}")
		case '(':
			return tok(LPAREN, "(")
		case ')':
			return tok(RPAREN, ")")
		case ';':
			return tok(SEMICOLON, ";")
		case '+':
			return tok(PLUS, "+")
		case '-':
			return tok(MINUS, "-")
		case '*':
			return tok(STAR, "*")
		case '/':
			return tok(SLASH, "/")
		case '=':
			if s.peek() == '=' { // lookahead: distinguish = vs ==
				s.advance()
				return tok(EQUALS, "==")
			}
			return tok(ASSIGN, "=")
		case '>':
			if s.peek() == '=' {
				s.advance()
				return tok(GREATER_EQ, ">=")
			}
			return tok(GREATER, ">")
		case '<':
			if s.peek() == '=' {
				s.advance()
				return tok(LESS_EQ, "<=")
			}
			return tok(LESS, "<")
		case '!':
			if s.peek() == '=' {
				s.advance()
				return tok(NOT_EQ, "!=")
			}
			s.warn(ch, line, col, "unexpected operator %q", ch)
		default:
			s.warn(ch, line, col, "unknown character %q", ch)
		}
	}
}

// Tokenize scans src to completion and returns all tokens including the
// final EOF token, along with any warnings produced on the way.
func Tokenize(src string) ([]Token, []Diagnostic) {
	var diags []Diagnostic
	s := NewScanner(src, collectDiagnostics(&diags))
	var tokens []Token
	for {
		tok := s.Next()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, diags
		}
	}
}
