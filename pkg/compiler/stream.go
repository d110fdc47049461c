package compiler

// TokenStream is the parser's view of its input: one token of lookahead and
// a way to move past it.
type TokenStream interface {
	// Peek returns the current token without consuming it.
	Peek() Token
	// Advance consumes and returns the current token.
	Advance() Token
}

// scannerStream pulls tokens from a Scanner only when the parser asks.
type scannerStream struct {
	scanner *Scanner
	current Token
	primed  bool
}

// NewScannerStream returns a TokenStream that drives s on demand.
func NewScannerStream(s *Scanner) TokenStream {
	return &scannerStream{scanner: s}
}

func (ss *scannerStream) Peek() Token {
	if !ss.primed {
		ss.current = ss.scanner.Next()
		ss.primed = true
	}
	return ss.current
}

func (ss *scannerStream) Advance() Token {
	tok := ss.Peek()
	if tok.Type != EOF {
		ss.primed = false
	}
	return tok
}

// sliceStream replays a fixed token slice.
type sliceStream struct {
	tokens []Token
	pos    int
}

// NewSliceStream returns a TokenStream over tokens. Once the slice is
// exhausted it keeps returning EOF, whether or not the slice ends with one.
func NewSliceStream(tokens []Token) TokenStream {
	return &sliceStream{tokens: tokens}
}

func (ss *sliceStream) Peek() Token {
	if ss.pos >= len(ss.tokens) {
		return Token{Type: EOF}
	}
	return ss.tokens[ss.pos]
}

func (ss *sliceStream) Advance() Token {
	tok := ss.Peek()
	if ss.pos < len(ss.tokens) {
		ss.pos++
	}
	return tok
}
