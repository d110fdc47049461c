package compiler

import (
	"fmt"
	"strings"
)

// SyntaxError is the fatal error returned by the parser. It records what the
// grammar allowed at the point of failure and the token actually found there.
type SyntaxError struct {
	Expected []TokenType
	Got      Token
	Msg      string // overrides the expected/got wording when set
	Snippet  string // trimmed source line, when the source is known
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "line %d:%d: ", e.Got.Line, e.Got.Column)
	if e.Msg != "" {
		sb.WriteString(e.Msg)
	} else {
		sb.WriteString("expected ")
		sb.WriteString(describeExpected(e.Expected))
		fmt.Fprintf(&sb, ", got %s", e.Got.Type)
		if e.Got.Lexeme != "" {
			fmt.Fprintf(&sb, " (%q)", e.Got.Lexeme)
		}
	}
	if e.Snippet != "" {
		fmt.Fprintf(&sb, "\n  |> %s", e.Snippet)
	}
	return sb.String()
}

func describeExpected(tts []TokenType) string {
	switch len(tts) {
	case 0:
		return "nothing"
	case 1:
		return tts[0].String()
	}
	names := make([]string, len(tts))
	for i, tt := range tts {
		names[i] = tt.String()
	}
	return "one of " + strings.Join(names, ", ")
}

// attachSnippet fills in the source line the error points at.
func (e *SyntaxError) attachSnippet(src string) {
	lines := strings.Split(src, "\n")
	idx := e.Got.Line - 1 // lines are 1-based
	if idx >= 0 && idx < len(lines) {
		e.Snippet = strings.TrimSpace(lines[idx])
	}
}
