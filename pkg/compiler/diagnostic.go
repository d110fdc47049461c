package compiler

import (
	"fmt"
	"log/slog"
)

// Diagnostic is a recoverable scanner warning. The offending character has
// already been skipped when it is reported.
type Diagnostic struct {
	Line    int
	Column  int
	Char    rune
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d:%d: %s", d.Line, d.Column, d.Message)
}

// DiagnosticHandler receives scanner warnings as they are produced.
type DiagnosticHandler func(Diagnostic)

// logDiagnostics returns a handler that writes each warning to logger.
func logDiagnostics(logger *slog.Logger) DiagnosticHandler {
	return func(d Diagnostic) {
		logger.Warn(d.Message, "line", d.Line, "column", d.Column, "char", string(d.Char))
	}
}

// collectDiagnostics returns a handler that appends to dst.
func collectDiagnostics(dst *[]Diagnostic) DiagnosticHandler {
	return func(d Diagnostic) {
		*dst = append(*dst, d)
	}
}
