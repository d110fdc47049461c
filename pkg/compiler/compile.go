package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"toyc/pkg/asm"
)

// Options configures a Compiler. The zero value logs to slog.Default.
type Options struct {
	// Diagnostics receives scanner warnings. When nil they are logged at
	// WARN level through Logger.
	Diagnostics DiagnosticHandler
	Logger      *slog.Logger
}

// Compiler runs the pipeline with a fixed set of Options. It holds no state
// between calls and is safe for concurrent use.
type Compiler struct {
	opts Options
}

func New(opts Options) *Compiler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = logDiagnostics(opts.Logger)
	}
	return &Compiler{opts: opts}
}

// Parse scans and parses src into a Program. On a syntax error the returned
// *SyntaxError carries a snippet of the offending source line.
func (c *Compiler) Parse(src string) (*Program, error) {
	prog, err := c.ParseStream(NewScannerStream(NewScanner(src, c.opts.Diagnostics)))
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.attachSnippet(src)
		}
		return nil, err
	}
	return prog, nil
}

// ParseStream parses tokens from ts into a Program.
func (c *Compiler) ParseStream(ts TokenStream) (*Program, error) {
	prog, err := NewParser(ts).ParseProgram()
	if err != nil {
		return nil, err
	}
	c.opts.Logger.Debug("parse complete", "statements", len(prog.Statements))
	return prog, nil
}

// Generate lowers prog to assembly text.
func (c *Compiler) Generate(prog *Program) (string, error) {
	assembly, err := Generate(prog)
	if err != nil {
		return "", fmt.Errorf("codegen: %w", err)
	}
	c.opts.Logger.Debug("codegen complete", "bytes", len(assembly))
	return assembly, nil
}

// Compile is Generate(Parse(src)).
func (c *Compiler) Compile(src string) (string, error) {
	prog, err := c.Parse(src)
	if err != nil {
		return "", err
	}
	return c.Generate(prog)
}

// Build compiles src and assembles the result into a machine-code image
// loadable at address 0. The assembly text is returned even when the
// assembler rejects it.
func (c *Compiler) Build(src string) (string, []byte, error) {
	assembly, err := c.Compile(src)
	if err != nil {
		return "", nil, err
	}
	machineCode, _, err := asm.Assemble(assembly)
	if err != nil {
		return assembly, nil, fmt.Errorf("assembly error: %w", err)
	}
	c.opts.Logger.Debug("assembly complete", "bytes", len(machineCode))
	return assembly, machineCode, nil
}

// Parse parses src with default Options. Scanner warnings go to slog.
func Parse(src string) (*Program, error) {
	return New(Options{}).Parse(src)
}

// ParseStream parses tokens from ts with default Options.
func ParseStream(ts TokenStream) (*Program, error) {
	return New(Options{}).ParseStream(ts)
}

// Compile parses and generates src with default Options.
func Compile(src string) (string, error) {
	return New(Options{}).Compile(src)
}

// Build compiles and assembles src with default Options.
func Build(src string) (string, []byte, error) {
	return New(Options{}).Build(src)
}
