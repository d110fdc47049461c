// Package inspect renders compiler tokens and syntax trees as indented JSON
// for debugging. Nodes are identified by their preorder index in the tree,
// so the same program always serializes to the same bytes.
package inspect

import (
	"encoding/json"
	"fmt"

	"toyc/pkg/compiler"
)

type tokenJSON struct {
	Kind   string  `json:"kind"`
	Lexeme *string `json:"lexeme"`
	Line   int     `json:"line"`
	Column int     `json:"column"`
}

// Tokens serializes tokens as a JSON array. An empty lexeme, which only EOF
// carries, is written as null.
func Tokens(tokens []compiler.Token) ([]byte, error) {
	out := make([]tokenJSON, len(tokens))
	for i, tok := range tokens {
		out[i] = tokenJSON{Kind: tok.Type.String(), Line: tok.Line, Column: tok.Column}
		if tok.Lexeme != "" {
			lexeme := tok.Lexeme
			out[i].Lexeme = &lexeme
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

type programJSON struct {
	Type       string `json:"type"`
	ID         int    `json:"id"`
	Statements []any  `json:"statements"`
}

type assignJSON struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type ifJSON struct {
	Type      string `json:"type"`
	ID        int    `json:"id"`
	Condition any    `json:"condition"`
	Then      any    `json:"then"`
	Else      any    `json:"else"`
}

type printJSON struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Value any    `json:"value"`
}

type binaryJSON struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Op    string `json:"op"`
	Left  any    `json:"left"`
	Right any    `json:"right"`
}

type numberJSON struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Value int64  `json:"value"`
}

type variableJSON struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AST serializes prog as nested JSON objects.
func AST(prog *compiler.Program) ([]byte, error) {
	var e encoder
	root, err := e.program(prog)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(root, "", "  ")
}

// encoder hands out ids in the order nodes are visited.
type encoder struct {
	next int
}

func (e *encoder) id() int {
	id := e.next
	e.next++
	return id
}

func (e *encoder) program(p *compiler.Program) (*programJSON, error) {
	if p == nil {
		return nil, fmt.Errorf("inspect: nil program: %w", compiler.ErrUnsupportedNode)
	}
	out := &programJSON{Type: "Program", ID: e.id(), Statements: make([]any, 0, len(p.Statements))}
	for _, s := range p.Statements {
		v, err := e.stmt(s)
		if err != nil {
			return nil, err
		}
		out.Statements = append(out.Statements, v)
	}
	return out, nil
}

func (e *encoder) stmt(s compiler.Stmt) (any, error) {
	switch s := s.(type) {
	case *compiler.Assign:
		if s == nil {
			break
		}
		out := &assignJSON{Type: "Assign", ID: e.id(), Name: s.Name}
		v, err := e.expr(s.Value)
		if err != nil {
			return nil, err
		}
		out.Value = v
		return out, nil

	case *compiler.If:
		if s == nil {
			break
		}
		out := &ifJSON{Type: "If", ID: e.id()}
		cond, err := e.expr(s.Condition)
		if err != nil {
			return nil, err
		}
		out.Condition = cond
		then, err := e.program(s.Then)
		if err != nil {
			return nil, err
		}
		out.Then = then
		if s.Else != nil {
			els, err := e.program(s.Else)
			if err != nil {
				return nil, err
			}
			out.Else = els
		}
		return out, nil

	case *compiler.Print:
		if s == nil {
			break
		}
		out := &printJSON{Type: "Print", ID: e.id()}
		v, err := e.expr(s.Value)
		if err != nil {
			return nil, err
		}
		out.Value = v
		return out, nil
	}
	return nil, fmt.Errorf("inspect: statement %T: %w", s, compiler.ErrUnsupportedNode)
}

func (e *encoder) expr(x compiler.Expr) (any, error) {
	switch x := x.(type) {
	case *compiler.Number:
		if x == nil {
			break
		}
		return &numberJSON{Type: "Number", ID: e.id(), Value: x.Value}, nil

	case *compiler.Variable:
		if x == nil {
			break
		}
		return &variableJSON{Type: "Variable", ID: e.id(), Name: x.Name}, nil

	case *compiler.BinaryOp:
		if x == nil {
			break
		}
		out := &binaryJSON{Type: "BinaryOp", ID: e.id(), Op: x.Op.String()}
		left, err := e.expr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.expr(x.Right)
		if err != nil {
			return nil, err
		}
		out.Left, out.Right = left, right
		return out, nil
	}
	return nil, fmt.Errorf("inspect: expression %T: %w", x, compiler.ErrUnsupportedNode)
}
