package compiler

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node. Each node owns its children
// exclusively; nothing in the tree is shared or points back to a parent.
type Node interface {
	node()
	String() string
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
// genExpr always leaves the result in R0.
type Expr interface {
	Node
	exprNode()
}

// Operator is the operator of a BinaryOp.
type Operator int

const (
	OpAdd Operator = iota // +
	OpSub                 // -
	OpMul                 // *
	OpDiv                 // /
	OpGreater             // >
	OpLess                // <
	OpEqual               // ==
	OpNotEqual            // !=
	OpGreaterEqual        // >=
	OpLessEqual           // <=
)

var operatorSymbols = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpGreater:      ">",
	OpLess:         "<",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpGreaterEqual: ">=",
	OpLessEqual:    "<=",
}

// String returns the operator as it is written in source.
func (op Operator) String() string {
	if int(op) >= 0 && int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// IsComparison reports whether op yields a 0/1 truth value.
func (op Operator) IsComparison() bool {
	return op >= OpGreater && op <= OpLessEqual
}

// binaryOperators maps operator tokens to their AST operator.
var binaryOperators = map[TokenType]Operator{
	PLUS:       OpAdd,
	MINUS:      OpSub,
	STAR:       OpMul,
	SLASH:      OpDiv,
	GREATER:    OpGreater,
	LESS:       OpLess,
	EQUALS:     OpEqual,
	NOT_EQ:     OpNotEqual,
	GREATER_EQ: OpGreaterEqual,
	LESS_EQ:    OpLessEqual,
}

// Number is an integer literal.
//
//	x = 10;
//	    ^^  Number{Value: 10}
type Number struct {
	Value int64
}

func (*Number) node()            {}
func (*Number) exprNode()        {}
func (n *Number) String() string { return fmt.Sprintf("%d", n.Value) }

// Variable is a read of a named variable. Names are resolved by the code
// generator, never by the parser.
//
//	print(x);
//	      ^  Variable{Name: "x"}
type Variable struct {
	Name string
}

func (*Variable) node()            {}
func (*Variable) exprNode()        {}
func (v *Variable) String() string { return v.Name }

// BinaryOp represents Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryOp struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (*BinaryOp) node()     {}
func (*BinaryOp) exprNode() {}
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	Node
	stmtNode()
}

// Program is an ordered list of statements. It is both the root of a parse
// and the body of if/else blocks.
type Program struct {
	Statements []Stmt
}

func (*Program) node() {}
func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String()
	}
	return fmt.Sprintf("Program[%s]", strings.Join(parts, " "))
}

// Assign represents  Name = Value;
type Assign struct {
	Name  string
	Value Expr
}

func (*Assign) node()     {}
func (*Assign) stmtNode() {}
func (a *Assign) String() string {
	return fmt.Sprintf("Assign(%s = %s)", a.Name, a.Value)
}

// If represents if (Condition) { Then } [else { Else }]
type If struct {
	Condition Expr
	Then      *Program
	Else      *Program // may be nil
}

func (*If) node()     {}
func (*If) stmtNode() {}
func (i *If) String() string {
	if i.Else != nil {
		return fmt.Sprintf("If(if %s then %s else %s)", i.Condition, i.Then, i.Else)
	}
	return fmt.Sprintf("If(if %s then %s)", i.Condition, i.Then)
}

// Print represents print(Value);
type Print struct {
	Value Expr
}

func (*Print) node()     {}
func (*Print) stmtNode() {}
func (p *Print) String() string {
	return fmt.Sprintf("Print(%s)", p.Value)
}
