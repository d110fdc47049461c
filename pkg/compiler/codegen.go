package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// MMIO console ports of the toyc CPU.
const (
	portChar   = 0xFF00 // writes the low byte as a character
	portNumber = 0xFF01 // writes the value as signed decimal
)

// Bounds on a Number literal. Anything in range fits a 16-bit word either as
// a signed or an unsigned value.
const (
	minWordValue = -32768
	maxWordValue = 65535
)

// ErrUnsupportedNode is wrapped by every generation error caused by a tree
// the generator cannot lower.
var ErrUnsupportedNode = errors.New("unsupported node")

// CodeGen walks an AST and emits toyc CPU assembly source text.
//
// Register use:
//
//	R0  accumulator; every expression leaves its value here
//	R1  left operand, popped from the stack, and store address
//	R2  sign-bias constant for signed comparisons
type CodeGen struct {
	syms      *SymbolTable
	out       strings.Builder
	nextLabel int
}

func newCodeGen(syms *SymbolTable) *CodeGen {
	return &CodeGen{syms: syms}
}

func (cg *CodeGen) newLabel() string {
	l := fmt.Sprintf("L%d", cg.nextLabel)
	cg.nextLabel++
	return l
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) comment(format string, args ...any) {
	cg.line("    ; "+format, args...)
}

func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case nil:
		return fmt.Errorf("%w: nil expression", ErrUnsupportedNode)

	case *Number:
		if n == nil {
			return fmt.Errorf("%w: nil number", ErrUnsupportedNode)
		}
		if n.Value < minWordValue || n.Value > maxWordValue {
			return fmt.Errorf("integer literal %d does not fit in 16 bits", n.Value)
		}
		cg.line("    LDI R0, %d", uint16(n.Value))

	case *Variable:
		if n == nil {
			return fmt.Errorf("%w: nil variable", ErrUnsupportedNode)
		}
		sym := cg.syms.Allocate(n.Name)
		cg.line("    LDI R1, %s", sym.Label)
		cg.line("    LD  R0, [R1]")

	case *BinaryOp:
		if n == nil {
			return fmt.Errorf("%w: nil binary operation", ErrUnsupportedNode)
		}
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		cg.line("    PUSH R0")
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		cg.line("    POP  R1")
		return cg.genOperator(n.Op)

	default:
		return fmt.Errorf("%w: expression %T", ErrUnsupportedNode, e)
	}
	return nil
}

// genOperator combines R1 (left) and R0 (right) into R0.
func (cg *CodeGen) genOperator(op Operator) error {
	switch op {
	case OpAdd:
		cg.line("    ADD R1, R0")
		cg.line("    MOV R0, R1")
	case OpSub:
		cg.line("    SUB R1, R0")
		cg.line("    MOV R0, R1")
	case OpMul:
		cg.line("    MUL R1, R0")
		cg.line("    MOV R0, R1")
	case OpDiv:
		cg.line("    IDIV R1, R0")
		cg.line("    MOV R0, R1")

	case OpEqual:
		cg.genTruth("SUB R1, R0", "JZ ")
	case OpNotEqual:
		cg.genTruth("SUB R1, R0", "JNZ")

	// Signed ordering: flipping the sign bit of both operands turns a signed
	// comparison into an unsigned one, which SUB reports through the carry.
	case OpLess:
		cg.biasOperands()
		cg.genTruth("SUB R1, R0", "JC ") // left < right
	case OpGreater:
		cg.biasOperands()
		cg.genTruth("SUB R0, R1", "JC ") // right < left
	case OpGreaterEqual:
		cg.biasOperands()
		cg.genTruth("SUB R1, R0", "JNC") // !(left < right)
	case OpLessEqual:
		cg.biasOperands()
		cg.genTruth("SUB R0, R1", "JNC") // !(right < left)

	default:
		return fmt.Errorf("%w: operator %s", ErrUnsupportedNode, op)
	}
	return nil
}

func (cg *CodeGen) biasOperands() {
	cg.line("    LDI R2, 0x8000")
	cg.line("    XOR R1, R2")
	cg.line("    XOR R0, R2")
}

// genTruth runs test and leaves 1 in R0 when jump is taken, 0 otherwise.
// LDI does not touch the flags, so the jump still sees the result of test.
func (cg *CodeGen) genTruth(test, jump string) {
	done := cg.newLabel()
	cg.line("    %s", test)
	cg.line("    LDI R0, 1")
	cg.line("    %s %s", jump, done)
	cg.line("    LDI R0, 0")
	cg.line("%s:", done)
}

func (cg *CodeGen) genProgram(p *Program) error {
	if p == nil {
		return fmt.Errorf("%w: nil program", ErrUnsupportedNode)
	}
	for _, stmt := range p.Statements {
		if err := cg.genStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case nil:
		return fmt.Errorf("%w: nil statement", ErrUnsupportedNode)

	case *Assign:
		if n == nil {
			return fmt.Errorf("%w: nil assignment", ErrUnsupportedNode)
		}
		cg.comment("%s = %s", n.Name, n.Value)
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		sym := cg.syms.Allocate(n.Name)
		cg.line("    LDI R1, %s", sym.Label)
		cg.line("    ST  [R1], R0")

	case *If:
		if n == nil {
			return fmt.Errorf("%w: nil if", ErrUnsupportedNode)
		}
		cg.comment("if %s", n.Condition)
		if err := cg.genExpr(n.Condition); err != nil {
			return err
		}
		cg.line("    LDI R1, 0")
		cg.line("    SUB R0, R1")
		falseLabel := cg.newLabel()
		cg.line("    JZ  %s", falseLabel)
		if err := cg.genProgram(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			endLabel := cg.newLabel()
			cg.line("    JMP %s", endLabel)
			cg.line("%s:", falseLabel)
			cg.comment("else")
			if err := cg.genProgram(n.Else); err != nil {
				return err
			}
			cg.line("%s:", endLabel)
		} else {
			cg.line("%s:", falseLabel)
		}

	case *Print:
		if n == nil {
			return fmt.Errorf("%w: nil print", ErrUnsupportedNode)
		}
		cg.comment("print(%s)", n.Value)
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		cg.line("    LDI R1, 0x%04X", portNumber)
		cg.line("    ST  [R1], R0")
		cg.line("    LDI R0, 10")
		cg.line("    LDI R1, 0x%04X", portChar)
		cg.line("    ST  [R1], R0")

	default:
		return fmt.Errorf("%w: statement %T", ErrUnsupportedNode, s)
	}
	return nil
}

// Generate lowers prog to assembly text. The same tree always produces the
// same text; nothing in prog is modified.
func Generate(prog *Program) (string, error) {
	cg := newCodeGen(NewSymbolTable())

	cg.line("; toyc generated assembly")
	cg.line("__start:")
	if err := cg.genProgram(prog); err != nil {
		return "", err
	}
	cg.line("    HLT")

	cg.line("\n; Global Data")
	for _, sym := range cg.syms.Globals() {
		cg.line("%s:", sym.Label)
		cg.line("    .WORD 0")
	}

	return cg.out.String(), nil
}
