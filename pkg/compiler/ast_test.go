package compiler

import "testing"

func TestNodeString(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{num(7), "7"},
		{ref("x"), "x"},
		{bin(OpGreaterEqual, ref("y"), num(7)), "(y >= 7)"},
		{&Assign{Name: "x", Value: bin(OpAdd, num(1), num(2))}, "Assign(x = (1 + 2))"},
		{&Print{Value: ref("x")}, "Print(x)"},
		{
			&If{Condition: ref("c"), Then: &Program{Statements: []Stmt{&Print{Value: num(1)}}}},
			"If(if c then Program[Print(1)])",
		},
		{
			&If{Condition: ref("c"), Then: &Program{}, Else: &Program{Statements: []Stmt{&Print{Value: num(2)}}}},
			"If(if c then Program[] else Program[Print(2)])",
		},
	}
	for _, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestOperator(t *testing.T) {
	symbols := map[Operator]string{
		OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
		OpGreater: ">", OpLess: "<", OpEqual: "==", OpNotEqual: "!=",
		OpGreaterEqual: ">=", OpLessEqual: "<=",
	}
	for op, want := range symbols {
		if got := op.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(op), got, want)
		}
		if cmp := op.IsComparison(); cmp != (op >= OpGreater) {
			t.Errorf("%s.IsComparison() = %v", op, cmp)
		}
	}
	if got := Operator(42).String(); got != "Operator(42)" {
		t.Errorf("Operator(42).String() = %q", got)
	}

	// Every operator token has an AST operator with the same surface form.
	for tt, op := range binaryOperators {
		tokens, _ := Tokenize(op.String())
		if tokens[0].Type != tt {
			t.Errorf("operator %s scans as %s, want %s", op, tokens[0].Type, tt)
		}
	}
}
