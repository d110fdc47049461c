package compiler

import "sort"

// Symbol is a program variable and the data label that backs it.
type Symbol struct {
	Name  string
	Label string
}

// SymbolTable maps variable names to their global storage. The language has
// a single flat namespace: a name assigned inside an if body refers to the
// same slot as the same name anywhere else.
type SymbolTable struct {
	globals map[string]Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: make(map[string]Symbol)}
}

// labelFor returns the assembler label for a variable name. The prefix keeps
// variable labels apart from generated L<n> labels and __start.
func labelFor(name string) string {
	return "var_" + name
}

// Allocate returns the symbol for name, creating it on first use.
func (s *SymbolTable) Allocate(name string) Symbol {
	if sym, ok := s.globals[name]; ok {
		return sym
	}
	sym := Symbol{Name: name, Label: labelFor(name)}
	s.globals[name] = sym
	return sym
}

// Globals returns every allocated symbol sorted by name.
func (s *SymbolTable) Globals() []Symbol {
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Symbol, len(names))
	for i, name := range names {
		out[i] = s.globals[name]
	}
	return out
}
