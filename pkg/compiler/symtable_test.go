package compiler

import (
	"reflect"
	"testing"
)

func TestSymbolTable(t *testing.T) {
	t.Run("Allocation", func(t *testing.T) {
		s := NewSymbolTable()
		sym := s.Allocate("count")
		if sym.Name != "count" || sym.Label != "var_count" {
			t.Errorf("count: got %+v", sym)
		}
		if again := s.Allocate("count"); again != sym {
			t.Errorf("second Allocate returned %+v, want %+v", again, sym)
		}
		if n := len(s.Globals()); n != 1 {
			t.Errorf("len(Globals) = %d, want 1", n)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if g := NewSymbolTable().Globals(); len(g) != 0 {
			t.Errorf("Globals of an empty table = %v", g)
		}
	})

	t.Run("LabelsDoNotCollide", func(t *testing.T) {
		s := NewSymbolTable()
		// Names that look like generated labels still get their own slot.
		for _, name := range []string{"L0", "__start", "R0", "HLT"} {
			if sym := s.Allocate(name); sym.Label != "var_"+name {
				t.Errorf("%s: label %q", name, sym.Label)
			}
		}
	})

	t.Run("GlobalsSorted", func(t *testing.T) {
		s := NewSymbolTable()
		for _, name := range []string{"zeta", "alpha", "Mid", "alpha"} {
			s.Allocate(name)
		}
		want := []Symbol{
			{Name: "Mid", Label: "var_Mid"},
			{Name: "alpha", Label: "var_alpha"},
			{Name: "zeta", Label: "var_zeta"},
		}
		if got := s.Globals(); !reflect.DeepEqual(got, want) {
			t.Errorf("Globals = %v, want %v", got, want)
		}
	})
}
