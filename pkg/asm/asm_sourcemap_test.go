package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `
; Line 2: Comment
LDI R0, 10      ; Line 3: Instruction (4 bytes: 2 opcode + 2 immediate)
                ; Line 4: Empty
LABEL:          ; Line 5: Label
ADD R0, R1      ; Line 6: Instruction (2 bytes)
.ORG 0x0010     ; Line 7: ORG (padding to byte addr 0x0010)
HLT             ; Line 8: Instruction (2 bytes at byte addr 0x0010)
.WORD 7         ; Line 9: Data word at byte addr 0x0012
`
	// Expected sourceMap:
	// 0x0000 -> 3  (LDI)
	// 0x0004 -> 6  (ADD, also where LABEL points)
	// 0x0010 -> 8  (HLT)
	// 0x0012 -> 9  (.WORD)

	_, sourceMap, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	tests := []struct {
		addr uint16
		line int
	}{
		{0x0000, 3},
		{0x0004, 6},
		{0x0010, 8},
		{0x0012, 9},
	}

	for _, tc := range tests {
		if got := sourceMap[tc.addr]; got != tc.line {
			t.Errorf("sourceMap[0x%04X] = %d; want %d", tc.addr, got, tc.line)
		}
	}
	if len(sourceMap) != len(tests) {
		t.Errorf("sourceMap has %d entries; want %d", len(sourceMap), len(tests))
	}
}
