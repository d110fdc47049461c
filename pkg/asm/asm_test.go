package asm

import (
	"reflect"
	"strings"
	"testing"

	"toyc/pkg/cpu"
)

// encodeWords converts a slice of uint16 to little-endian bytes.
func encodeWords(words ...uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w & 0xFF)
		out[i*2+1] = byte(w >> 8)
	}
	return out
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"var_x", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	lenTests := []struct {
		mnemonic string
		wantLen  uint16
		wantOk   bool
	}{
		{"HLT", 2, true},
		{"NOP", 2, true},
		{"PUSH", 2, true},
		{"IDIV", 2, true},
		{".WORD", 2, true},
		{"LDI", 4, true},
		{"JMP", 4, true},
		{"JNC", 4, true},
		{"INVALID", 0, false},
	}
	for _, tc := range lenTests {
		gotLen, gotOk := instructionLength(tc.mnemonic)
		if gotLen != tc.wantLen || gotOk != tc.wantOk {
			t.Errorf("instructionLength(%q) = %d, %v; want %d, %v", tc.mnemonic, gotLen, gotOk, tc.wantLen, tc.wantOk)
		}
	}
}

func TestParseRegister(t *testing.T) {
	for i, name := range []string{"R0", "r1", "R2", "R3", "R4", "R5", "R6", "r7"} {
		got, err := parseRegister(name, 1)
		if err != nil || got != uint16(i) {
			t.Errorf("parseRegister(%q) = %d, %v; want %d", name, got, err, i)
		}
	}
	for _, bad := range []string{"R8", "R", "X0", "R01", ""} {
		if _, err := parseRegister(bad, 1); err == nil {
			t.Errorf("parseRegister(%q): expected error", bad)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"LDI R0, 5",
			parsedLine{lineNo: 1, mnemonic: "LDI", operands: []string{"R0", "5"}},
			false,
		},
		{
			"  mov R0, R1  ; comment",
			parsedLine{lineNo: 1, mnemonic: "MOV", operands: []string{"R0", "R1"}},
			false,
		},
		{
			"    ST  [R1], R0",
			parsedLine{lineNo: 1, mnemonic: "ST", operands: []string{"R1", "R0"}},
			false,
		},
		{
			"START: NOP",
			parsedLine{lineNo: 1, labels: []string{"START"}, mnemonic: "NOP"},
			false,
		},
		{
			"LABEL1: LABEL2: HLT",
			parsedLine{lineNo: 1, labels: []string{"LABEL1", "LABEL2"}, mnemonic: "HLT"},
			false,
		},
		{
			"var_x:",
			parsedLine{lineNo: 1, labels: []string{"var_x"}},
			false,
		},
		{
			"    ; if (y >= 7): colon inside a comment",
			parsedLine{lineNo: 1},
			false,
		},
		{
			".ORG 0x100",
			parsedLine{lineNo: 1, mnemonic: ".ORG", operands: []string{"0x100"}},
			false,
		},
		{
			"    .word 0",
			parsedLine{lineNo: 1, mnemonic: ".WORD", operands: []string{"0"}},
			false,
		},
		// Invalid cases
		{
			"1LABEL: NOP",
			parsedLine{lineNo: 1},
			true,
		},
		{
			": NOP",
			parsedLine{lineNo: 1},
			true,
		},
	}

	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseLine(%q) = %+v, want %+v", tc.line, got, tc.want)
		}
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    []byte
		wantErr string
	}{
		{
			name: "Basic Instructions",
			code: `
			LDI R0, 10
			ADD R0, R1
			HLT
			`,
			want: encodeWords(
				cpu.EncodeInstruction(cpu.OpLDI, cpu.RegA, 0, 0), 10,
				cpu.EncodeInstruction(cpu.OpADD, cpu.RegA, cpu.RegB, 0),
				cpu.EncodeInstruction(cpu.OpHLT, 0, 0, 0),
			),
		},
		{
			name: "Labels and Jumps",
			// LDI R0, 5  -> 4 bytes (addr 0-3)
			// LOOP:       -> addr 4
			// SUB R0, R1  -> 2 bytes (addr 4-5)
			// JNZ LOOP    -> 4 bytes (addr 6-9), target = 4
			// HLT         -> 2 bytes (addr 10-11)
			code: `
			LDI R0, 5
			LOOP:
			SUB R0, R1
			JNZ LOOP
			HLT
			`,
			want: encodeWords(
				cpu.EncodeInstruction(cpu.OpLDI, cpu.RegA, 0, 0), 5,
				cpu.EncodeInstruction(cpu.OpSUB, cpu.RegA, cpu.RegB, 0),
				cpu.EncodeInstruction(cpu.OpJNZ, 0, 0, 0), 4,
				cpu.EncodeInstruction(cpu.OpHLT, 0, 0, 0),
			),
		},
		{
			name: "Forward label in LDI",
			code: `
			LDI R1, var_x
			LD  R0, [R1]
			HLT
			var_x:
			.WORD 42
			`,
			want: encodeWords(
				cpu.EncodeInstruction(cpu.OpLDI, cpu.RegB, 0, 0), 8,
				cpu.EncodeInstruction(cpu.OpLD, cpu.RegA, cpu.RegB, 0),
				cpu.EncodeInstruction(cpu.OpHLT, 0, 0, 0),
				42,
			),
		},
		{
			name: "Register shapes",
			code: `
			PUSH R3
			POP R4
			NOT R5
			IDIV R1, R0
			JC 0x1234
			`,
			want: encodeWords(
				cpu.EncodeInstruction(cpu.OpPUSH, 3, 0, 0),
				cpu.EncodeInstruction(cpu.OpPOP, 4, 0, 0),
				cpu.EncodeInstruction(cpu.OpNOT, 5, 0, 0),
				cpu.EncodeInstruction(cpu.OpIDIV, cpu.RegB, cpu.RegA, 0),
				cpu.EncodeInstruction(cpu.OpJC, 0, 0, 0), 0x1234,
			),
		},
		{
			name: ".ORG",
			code: `
			.ORG 0x0004
			HLT
			`,
			want: append([]byte{0, 0, 0, 0}, encodeWords(cpu.EncodeInstruction(cpu.OpHLT, 0, 0, 0))...),
		},
		{
			name:    "Labels are case-sensitive",
			code:    "Loop:\n    JMP loop\n",
			wantErr: "undefined label 'loop'",
		},
		{
			name:    "Duplicate label",
			code:    "A:\nNOP\nA:\nHLT\n",
			wantErr: "duplicate label 'A' on line 3",
		},
		{
			name:    "Unknown instruction",
			code:    "FROB R0\n",
			wantErr: "unknown instruction on line 1: FROB",
		},
		{
			name:    "Wrong operand count",
			code:    "ADD R0\n",
			wantErr: "ADD expects 2 operands on line 1",
		},
		{
			name:    "Immediate out of range",
			code:    "LDI R0, 70000\n",
			wantErr: "immediate out of range",
		},
		{
			name:    "Origin moves backward",
			code:    "NOP\nNOP\n.ORG 2\n",
			wantErr: "cannot move origin backward",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := Assemble(tc.code)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("Assemble() error = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Assemble() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LDI R0, 1", "LDI R0, 1"},
		{"LDI R0, 1 ; comment", "LDI R0, 1 "},
		{"LDI R0, 1 // comment", "LDI R0, 1 "},
		{"// comment", ""},
		{"; comment", ""},
		{"LDI R0, 1 ; first // second", "LDI R0, 1 "},
	}
	for _, tc := range tests {
		if got := stripComments(tc.input); got != tc.want {
			t.Errorf("stripComments(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
