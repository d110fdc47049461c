package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"toyc/pkg/compiler"
)

func newTestGame(t *testing.T, src string, stepsPerFrame int) *Game {
	t.Helper()
	_, machineCode, err := compiler.Build(src)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g, err := NewGame(machineCode, stepsPerFrame)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	return g
}

func TestGame_TickRunsToHalt(t *testing.T) {
	g := newTestGame(t, "x = 5; y = x + 3; if (y > 7) { print(y); }", 10000)
	g.dirty = false
	g.Tick()
	if !g.vm.Halted {
		t.Fatalf("program did not halt in one frame")
	}
	if got := g.output.String(); got != "8\n" {
		t.Errorf("output = %q, want %q", got, "8\n")
	}
	if !g.dirty {
		t.Errorf("new output should mark the console dirty")
	}
}

func TestGame_StepsPerFrame(t *testing.T) {
	g := newTestGame(t, "print(1); print(2);", 1)
	g.Tick()
	if g.vm.Steps != 1 {
		t.Errorf("Steps = %d after one frame, want 1", g.vm.Steps)
	}
	for i := 0; i < 100 && !g.vm.Halted; i++ {
		g.Tick()
	}
	if got := g.output.String(); got != "1\n2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestGame_Restart(t *testing.T) {
	g := newTestGame(t, "print(3);", 10000)
	g.Tick()
	if err := g.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if g.vm.Halted || g.vm.Steps != 0 || g.output.Len() != 0 {
		t.Fatalf("Restart did not reset the machine")
	}
	g.Tick()
	if got := g.output.String(); got != "3\n" {
		t.Errorf("output after restart = %q, want %q", got, "3\n")
	}
}

func TestGame_RenderConsole(t *testing.T) {
	g := newTestGame(t, "print(42);", 10000)
	g.Tick()
	g.renderConsole()

	lit := 0
	for i := 0; i < len(g.canvas.Pix); i += 4 {
		if g.canvas.Pix[i] == foreground.R && g.canvas.Pix[i+1] == foreground.G {
			lit++
		}
	}
	if lit == 0 {
		t.Errorf("no glyph pixels drawn for console output")
	}
}

func TestVisibleLines(t *testing.T) {
	tests := []struct {
		out  string
		rows int
		want []string
	}{
		{"", 3, nil},
		{"1\n", 3, []string{"1"}},
		{"1\n2\n3\n4\n", 2, []string{"3", "4"}},
		{"1\n2", 5, []string{"1", "2"}},
	}
	for _, tt := range tests {
		if got := visibleLines(tt.out, tt.rows); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("visibleLines(%q, %d) = %v, want %v", tt.out, tt.rows, got, tt.want)
		}
	}
}

// runCommand executes the desktop command with args. Only failing command
// lines are used here, since a successful one would open a window.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stderr.String(), err
}

func TestCommand_WarningsGoToLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toy")
	if err := os.WriteFile(path, []byte("x = 1 @;\nprint("), 0o644); err != nil {
		t.Fatal(err)
	}
	stderr, err := runCommand(t, path)
	if err == nil || !strings.Contains(err.Error(), "compilation failed") {
		t.Fatalf("expected a compilation error, got %v", err)
	}
	if !strings.Contains(stderr, "level=WARN") || !strings.Contains(stderr, "unknown character") {
		t.Errorf("scanner warning not logged:\n%s", stderr)
	}
}

func TestCommand_BadFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.toy")
	if err := os.WriteFile(path, []byte("print(1);"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCommand(t, "--log-level", "loud", path); err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Errorf("expected a log level error, got %v", err)
	}
	if _, err := runCommand(t, "--steps-per-frame", "0", path); err == nil {
		t.Errorf("expected an error for zero steps per frame")
	}
}
