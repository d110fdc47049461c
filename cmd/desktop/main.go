package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"toyc/pkg/compiler"
	"toyc/pkg/cpu"
	"toyc/pkg/logger"
)

const (
	screenWidth  = 512
	screenHeight = 384
	statusHeight = 16
)

var (
	background = color.RGBA{0x10, 0x10, 0x18, 0xff}
	foreground = color.RGBA{0xd0, 0xf0, 0xd0, 0xff}
)

// Game runs one compiled program and shows its console output.
type Game struct {
	machineCode   []byte
	stepsPerFrame int

	vm     *cpu.CPU
	output bytes.Buffer

	canvas  *image.RGBA   // console text, rendered on the CPU side
	console *ebiten.Image // reused upload target for canvas
	dirty   bool
}

func NewGame(machineCode []byte, stepsPerFrame int) (*Game, error) {
	g := &Game{
		machineCode:   machineCode,
		stepsPerFrame: stepsPerFrame,
		vm:            cpu.NewCPU(),
		canvas:        image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight-statusHeight)),
	}
	g.vm.Output = &g.output
	if err := g.Restart(); err != nil {
		return nil, err
	}
	return g, nil
}

// Restart reloads the program and clears the console.
func (g *Game) Restart() error {
	g.output.Reset()
	g.dirty = true
	return g.vm.Load(g.machineCode)
}

// Tick executes up to stepsPerFrame instructions.
func (g *Game) Tick() {
	before := g.output.Len()
	for i := 0; i < g.stepsPerFrame && !g.vm.Halted; i++ {
		g.vm.Step()
	}
	if g.output.Len() != before {
		g.dirty = true
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.Restart(); err != nil {
			return err
		}
	}
	g.Tick()
	return nil
}

// visibleLines returns the tail of the console that fits on screen.
func visibleLines(out string, rows int) []string {
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if out == "" {
		return nil
	}
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	return lines
}

// renderConsole redraws the console text into the canvas.
func (g *Game) renderConsole() {
	draw.Draw(g.canvas, g.canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	rows := g.canvas.Bounds().Dy() / lineHeight

	d := &font.Drawer{
		Dst:  g.canvas,
		Src:  image.NewUniform(foreground),
		Face: face,
	}
	for i, line := range visibleLines(g.output.String(), rows) {
		d.Dot = fixed.P(4, (i+1)*lineHeight-face.Descent)
		d.DrawString(line)
	}
}

func (g *Game) status() string {
	state := "running"
	switch {
	case g.vm.Fault != nil:
		state = "fault: " + g.vm.Fault.Error()
	case g.vm.Halted:
		state = "halted"
	}
	return fmt.Sprintf("%s  steps=%d  PC=0x%04X  [R] restart  [Esc] quit", state, g.vm.Steps, g.vm.PC)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.console == nil {
		b := g.canvas.Bounds()
		g.console = ebiten.NewImage(b.Dx(), b.Dy())
	}
	if g.dirty {
		g.renderConsole()
		g.console.WritePixels(g.canvas.Pix)
		g.dirty = false
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, statusHeight)
	screen.DrawImage(g.console, op)
	ebitenutil.DebugPrintAt(screen, g.status(), 4, 0)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func newRootCmd() *cobra.Command {
	var (
		stepsPerFrame int
		showAsm       bool
		logLevel      string
	)

	cmd := &cobra.Command{
		Use:          "desktop <input>",
		Short:        "Run a toyc program in a window",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if stepsPerFrame < 1 {
				return fmt.Errorf("--steps-per-frame must be positive, got %d", stepsPerFrame)
			}
			cfg := logger.DefaultConfig()
			cfg.Output = cmd.ErrOrStderr()
			if cfg.Level, err = logger.ParseLevel(logLevel); err != nil {
				return err
			}
			log, closer, err := logger.New(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read source file: %w", err)
			}
			c := compiler.New(compiler.Options{Logger: log})
			assembly, machineCode, err := c.Build(string(source))
			if err != nil {
				return fmt.Errorf("compilation failed: %w", err)
			}
			if showAsm {
				fmt.Fprintf(cmd.OutOrStdout(), "Generated Assembly:\n%s\n", assembly)
			}

			game, err := NewGame(machineCode, stepsPerFrame)
			if err != nil {
				return err
			}
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			ebiten.SetWindowSize(screenWidth, screenHeight)
			ebiten.SetWindowTitle("toyc desktop")
			return ebiten.RunGame(game)
		},
	}

	cmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 10000, "instructions executed per frame")
	cmd.Flags().BoolVar(&showAsm, "show-asm", false, "print the generated assembly before running")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
