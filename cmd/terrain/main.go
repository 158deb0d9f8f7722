package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/1siamBot/hdr-terrain/engine/config"
	"github.com/1siamBot/hdr-terrain/engine/frame"
	"github.com/1siamBot/hdr-terrain/engine/input"
	"github.com/1siamBot/hdr-terrain/engine/pipeline"
	"github.com/1siamBot/hdr-terrain/engine/sun"
)

// Game implements ebiten.Game interface
type Game struct {
	cfg     *config.Config
	ctrl    *sun.Controller
	fc      *frame.Context
	pipe    *pipeline.Pipeline
	backend backend
	input   *input.InputState

	// UI state
	showDebug   bool
	showGizmo   bool
	status      string
	statusUntil float64
}

func NewGame(cfg *config.Config, shaderDir string) (*Game, error) {
	height, normal, err := cfg.BuildTerrain()
	if err != nil {
		return nil, err
	}
	opts := cfg.PipelineOptions()
	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	var b backend
	switch cfg.Window.Backend {
	case config.BackendSoft:
		b = newSoftBackend(opts.Width, opts.Height, logger)
	default:
		b = newEbitenBackend(cfg.Window.Width, cfg.Window.Height, shaderDir, logger)
	}

	ctrl := sun.NewController(cfg.Sun)
	w, h := b.device().DisplaySize()
	g := &Game{
		cfg:     cfg,
		ctrl:    ctrl,
		fc:      frame.New(cfg.NewCamera(w, h), ctrl.NewState(), w, h),
		pipe:    pipeline.New(b.device(), opts, pipeline.Inputs{Height: height, Normal: normal}, logger),
		backend: b,
		input:   input.NewInputState(),
	}
	g.fc.Light = g.fc.Sun.Light(ctrl.Config())
	g.input.SetCaptured(true)
	return g, nil
}

func (g *Game) Update() error {
	dt := 1.0 / float64(ebiten.TPS())
	g.input.Update()
	c := g.input.Controls

	if c.Fired.Has(input.ActionQuit) {
		return ebiten.Termination
	}
	if c.Fired.Has(input.ActionToggleCapture) {
		g.input.SetCaptured(!g.input.Captured)
	}
	g.handleActions(c)
	c.Drive(g.fc.Camera, dt)

	g.fc.Step(g.ctrl, dt)
	return nil
}

func (g *Game) handleActions(c input.Controls) {
	step := 1
	if c.Fast {
		step = 10
	}
	if c.Fired.Has(input.ActionBloomUp) {
		g.pipe.SetBloomIterations(g.pipe.BloomIterations() + step)
		g.flash(fmt.Sprintf("bloom iterations %d", g.pipe.BloomIterations()))
	}
	if c.Fired.Has(input.ActionBloomDown) {
		g.pipe.SetBloomIterations(g.pipe.BloomIterations() - step)
		g.flash(fmt.Sprintf("bloom iterations %d", g.pipe.BloomIterations()))
	}
	if c.Fired.Has(input.ActionToggleSun) {
		on := g.fc.Sun.Phase != sun.Stationary
		g.ctrl.SetStationary(&g.fc.Sun, on)
		g.flash("sun " + g.fc.Sun.Phase.String())
	}
	if c.Fired.Has(input.ActionDebugView) {
		g.showDebug = !g.showDebug
	}
	if c.Fired.Has(input.ActionGizmo) {
		g.showGizmo = !g.showGizmo
	}
	if c.Fired.Has(input.ActionCopyPose) {
		if err := copySnapshot(g.fc); err != nil {
			g.flash("copy failed: " + err.Error())
		} else {
			g.flash("camera and sun copied to clipboard")
		}
	}
}

// flash shows a status line for two seconds
func (g *Game) flash(msg string) {
	g.status = msg
	g.statusUntil = g.fc.Time + 2
}

func (g *Game) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	g.fc.Resize(b.Dx(), b.Dy())

	g.backend.begin(screen)
	g.pipe.RenderFrame(g.fc)
	g.backend.end(screen)

	if g.showGizmo {
		drawGizmo(screen, g.fc, g.ctrl, g.cfg.Shading)
	}
	if g.showDebug {
		g.drawDebugView(screen)
	}
	g.drawHUD(screen)
}

// Layout keeps the display at window resolution; targets keep their size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return max(1, outsideWidth), max(1, outsideHeight)
}

func main() {
	fs := flag.NewFlagSet("terrain", flag.ExitOnError)
	shaderDir := fs.String("shader-dir", "", "load Kage shaders from this directory")
	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)
	ebiten.SetTPS(cfg.Window.TPS)

	game, err := NewGame(cfg, *shaderDir)
	if err != nil {
		log.Fatal(err)
	}
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
