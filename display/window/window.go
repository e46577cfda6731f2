// Package window shows a camera session in a resizable desktop window using
// ebiten. The game loop calls Tick once per update, so the pipeline runs at
// the window's tick rate.
package window

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/display"
	"github.com/opd-ai/trashcam/video"
)

// keyActions maps keyboard keys to actions.
var keyActions = map[ebiten.Key]display.Action{
	ebiten.KeyB:      display.ActionBend,
	ebiten.KeySpace:  display.ActionBend,
	ebiten.KeyF:      display.ActionFlip,
	ebiten.KeyS:      display.ActionSnapshot,
	ebiten.KeyP:      display.ActionNextPalette,
	ebiten.KeyQ:      display.ActionQuit,
	ebiten.KeyEscape: display.ActionQuit,
	ebiten.KeyDigit1: display.ActionPreset1,
	ebiten.KeyDigit2: display.ActionPreset2,
	ebiten.KeyDigit3: display.ActionPreset3,
	ebiten.KeyDigit4: display.ActionPreset4,

	ebiten.KeyTab:            display.ActionNextSlider,
	ebiten.KeyV:              display.ActionNextSlider,
	ebiten.KeyArrowUp:        display.ActionSliderUp,
	ebiten.KeyArrowRight:     display.ActionSliderUp,
	ebiten.KeyEqual:          display.ActionSliderUp,
	ebiten.KeyNumpadAdd:      display.ActionSliderUp,
	ebiten.KeyArrowDown:      display.ActionSliderDown,
	ebiten.KeyArrowLeft:      display.ActionSliderDown,
	ebiten.KeyMinus:          display.ActionSliderDown,
	ebiten.KeyNumpadSubtract: display.ActionSliderDown,

	ebiten.KeyK: display.ActionToggleBlocks,
	ebiten.KeyT: display.ActionToggleTear,
	ebiten.KeyC: display.ActionToggleBitcrush,
	ebiten.KeyR: display.ActionToggleRGBSplit,
	ebiten.KeyN: display.ActionToggleNoise,
	ebiten.KeyO: display.ActionToggleFalseColor,
	ebiten.KeyM: display.ActionToggleMash,
	ebiten.KeyE: display.ActionToggleFeedback,
	ebiten.KeyA: display.ActionToggleBars,
	ebiten.KeyD: display.ActionToggleDate,
}

// ActionForKey maps a key to an action.
func ActionForKey(k ebiten.Key) display.Action {
	return keyActions[k]
}

// Config configures the window.
type Config struct {
	Title  string
	Width  int
	Height int
	TPS    int
}

// Game implements ebiten.Game for a camera session.
type Game struct {
	ctrl *display.Controller
	ctx  context.Context

	keys      []ebiten.Key
	canvas    *video.Frame
	offscreen *ebiten.Image

	layoutW, layoutH int
	scale            float64
	idle             bool
	err              error
}

// NewGame creates a game driven by ctrl. ctx ends the loop when done.
func NewGame(ctx context.Context, ctrl *display.Controller) *Game {
	return &Game{ctrl: ctrl, ctx: ctx, scale: 1}
}

// Update handles input and renders the next frame.
func (g *Game) Update() error {
	if err := g.ctx.Err(); err != nil {
		return ebiten.Termination
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if !g.ctrl.Handle(g.ctx, ActionForKey(k)) {
			return ebiten.Termination
		}
	}

	_, err := g.ctrl.Pipeline().Tick()
	switch {
	case err == nil:
		g.idle = false
	case display.IsIdle(err):
		g.idle = true
	default:
		g.err = err
		return fmt.Errorf("tick: %w", err)
	}
	return nil
}

// Draw letterboxes the latest output frame into the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	if err := g.ensureCanvas(b.Dx(), b.Dy()); err != nil {
		return
	}

	if _, err := g.ctrl.Pipeline().Present(g.canvas); err != nil {
		if !display.IsIdle(err) {
			logrus.WithFields(logrus.Fields{
				"function": "Game.Draw",
				"error":    err,
			}).Warn("Present failed")
		}
		screen.Fill(video.DefaultBackground)
	} else {
		g.offscreen.WritePixels(g.canvas.Pix)
		screen.DrawImage(g.offscreen, nil)
	}

	status := g.ctrl.Status()
	if g.idle {
		status = "no signal"
	}
	if status != "" {
		ebitenutil.DebugPrint(screen, status)
	}
}

func (g *Game) ensureCanvas(w, h int) error {
	if g.canvas != nil && g.canvas.Width == w && g.canvas.Height == h {
		return nil
	}
	canvas, err := video.NewFrame(w, h)
	if err != nil {
		return err
	}
	g.canvas = canvas
	g.offscreen = ebiten.NewImage(w, h)
	return nil
}

// Layout reports a screen in device pixels and forwards size changes to the
// pipeline.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := 1.0
	if m := ebiten.Monitor(); m != nil {
		scale = m.DeviceScaleFactor()
	}

	if outsideWidth != g.layoutW || outsideHeight != g.layoutH || scale != g.scale {
		g.layoutW, g.layoutH, g.scale = outsideWidth, outsideHeight, scale
		g.ctrl.Pipeline().Resize(outsideWidth, outsideHeight, scale)

		logrus.WithFields(logrus.Fields{
			"function": "Game.Layout",
			"width":    outsideWidth,
			"height":   outsideHeight,
			"scale":    scale,
		}).Debug("Window resized")
	}

	return ScreenSize(outsideWidth, outsideHeight, scale)
}

// ScreenSize returns the device pixel size of a window of w x h logical
// pixels at the given scale.
func ScreenSize(w, h int, scale float64) (int, int) {
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	sw := int(math.Ceil(float64(w) * scale))
	sh := int(math.Ceil(float64(h) * scale))
	return max(sw, 1), max(sh, 1)
}

// Err returns the error that stopped the loop, if any.
func (g *Game) Err() error {
	return g.err
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, cfg Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	if cfg.Title == "" {
		cfg.Title = "trashcam"
	}

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	logrus.WithFields(logrus.Fields{
		"function": "window.Run",
		"width":    cfg.Width,
		"height":   cfg.Height,
		"tps":      ebiten.TPS(),
	}).Info("Opening window")

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
