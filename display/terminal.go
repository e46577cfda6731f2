package display

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/video"
)

// upperHalfBlock draws the top pixel in the foreground color and the bottom
// pixel in the background color of a cell.
const upperHalfBlock = '▀'

// statusTicks is how many frames a status message stays on screen.
const statusTicks = 90

// Terminal renders frames into a tcell screen, two pixels per cell.
type Terminal struct {
	screen   tcell.Screen
	ctrl     *Controller
	interval time.Duration

	canvas     *video.Frame
	cols, rows int

	status      string
	statusShown int
}

// NewTerminal creates a terminal display. The screen must already be
// initialized; the caller owns Fini. fps <= 0 uses 30.
func NewTerminal(screen tcell.Screen, ctrl *Controller, fps int) *Terminal {
	if fps <= 0 {
		fps = 30
	}
	return &Terminal{
		screen:   screen,
		ctrl:     ctrl,
		interval: time.Second / time.Duration(fps),
	}
}

// Run drives the frame loop until the user quits, ctx is done or the
// pipeline fails.
func (t *Terminal) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	t.resize()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"function": "Terminal.Run",
		"cols":     t.cols,
		"rows":     t.rows,
		"interval": t.interval,
	}).Info("Terminal display started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !t.handleEvent(ctx, ev) {
				return nil
			}
		case <-ticker.C:
			if err := t.Frame(); err != nil {
				return err
			}
		}
	}
}

// handleEvent returns false on quit.
func (t *Terminal) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyTab:
			return t.ctrl.Handle(ctx, ActionNextSlider)
		case tcell.KeyUp, tcell.KeyRight:
			return t.ctrl.Handle(ctx, ActionSliderUp)
		case tcell.KeyDown, tcell.KeyLeft:
			return t.ctrl.Handle(ctx, ActionSliderDown)
		case tcell.KeyRune:
			return t.ctrl.Handle(ctx, ActionForRune(ev.Rune()))
		}
	case *tcell.EventResize:
		t.resize()
	}
	return true
}

// resize maps the cell grid onto a pixel viewport of cols x 2*rows.
func (t *Terminal) resize() {
	t.cols, t.rows = t.screen.Size()
	if t.cols <= 0 || t.rows <= 0 {
		t.canvas = nil
		return
	}

	canvas, err := video.NewFrame(t.cols, t.rows*2)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Terminal.resize",
			"cols":     t.cols,
			"rows":     t.rows,
			"error":    err,
		}).Warn("Cannot allocate terminal canvas")
		t.canvas = nil
		return
	}
	t.canvas = canvas
	t.ctrl.Pipeline().Resize(t.cols, t.rows*2, 1)
	t.screen.Clear()
}

// Frame runs one pipeline tick and redraws the screen.
func (t *Terminal) Frame() error {
	p := t.ctrl.Pipeline()
	_, err := p.Tick()
	if err != nil && !IsIdle(err) {
		return fmt.Errorf("tick: %w", err)
	}

	if t.canvas == nil {
		return nil
	}

	if err != nil {
		t.drawText(t.rows/2, "no signal", tcell.StyleDefault.Reverse(true))
	} else if _, perr := p.Present(t.canvas); perr == nil {
		t.blit(t.canvas)
	} else if !IsIdle(perr) {
		return fmt.Errorf("present: %w", perr)
	}

	t.drawStatus()
	t.screen.Show()
	return nil
}

// blit draws f into the screen using half blocks.
func (t *Terminal) blit(f *video.Frame) {
	for y := 0; y < t.rows && 2*y+1 < f.Height; y++ {
		for x := 0; x < t.cols && x < f.Width; x++ {
			top := f.Offset(x, 2*y)
			bot := f.Offset(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(f.Pix[top]), int32(f.Pix[top+1]), int32(f.Pix[top+2]))).
				Background(tcell.NewRGBColor(int32(f.Pix[bot]), int32(f.Pix[bot+1]), int32(f.Pix[bot+2])))
			t.screen.SetContent(x, y, upperHalfBlock, nil, style)
		}
	}
}

func (t *Terminal) drawStatus() {
	if s := t.ctrl.Status(); s != t.status {
		t.status = s
		t.statusShown = 0
	}
	if t.status == "" || t.statusShown >= statusTicks {
		return
	}
	t.statusShown++
	t.drawText(0, t.status, tcell.StyleDefault.Reverse(true))
}

// drawText writes s on row y, centered and clipped.
func (t *Terminal) drawText(y int, s string, style tcell.Style) {
	runes := []rune(s)
	if len(runes) > t.cols {
		runes = runes[:t.cols]
	}
	x0 := (t.cols - len(runes)) / 2
	for i, r := range runes {
		t.screen.SetContent(x0+i, y, r, nil, style)
	}
}
