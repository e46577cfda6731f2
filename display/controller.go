package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam"
	"github.com/opd-ai/trashcam/params"
	"github.com/opd-ai/trashcam/video"
)

// Pipeline is the part of a camera session a display drives.
type Pipeline interface {
	Tick() (*video.Frame, error)
	Present(dst *video.Frame) (video.Placement, error)
	Resize(width, height int, dpr float64)
	Bend()
	Flip() error
	Snapshot(ctx context.Context) (string, error)
}

// Action is a user command, independent of the input device.
type Action int

const (
	ActionNone Action = iota
	ActionBend
	ActionFlip
	ActionSnapshot
	ActionNextPalette
	ActionQuit
	// ActionPreset1 is followed by ActionPreset2..ActionPreset4.
	ActionPreset1
	ActionPreset2
	ActionPreset3
	ActionPreset4
	// ActionNextSlider selects the control stepped by ActionSliderUp and
	// ActionSliderDown.
	ActionNextSlider
	ActionSliderUp
	ActionSliderDown
	// ActionToggleBlocks..ActionToggleDate follow params.AllEffects order.
	ActionToggleBlocks
	ActionToggleTear
	ActionToggleBitcrush
	ActionToggleRGBSplit
	ActionToggleNoise
	ActionToggleFalseColor
	ActionToggleMash
	ActionToggleFeedback
	ActionToggleBars
	ActionToggleDate
)

// Effect returns the effect switched by a toggle action.
func (a Action) Effect() (params.EffectID, bool) {
	if a < ActionToggleBlocks || a > ActionToggleDate {
		return "", false
	}
	return params.AllEffects[a-ActionToggleBlocks], true
}

// String returns the action name used in logs.
func (a Action) String() string {
	if id, ok := a.Effect(); ok {
		return "toggle_" + string(id)
	}
	switch a {
	case ActionBend:
		return "bend"
	case ActionFlip:
		return "flip"
	case ActionSnapshot:
		return "snapshot"
	case ActionNextPalette:
		return "next_palette"
	case ActionQuit:
		return "quit"
	case ActionPreset1, ActionPreset2, ActionPreset3, ActionPreset4:
		return fmt.Sprintf("preset_%d", a-ActionPreset1+1)
	case ActionNextSlider:
		return "next_slider"
	case ActionSliderUp:
		return "slider_up"
	case ActionSliderDown:
		return "slider_down"
	default:
		return "none"
	}
}

// toggleRunes maps typed characters to effect toggles.
var toggleRunes = map[rune]Action{
	'k': ActionToggleBlocks,
	't': ActionToggleTear,
	'c': ActionToggleBitcrush,
	'r': ActionToggleRGBSplit,
	'n': ActionToggleNoise,
	'o': ActionToggleFalseColor,
	'm': ActionToggleMash,
	'e': ActionToggleFeedback,
	'a': ActionToggleBars,
	'd': ActionToggleDate,
}

// ActionForRune maps a typed character to an action.
func ActionForRune(r rune) Action {
	switch r {
	case 'b', 'B', ' ':
		return ActionBend
	case 'f', 'F':
		return ActionFlip
	case 's', 'S':
		return ActionSnapshot
	case 'p', 'P':
		return ActionNextPalette
	case 'q', 'Q':
		return ActionQuit
	case '1', '2', '3', '4':
		return ActionPreset1 + Action(r-'1')
	case 'v', 'V', '\t':
		return ActionNextSlider
	case '+', '=':
		return ActionSliderUp
	case '-', '_':
		return ActionSliderDown
	}
	if a, ok := toggleRunes[unicode.ToLower(r)]; ok {
		return a
	}
	return ActionNone
}

// Slider steps.
const (
	sliderStep     = 5  // percentage points
	resolutionStep = 20 // pixels of working short side
)

// sliderResolution selects the working resolution, which is stepped in
// pixels instead of percent.
const sliderResolution params.SliderID = "res"

// sliderOrder is the selection order of ActionNextSlider.
var sliderOrder = []params.SliderID{
	params.SliderGrit,
	params.SliderCorrupt,
	params.SliderChroma,
	params.SliderPalette,
	sliderResolution,
}

// Controller applies actions to a pipeline and its control store, and keeps
// a one-line status for the display to show.
type Controller struct {
	pipeline Pipeline
	store    *params.Store

	mu     sync.Mutex
	status string
	slider int
}

// NewController creates a controller. store may be nil, in which case the
// preset, palette, slider and toggle actions are ignored.
func NewController(pipeline Pipeline, store *params.Store) *Controller {
	return &Controller{pipeline: pipeline, store: store}
}

// Pipeline returns the driven pipeline.
func (c *Controller) Pipeline() Pipeline {
	return c.pipeline
}

// Status returns the last status message.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(format string, args ...interface{}) {
	c.mu.Lock()
	c.status = fmt.Sprintf(format, args...)
	c.mu.Unlock()
}

// Handle applies a. It returns false when the display should quit.
func (c *Controller) Handle(ctx context.Context, a Action) bool {
	switch a {
	case ActionNone:
	case ActionQuit:
		return false
	case ActionBend:
		c.pipeline.Bend()
	case ActionFlip:
		if err := c.pipeline.Flip(); err != nil {
			c.setStatus("flip: %v", err)
			c.logFailure(a, err)
		} else {
			c.setStatus("switching camera")
		}
	case ActionSnapshot:
		name, err := c.pipeline.Snapshot(ctx)
		if err != nil {
			c.setStatus("snapshot failed: %v", err)
			c.logFailure(a, err)
		} else {
			c.setStatus("saved %s", name)
		}
	case ActionNextPalette:
		if c.store != nil {
			c.setStatus("palette %s", c.store.NextPalette())
		}
	case ActionPreset1, ActionPreset2, ActionPreset3, ActionPreset4:
		c.applyPreset(int(a - ActionPreset1))
	case ActionNextSlider:
		c.nextSlider()
	case ActionSliderUp:
		c.stepSlider(a, 1)
	case ActionSliderDown:
		c.stepSlider(a, -1)
	default:
		if id, ok := a.Effect(); ok && c.store != nil {
			c.setStatus("%s %s", id, onOff(c.store.Toggle(id)))
		}
	}
	return true
}

// Slider returns the control currently selected for stepping.
func (c *Controller) Slider() params.SliderID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sliderOrder[c.slider]
}

func (c *Controller) nextSlider() {
	if c.store == nil {
		return
	}
	c.mu.Lock()
	c.slider = (c.slider + 1) % len(sliderOrder)
	c.mu.Unlock()
	c.setStatus("%s", c.describe(c.Slider()))
}

// stepSlider moves the selected control one step in direction dir.
func (c *Controller) stepSlider(a Action, dir int) {
	if c.store == nil {
		return
	}
	id := c.Slider()
	d := c.store.Snapshot().Distortion

	if id == sliderResolution {
		c.store.SetResolution(d.Resolution + dir*resolutionStep)
		c.setStatus("%s", c.describe(id))
		return
	}

	percent, err := d.Slider(id)
	if err == nil {
		err = c.store.SetSlider(id, percent+dir*sliderStep)
	}
	if err != nil {
		c.setStatus("%s: %v", id, err)
		c.logFailure(a, err)
		return
	}
	c.setStatus("%s", c.describe(id))
}

// describe formats the current value of a control for the status line.
func (c *Controller) describe(id params.SliderID) string {
	d := c.store.Snapshot().Distortion
	if id == sliderResolution {
		return fmt.Sprintf("res %dpx", d.Resolution)
	}
	percent, err := d.Slider(id)
	if err != nil {
		return string(id)
	}
	return fmt.Sprintf("%s %d%%", id, percent)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (c *Controller) applyPreset(index int) {
	if c.store == nil {
		return
	}
	names := c.store.PresetNames()
	if index < 0 || index >= len(names) {
		return
	}
	if err := c.store.ApplyPreset(names[index]); err != nil {
		c.setStatus("preset: %v", err)
		c.logFailure(ActionPreset1+Action(index), err)
		return
	}
	c.setStatus("preset %s", names[index])
}

func (c *Controller) logFailure(a Action, err error) {
	logrus.WithFields(logrus.Fields{
		"function": "Controller.Handle",
		"action":   a.String(),
		"error":    err,
	}).Warn("Action failed")
}

// IsIdle reports whether err from Tick or Present only means that there is
// nothing to show this time around.
func IsIdle(err error) bool {
	return video.IsSkipped(err) ||
		errors.Is(err, trashcam.ErrIdle) ||
		errors.Is(err, trashcam.ErrNoFrame)
}
