package trashcam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/params"
	"github.com/opd-ai/trashcam/source"
	"github.com/opd-ai/trashcam/video"
)

var (
	// ErrIdle indicates there is no active source, either because a flip is
	// in progress or because the last acquisition failed
	ErrIdle = errors.New("camera idle")

	// ErrNotStarted indicates Start has not completed successfully
	ErrNotStarted = errors.New("camera not started")

	// ErrAlreadyStarted indicates a second call to Start
	ErrAlreadyStarted = errors.New("camera already started")

	// ErrClosed indicates the camera has been closed
	ErrClosed = errors.New("camera closed")

	// ErrFlipInProgress indicates a flip was requested while one is running
	ErrFlipInProgress = errors.New("camera flip in progress")

	// ErrNoFrame indicates a snapshot was requested before any frame was rendered
	ErrNoFrame = errors.New("no frame rendered yet")
)

// Options contains configuration for creating a Camera.
type Options struct {
	// Source provides camera images. Required.
	Source source.Source
	// Controls is read once per frame. Defaults to a store with the
	// built-in default settings.
	Controls params.Controls
	// Exporter receives snapshots. Snapshot fails with ErrNoExporter when nil.
	Exporter Exporter
	// Facing is the initial camera direction.
	Facing source.Facing
	// Seed drives every random decision of the effects.
	Seed uint64
	// Geometry is the initial display geometry. Resolution is ignored; the
	// working size comes from the control settings.
	Geometry video.Geometry
	// AcquireTimeout bounds each Open call on the source.
	AcquireTimeout time.Duration
	// TimeProvider replaces the clock for frame timing, the date stamp and
	// snapshot names.
	TimeProvider video.TimeProvider
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		Facing: source.FacingEnvironment,
		Seed:   uint64(time.Now().UnixNano()),
		Geometry: video.Geometry{
			ViewportWidth:    1280,
			ViewportHeight:   720,
			DevicePixelRatio: 1,
		},
		AcquireTimeout: 15 * time.Second,
	}
}

// acquisition is the outcome of one Open call made by Flip.
type acquisition struct {
	facing source.Facing
	err    error
}

// Camera is one capture session: it owns the source lifecycle and drives the
// frame processor. Tick, Present and Snapshot must be called from a single
// goroutine (the display loop). Bend, Flip, Resize and Close may be called
// from any goroutine.
type Camera struct {
	id       uuid.UUID
	src      source.Source
	controls params.Controls
	exporter Exporter
	proc     *video.Processor
	comp     *video.Compositor
	timeout  time.Duration

	timeProvider video.TimeProvider

	bendRequested atomic.Bool
	invalidated   atomic.Bool
	acquired      chan acquisition

	mu        sync.Mutex
	facing    source.Facing
	geometry  video.Geometry
	started   bool
	active    bool
	switching bool
	closed    bool
	lastErr   error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a camera with the given options. The source is not opened
// until Start.
func New(options *Options) (*Camera, error) {
	if options == nil {
		options = NewOptions()
	}
	if options.Source == nil {
		return nil, errors.New("camera source is required")
	}

	def := NewOptions()
	facing := options.Facing
	if facing == "" {
		facing = def.Facing
	}
	controls := options.Controls
	if controls == nil {
		controls = params.NewStore(params.DefaultSettings())
	}
	timeout := options.AcquireTimeout
	if timeout <= 0 {
		timeout = def.AcquireTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Camera{
		id:           uuid.New(),
		src:          options.Source,
		controls:     controls,
		exporter:     options.Exporter,
		proc:         video.NewProcessor(options.Seed),
		comp:         video.NewCompositor(),
		timeout:      timeout,
		timeProvider: options.TimeProvider,
		acquired:     make(chan acquisition, 1),
		facing:       facing,
		geometry:     options.Geometry,
		ctx:          ctx,
		cancel:       cancel,
	}
	if options.TimeProvider != nil {
		c.proc.SetTimeProvider(options.TimeProvider)
	}

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"session":  c.id,
		"facing":   facing,
		"seed":     options.Seed,
	}).Info("Created camera session")

	return c, nil
}

// ID returns the session identifier used in log entries.
func (c *Camera) ID() uuid.UUID {
	return c.id
}

// Facing returns the direction of the current (or pending) source.
func (c *Camera) Facing() source.Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// Stats returns the frame processor statistics.
func (c *Camera) Stats() *video.FrameStats {
	return c.proc.Stats()
}

// Start opens the source and blocks until it delivers or fails. Failures are
// wrapped source errors; use errors.Is with source.ErrPermissionDenied and
// source.ErrDeviceUnavailable to tell them apart.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	facing := c.facing
	c.mu.Unlock()

	if err := c.open(ctx, facing); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return fmt.Errorf("start camera: %w", err)
	}

	c.mu.Lock()
	c.started = true
	c.active = true
	c.lastErr = nil
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Camera.Start",
		"session":  c.id,
		"facing":   facing,
	}).Info("Camera started")

	return nil
}

func (c *Camera) open(ctx context.Context, facing source.Facing) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.src.Open(ctx, facing)
}

// Flip switches to the opposite facing direction. The current source is
// stopped and the new one is acquired in the background; Tick reports
// ErrIdle until the acquisition completes.
func (c *Camera) Flip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return ErrClosed
	case !c.started:
		return ErrNotStarted
	case c.switching:
		return ErrFlipInProgress
	}

	c.facing = c.facing.Flip()
	c.switching = true
	c.active = false
	c.invalidated.Store(true)

	facing := c.facing
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.src.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Camera.Flip",
				"session":  c.id,
				"error":    err,
			}).Warn("Failed to stop previous source")
		}
		err := c.open(c.ctx, facing)
		c.acquired <- acquisition{facing: facing, err: err}
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Camera.Flip",
		"session":  c.id,
		"facing":   facing,
	}).Info("Switching camera")

	return nil
}

// Bend requests a bend burst. The request is applied on the next Tick.
func (c *Camera) Bend() {
	c.bendRequested.Store(true)
}

// Resize records a new display geometry. Buffers are reallocated on the
// next Tick.
func (c *Camera) Resize(width, height int, dpr float64) {
	c.mu.Lock()
	c.geometry.ViewportWidth = width
	c.geometry.ViewportHeight = height
	c.geometry.DevicePixelRatio = dpr
	c.mu.Unlock()

	c.invalidated.Store(true)
}

// SetAspect fixes the output aspect ratio (width / height). Zero follows the
// viewport.
func (c *Camera) SetAspect(aspect float64) {
	c.mu.Lock()
	c.geometry.Aspect = aspect
	c.mu.Unlock()

	c.invalidated.Store(true)
}

// Tick renders one frame. It never blocks: a pending flip result is
// consumed if available, and ErrIdle is returned while no source is active.
// The returned frame is owned by the camera and valid until the next Tick.
func (c *Camera) Tick() (*video.Frame, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if !c.started {
		c.mu.Unlock()
		return nil, ErrNotStarted
	}
	select {
	case res := <-c.acquired:
		c.finishFlip(res)
	default:
	}
	active, lastErr, geom := c.active, c.lastErr, c.geometry
	c.mu.Unlock()

	if c.invalidated.Swap(false) {
		c.proc.Invalidate()
	}
	if c.bendRequested.Swap(false) {
		c.proc.TriggerBend()
	}

	if !active {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrIdle, lastErr)
		}
		return nil, ErrIdle
	}

	img, _, _ := c.src.CurrentFrame()
	frame, err := c.proc.ProcessFrame(img, geom, c.controls.Snapshot())
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// finishFlip applies an acquisition result. c.mu must be held.
func (c *Camera) finishFlip(res acquisition) {
	c.switching = false
	c.active = res.err == nil
	c.lastErr = res.err

	fields := logrus.Fields{
		"function": "Camera.Tick",
		"session":  c.id,
		"facing":   res.facing,
	}
	if res.err != nil {
		fields["error"] = res.err
		logrus.WithFields(fields).Error("Camera switch failed")
		return
	}
	logrus.WithFields(fields).Info("Camera switched")
}

// Present composites the latest output frame into dst, letterboxed.
func (c *Camera) Present(dst *video.Frame) (video.Placement, error) {
	out := c.proc.Output()
	if out == nil {
		return video.Placement{}, ErrNoFrame
	}
	return c.comp.Composite(dst, out)
}

// Snapshot encodes the latest output frame as PNG and hands it to the
// exporter. It returns the file name used.
func (c *Camera) Snapshot(ctx context.Context) (string, error) {
	if c.exporter == nil {
		return "", ErrNoExporter
	}
	out := c.proc.Output()
	if out == nil {
		return "", ErrNoFrame
	}

	data, err := video.EncodePNG(out)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	name := video.SnapshotName(c.now())
	if err := c.exporter.Export(ctx, name, data); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", name, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Camera.Snapshot",
		"session":  c.id,
		"name":     name,
		"bytes":    len(data),
		"width":    out.Width,
		"height":   out.Height,
	}).Info("Snapshot exported")

	return name, nil
}

func (c *Camera) now() time.Time {
	if c.timeProvider != nil {
		return c.timeProvider.Now()
	}
	return time.Now()
}

// Close cancels any pending acquisition and releases the source. It is safe
// to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.active = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	err := c.src.Close()

	m := c.proc.Stats().GetMetrics()
	logrus.WithFields(logrus.Fields{
		"function":      "Camera.Close",
		"session":       c.id,
		"frames":        m.Frames,
		"skipped":       m.Skipped,
		"reallocations": m.Reallocations,
		"avg_frame":     m.AvgFrameTime,
		"peak_frame":    m.PeakFrameTime,
	}).Info("Camera closed")

	if err != nil {
		return fmt.Errorf("close source: %w", err)
	}
	return nil
}
