package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	readChunkSize  = 4096
	maxFrameBytes  = 10 * 1024 * 1024
	stderrTailSize = 4096
	devicePattern  = "{device}"
	waitDelay      = 2 * time.Second
)

// JPEG markers
var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// MJPEGConfig configures the ffmpeg capture process.
type MJPEGConfig struct {
	FFmpegPath   string            // ffmpeg binary, looked up in PATH
	InputFormat  string            // ffmpeg -f input format (v4l2, avfoundation, dshow)
	Devices      map[Facing]string // capture device per facing direction
	Width        int               // requested capture width
	Height       int               // requested capture height
	FPS          int               // requested capture rate
	StartTimeout time.Duration     // how long Open waits for the first frame
	StaleAfter   time.Duration     // frames older than this are not served

	// Command replaces the generated ffmpeg invocation. Every "{device}"
	// argument is replaced with the device of the requested facing.
	Command []string
}

// DefaultMJPEGConfig returns settings for the platform's native capture API.
func DefaultMJPEGConfig() MJPEGConfig {
	cfg := MJPEGConfig{
		FFmpegPath:   "ffmpeg",
		Width:        1280,
		Height:       720,
		FPS:          30,
		StartTimeout: 10 * time.Second,
		StaleAfter:   5 * time.Second,
	}
	switch runtime.GOOS {
	case "darwin":
		cfg.InputFormat = "avfoundation"
		cfg.Devices = map[Facing]string{FacingEnvironment: "0", FacingUser: "1"}
	case "windows":
		cfg.InputFormat = "dshow"
		cfg.Devices = map[Facing]string{FacingEnvironment: "video=Integrated Camera"}
	default:
		cfg.InputFormat = "v4l2"
		cfg.Devices = map[Facing]string{FacingEnvironment: "/dev/video0", FacingUser: "/dev/video1"}
	}
	return cfg
}

// MJPEG reads a Motion JPEG stream from an ffmpeg child process. A pump
// goroutine splits the stream into JPEG images and keeps the latest decoded
// one for CurrentFrame.
type MJPEG struct {
	cfg MJPEGConfig

	mu        sync.RWMutex
	latest    image.Image
	lastFrame time.Time
	running   bool
	cancel    context.CancelFunc
	stdout    io.ReadCloser
	exited    chan struct{}
}

// NewMJPEG creates a capture source. Zero fields fall back to defaults.
func NewMJPEG(cfg MJPEGConfig) *MJPEG {
	def := DefaultMJPEGConfig()
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = def.InputFormat
	}
	if cfg.Devices == nil {
		cfg.Devices = def.Devices
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FPS <= 0 {
		cfg.FPS = def.FPS
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = def.StartTimeout
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	return &MJPEG{cfg: cfg}
}

// args builds the child process argv for a facing direction.
func (m *MJPEG) args(facing Facing) ([]string, error) {
	device, ok := m.cfg.Devices[facing]
	if !ok || device == "" {
		return nil, fmt.Errorf("%w: no device configured for %s facing", ErrDeviceUnavailable, facing)
	}

	if len(m.cfg.Command) > 0 {
		argv := make([]string, len(m.cfg.Command))
		for i, a := range m.cfg.Command {
			argv[i] = strings.ReplaceAll(a, devicePattern, device)
		}
		return argv, nil
	}

	return []string{
		m.cfg.FFmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-f", m.cfg.InputFormat,
		"-framerate", strconv.Itoa(m.cfg.FPS),
		"-video_size", fmt.Sprintf("%dx%d", m.cfg.Width, m.cfg.Height),
		"-i", device,
		"-f", "mjpeg",
		"-q:v", "5",
		"-",
	}, nil
}

// Open starts the capture process and blocks until the first frame is
// decoded, the process exits, the start timeout passes or ctx is done.
func (m *MJPEG) Open(ctx context.Context, facing Facing) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyOpen
	}
	m.mu.Unlock()

	argv, err := m.args(facing)
	if err != nil {
		return err
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, argv[0], argv[1:]...)
	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s not found", ErrDeviceUnavailable, argv[0])
		}
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: start %s: %v", ErrDeviceUnavailable, argv[0], err)
	}

	first := make(chan struct{})
	exited := make(chan struct{})
	var waitErr error

	m.mu.Lock()
	m.running = true
	m.cancel = cancel
	m.stdout = stdout
	m.exited = exited
	m.latest = nil
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "MJPEG.Open",
		"command":  argv[0],
		"device":   m.cfg.Devices[facing],
		"facing":   facing,
		"size":     fmt.Sprintf("%dx%d", m.cfg.Width, m.cfg.Height),
		"fps":      m.cfg.FPS,
	}).Info("Started capture process")

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		m.pump(stdout, first)
	}()
	go func() {
		// Wait closes stdout, so it must follow the last read.
		<-pumped
		waitErr = cmd.Wait()
		logrus.WithFields(logrus.Fields{
			"function": "MJPEG.Open",
			"error":    waitErr,
		}).Debug("Capture process exited")
		close(exited)
	}()

	timer := time.NewTimer(m.cfg.StartTimeout)
	defer timer.Stop()

	select {
	case <-first:
		return nil
	case <-exited:
		m.stop()
		return classifyStderr(stderr.String(), waitErr)
	case <-ctx.Done():
		m.stop()
		return ctx.Err()
	case <-timer.C:
		m.stop()
		return fmt.Errorf("%w: no frame within %v", ErrDeviceUnavailable, m.cfg.StartTimeout)
	}
}

// pump decodes frames until the stream ends.
func (m *MJPEG) pump(r io.Reader, first chan struct{}) {
	var once sync.Once
	err := SplitJPEG(r, func(data []byte) {
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "MJPEG.pump",
				"bytes":    len(data),
				"error":    err,
			}).Debug("Dropping undecodable frame")
			return
		}
		m.mu.Lock()
		m.latest = img
		m.lastFrame = time.Now()
		m.mu.Unlock()
		once.Do(func() { close(first) })
	})
	if err != nil && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
		logrus.WithFields(logrus.Fields{
			"function": "MJPEG.pump",
			"error":    err,
		}).Warn("Stream read error")
	}
}

// CurrentFrame returns the latest decoded image, or nil when none is fresh.
func (m *MJPEG) CurrentFrame() (image.Image, int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil || time.Since(m.lastFrame) > m.cfg.StaleAfter {
		return nil, 0, 0
	}
	b := m.latest.Bounds()
	return m.latest, b.Dx(), b.Dy()
}

// Close stops the capture process and waits for it to exit.
func (m *MJPEG) Close() error {
	m.stop()
	return nil
}

func (m *MJPEG) stop() {
	m.mu.Lock()
	cancel, stdout, exited := m.cancel, m.stdout, m.exited
	m.running = false
	m.cancel = nil
	m.stdout = nil
	m.exited = nil
	m.latest = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	// Unblocks the pump if a grandchild still holds the pipe open.
	_ = stdout.Close()
	<-exited

	logrus.WithFields(logrus.Fields{
		"function": "MJPEG.Close",
	}).Info("Capture process stopped")
}

// SplitJPEG reads a concatenated JPEG stream and calls emit once per
// complete image, delimited by the SOI and EOI markers. Bytes outside an
// image are discarded. emit must not retain the slice. Returns nil at EOF.
func SplitJPEG(r io.Reader, emit func([]byte)) error {
	buf := make([]byte, readChunkSize)
	var pending []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = extractFrames(pending, emit)
			if len(pending) > maxFrameBytes {
				logrus.WithFields(logrus.Fields{
					"function": "SplitJPEG",
					"bytes":    len(pending),
				}).Warn("Frame buffer overflow, resetting")
				pending = pending[:0]
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// extractFrames emits every complete image in data and returns the rest,
// moved to the front of the buffer.
func extractFrames(data []byte, emit func([]byte)) []byte {
	for {
		start := bytes.Index(data, jpegSOI)
		if start < 0 {
			// Keep a trailing 0xFF that may begin a marker split across reads.
			if len(data) > 0 && data[len(data)-1] == 0xFF {
				return append(data[:0], 0xFF)
			}
			return data[:0]
		}
		end := bytes.Index(data[start+2:], jpegEOI)
		if end < 0 {
			return append(data[:0], data[start:]...)
		}
		end += start + 2 + len(jpegEOI)
		emit(data[start:end])
		data = data[end:]
	}
}

// classifyStderr maps the capture tool's diagnostics onto sentinel errors.
func classifyStderr(stderr string, waitErr error) error {
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)
	for _, marker := range []string{"permission denied", "operation not permitted", "not authorized"} {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
		}
	}
	if msg == "" && waitErr != nil {
		msg = waitErr.Error()
	}
	if msg == "" {
		msg = "capture process exited"
	}
	return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
