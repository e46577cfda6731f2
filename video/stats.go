package video

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// statsLogInterval is how many processed frames pass between metric log lines.
const statsLogInterval = 300

// FrameStats tracks pipeline throughput. Counters are atomic so a display
// goroutine may read metrics while the frame loop records them.
type FrameStats struct {
	frames      int64
	skipped     int64
	reallocated int64

	enableDetailedLogging int32 // 0 = disabled, 1 = enabled

	avgFrameTime  time.Duration
	peakFrameTime time.Duration
	metricsLock   sync.RWMutex
}

// FrameMetrics is a point-in-time copy of FrameStats.
type FrameMetrics struct {
	Frames        int64         // Frames fully processed
	Skipped       int64         // Frames skipped for lack of input or geometry
	Reallocations int64         // Buffer reallocations
	AvgFrameTime  time.Duration // Exponential moving average of processing time
	PeakFrameTime time.Duration // Maximum observed processing time
}

// NewFrameStats creates an empty statistics tracker.
func NewFrameStats() *FrameStats {
	return &FrameStats{}
}

// Record adds one processed frame.
func (fs *FrameStats) Record(elapsed time.Duration) {
	n := atomic.AddInt64(&fs.frames, 1)

	fs.metricsLock.Lock()
	if fs.avgFrameTime == 0 {
		fs.avgFrameTime = elapsed
	} else {
		// EMA with alpha = 0.1 for smooth averaging
		fs.avgFrameTime = time.Duration(float64(fs.avgFrameTime)*0.9 + float64(elapsed)*0.1)
	}
	if elapsed > fs.peakFrameTime {
		fs.peakFrameTime = elapsed
	}
	avg, peak := fs.avgFrameTime, fs.peakFrameTime
	fs.metricsLock.Unlock()

	if n%statsLogInterval == 0 || fs.IsDetailedLoggingEnabled() {
		logrus.WithFields(logrus.Fields{
			"function":      "FrameStats.Record",
			"frames":        n,
			"skipped":       atomic.LoadInt64(&fs.skipped),
			"avg_frame_ms":  float64(avg) / float64(time.Millisecond),
			"peak_frame_ms": float64(peak) / float64(time.Millisecond),
		}).Debug("Frame statistics")
	}
}

// Skip counts a frame that produced no output.
func (fs *FrameStats) Skip() {
	atomic.AddInt64(&fs.skipped, 1)
}

// Reallocated counts a buffer reallocation.
func (fs *FrameStats) Reallocated() {
	atomic.AddInt64(&fs.reallocated, 1)
}

// EnableDetailedLogging logs metrics on every frame instead of periodically.
func (fs *FrameStats) EnableDetailedLogging(enabled bool) {
	var v int32
	if enabled {
		v = 1
	}
	atomic.StoreInt32(&fs.enableDetailedLogging, v)
}

// IsDetailedLoggingEnabled reports whether per-frame logging is on.
func (fs *FrameStats) IsDetailedLoggingEnabled() bool {
	return atomic.LoadInt32(&fs.enableDetailedLogging) == 1
}

// GetMetrics returns current statistics.
func (fs *FrameStats) GetMetrics() FrameMetrics {
	fs.metricsLock.RLock()
	defer fs.metricsLock.RUnlock()

	return FrameMetrics{
		Frames:        atomic.LoadInt64(&fs.frames),
		Skipped:       atomic.LoadInt64(&fs.skipped),
		Reallocations: atomic.LoadInt64(&fs.reallocated),
		AvgFrameTime:  fs.avgFrameTime,
		PeakFrameTime: fs.peakFrameTime,
	}
}
