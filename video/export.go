package video

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"time"
)

// snapshotLayout mirrors an ISO 8601 UTC timestamp with milliseconds.
const snapshotLayout = "2006-01-02T15:04:05.000Z"

// EncodePNG encodes the frame as a PNG image.
func EncodePNG(frame *Frame) ([]byte, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, frame.Image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// SnapshotName returns a filesystem-safe snapshot filename for t, for example
// trashcam_2024-05-01T12-34-56-789Z.png.
func SnapshotName(t time.Time) string {
	stamp := t.UTC().Format(snapshotLayout)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "trashcam_" + stamp + ".png"
}
