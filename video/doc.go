// Package video implements the TRASHCAM frame pipeline.
//
// Every camera frame is rendered through a fixed sequence of "analog decay"
// transforms: block glitching, scanline tearing, bit-depth crushing, RGB
// channel offset, sensor noise, false color, channel mash, feedback smear,
// data bars and a burned-in date stamp.
//
// # Architecture Overview
//
// A frame travels through three buffers owned by the BufferManager:
//
//	Source → CoverFit → working frame → pixel chain → upscale → output frame → layer chain → Compositor
//
// The working frame is small (its short side is the resolution control) so
// that the pixel chain stays cheap and the nearest-neighbor upscale produces
// visible blocks. The output frame matches the display surface.
//
// # Frames
//
// Frames are RGBA with 4 bytes per pixel:
//
//	frame, err := video.NewFrame(320, 180)
//	if err != nil {
//	    return fmt.Errorf("allocation failed: %w", err)
//	}
//	img := frame.Image() // *image.RGBA sharing frame.Pix
//
// # Buffer Geometry
//
// Buffer sizes are a pure function of the Geometry:
//
//	layout := video.ComputeLayout(video.Geometry{
//	    ViewportWidth:    800,
//	    ViewportHeight:   600,
//	    DevicePixelRatio: 2,
//	    Resolution:       280,
//	})
//	// layout.Output is 1600x1200, layout.Working is 373x280
//
// The BufferManager caches the geometry and reallocates only when it changes
// or after Invalidate.
//
// # Effects
//
// Effects mutate a frame in place and read their drivers from a FrameContext:
//
//	chain := video.NewEffectChain()
//	chain.AddEffect(video.NewBitcrushEffect())
//	chain.AddEffect(video.NewNoiseEffect())
//
//	err := chain.Apply(frame, fc)
//
// The chain skips effects that are switched off in fc.Settings.Effects.
// Randomness comes from fc.Rand, which derives an independent stream per
// effect from the session seed and the frame index.
//
// # Video Processor
//
// The Processor combines buffers, chains and state:
//
//	processor := video.NewProcessor(seed)
//	out, err := processor.ProcessFrame(img, geom, controls.Snapshot())
//	if video.IsSkipped(err) {
//	    // keep showing the previous frame
//	}
//
// # Deterministic Testing
//
// For reproducible tests, inject a custom TimeProvider and a fixed seed:
//
//	processor := video.NewProcessor(42)
//	processor.SetTimeProvider(mockTime)
//
// # Thread Safety
//
// Types in this package are NOT thread-safe. The Processor is meant to be
// driven by one goroutine; FrameStats is the exception and may be read
// concurrently.
package video
