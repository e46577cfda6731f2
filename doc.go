// Package trashcam turns a live camera feed into a stream of deliberately
// corrupted frames.
//
// A [Camera] owns one capture session. It opens a [source.Source], pulls the
// newest image once per display frame, runs it through the video pipeline
// (cover-fit, pixel effects, upscale, layer effects) and letterboxes the
// result onto the display surface. Snapshots of the processed frame are PNG
// encoded and handed to an [Exporter].
//
// # Getting Started
//
//	store := params.NewStore(params.DefaultSettings())
//	exporter, err := trashcam.NewDirExporter("snapshots")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	options := trashcam.NewOptions()
//	options.Source = source.NewPattern(1280, 720)
//	options.Controls = store
//	options.Exporter = exporter
//
//	cam, err := trashcam.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cam.Close()
//
//	if err := cam.Start(ctx); err != nil {
//	    log.Fatal(err) // source.ErrPermissionDenied, source.ErrDeviceUnavailable
//	}
//
//	for running {
//	    frame, err := cam.Tick()
//	    switch {
//	    case errors.Is(err, trashcam.ErrIdle):
//	        // switching cameras, show a placeholder
//	    case video.IsSkipped(err):
//	        // source not ready yet
//	    case err == nil:
//	        cam.Present(screen)
//	    }
//	}
//
// # Concurrency
//
// Tick, Present and Snapshot belong to the display loop and must be called
// from one goroutine. Bend, Flip, Resize, SetAspect and Close may be called
// from input handlers on any goroutine. Flip never blocks: the new source is
// acquired in the background and Tick returns [ErrIdle] until it is ready.
//
// # Controls
//
// The camera reads a [params.Controls] snapshot once per frame, so control
// changes never tear a frame. [params.Store] is the mutable implementation
// used by the displays.
package trashcam
