// Package source provides frame sources for the TRASHCAM pipeline.
//
// A Source delivers the most recent camera image on demand. Three
// implementations are included:
//
//   - Pattern: an animated test card, used when no camera is available
//   - Still: a single decoded image file (PNG, JPEG, GIF, BMP, TIFF or WebP)
//   - MJPEG: a live camera read through an ffmpeg child process that
//     streams Motion JPEG on stdout
//
// Every source honors the facing direction. MJPEG maps each Facing onto its
// own capture device; Pattern and Still mirror the picture for the
// user-facing direction the way a front camera preview does.
//
// Sources are opened once per facing. Flipping the camera closes the
// current source and opens it again with the other facing:
//
//	src := source.NewMJPEG(source.DefaultMJPEGConfig())
//	if err := src.Open(ctx, source.FacingEnvironment); err != nil {
//	    if errors.Is(err, source.ErrPermissionDenied) {
//	        // tell the user to grant camera access
//	    }
//	    return err
//	}
//	defer src.Close()
//
//	img, w, h := src.CurrentFrame()
package source
