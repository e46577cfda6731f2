// Package display hosts the interactive surfaces that drive a camera session.
//
// A [Controller] turns device independent [Action] values into calls on a
// [Pipeline] and a [params.Store]. [Terminal] renders into any tcell screen using upper half
// blocks, so each cell shows two vertically stacked pixels with true color.
// The windowed ebiten surface lives in the window subpackage.
//
// Keys:
//
//	b, space   bend burst
//	f          flip camera
//	s          snapshot
//	1-4        presets
//	p          next palette
//	v, Tab     select slider (grit, corrupt, chroma, palette, res)
//	+, up      raise selected slider
//	-, down    lower selected slider
//	k t c r n  toggle blocks, tear, bitcrush, rgb split, noise
//	o m e a d  toggle false color, mash, feedback, bars, date
//	q, Esc     quit
package display
