// Package params defines the control values the trashcam pipeline reads once
// per frame.
//
// The pipeline never reads UI state directly. A Controls implementation (the
// control surface) hands out an immutable Settings snapshot, which combines
// the continuous Distortion parameters and the per-effect enable flags:
//
//	store := params.NewStore(params.DefaultSettings())
//	store.ApplyPreset(params.PresetNeon)
//	store.SetSlider(params.SliderGrit, 40)
//
//	settings := store.Snapshot() // value copy, safe to keep for one frame
//
// Presets mirror the built-in looks (mall, buffer, neon, digi) and can be
// extended from a YAML file:
//
//	presets, err := params.LoadPresetFile("presets.yaml")
//
// The Store is safe for concurrent use: input handlers write to it while the
// frame loop reads snapshots.
package params
