package params

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/trashcam/limits"
)

// SliderID names a continuous control.
type SliderID string

const (
	SliderGrit    SliderID = "grit"
	SliderCorrupt SliderID = "corrupt"
	SliderChroma  SliderID = "chroma"
	SliderPalette SliderID = "palette"
)

// Store is the mutable control surface. Writers are input handlers; the frame
// loop only calls Snapshot.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	presets  map[string]Preset
	order    []string
}

// NewStore creates a store seeded with the given settings and the built-in presets.
func NewStore(initial Settings) *Store {
	s := &Store{
		settings: Settings{Distortion: initial.Distortion.Normalized(), Effects: initial.Effects},
		presets:  make(map[string]Preset),
	}
	for _, p := range builtinPresets {
		s.addPreset(p)
	}
	return s
}

// Snapshot returns the current settings by value.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSlider sets a continuous control from a [0, 100] slider value.
func (s *Store) SetSlider(id SliderID, percent int) error {
	v := limits.PercentToUnit(percent)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch id {
	case SliderGrit:
		s.settings.Distortion.Grit = v
	case SliderCorrupt:
		s.settings.Distortion.Corrupt = v
	case SliderChroma:
		s.settings.Distortion.Chroma = v
	case SliderPalette:
		s.settings.Distortion.Palette = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSlider, id)
	}
	return nil
}

// SetResolution sets the working buffer short side, clamped to the safe range.
func (s *Store) SetResolution(res int) {
	s.mu.Lock()
	s.settings.Distortion.Resolution = limits.ClampResolution(res)
	s.mu.Unlock()
}

// SetEffect switches a single effect on or off.
func (s *Store) SetEffect(id EffectID, on bool) {
	s.mu.Lock()
	s.settings.Effects = s.settings.Effects.With(id, on)
	s.mu.Unlock()
}

// Toggle flips a single effect and returns its new state.
func (s *Store) Toggle(id EffectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := !s.settings.Effects.Enabled(id)
	s.settings.Effects = s.settings.Effects.With(id, on)
	return on
}

// NextPalette rotates to the next palette selection and returns it.
func (s *Store) NextPalette() PaletteName {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.settings.Distortion.PaletteName
	next := PaletteNames[0]
	for i, p := range PaletteNames {
		if p == current {
			next = PaletteNames[(i+1)%len(PaletteNames)]
			break
		}
	}
	s.settings.Distortion.PaletteName = next
	return next
}

// AddPresets registers custom presets. A preset with a built-in name replaces it.
func (s *Store) AddPresets(presets []Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range presets {
		s.addPreset(p)
	}
}

func (s *Store) addPreset(p Preset) {
	if _, exists := s.presets[p.Name]; !exists {
		s.order = append(s.order, p.Name)
	}
	s.presets[p.Name] = p
}

// PresetNames lists registered presets in registration order.
func (s *Store) PresetNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// ApplyPreset replaces every control with the named preset.
func (s *Store) ApplyPreset(name string) error {
	s.mu.Lock()
	p, ok := s.presets[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	s.settings = p.Settings()
	d := s.settings.Distortion
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Store.ApplyPreset",
		"preset":     name,
		"grit":       d.Grit,
		"corrupt":    d.Corrupt,
		"chroma":     d.Chroma,
		"palette":    d.Palette,
		"resolution": d.Resolution,
	}).Info("Applied preset")

	return nil
}
