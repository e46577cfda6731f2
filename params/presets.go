package params

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/opd-ai/trashcam/limits"
)

// Built-in preset names.
const (
	PresetMall   = "mall"
	PresetBuffer = "buffer"
	PresetNeon   = "neon"
	PresetDigi   = "digi"
)

// Preset is a named look. Slider values are percentages in [0, 100],
// matching the control surface sliders.
type Preset struct {
	Name       string      `yaml:"name"`
	Grit       int         `yaml:"grit"`
	Corrupt    int         `yaml:"corrupt"`
	Chroma     int         `yaml:"chroma"`
	Palette    int         `yaml:"palette"`
	Resolution int         `yaml:"res"`
	PaletteMap PaletteName `yaml:"palette_name"`
	Effects    []EffectID  `yaml:"effects"`
}

// Settings converts the preset into a normalized Settings snapshot.
func (p Preset) Settings() Settings {
	var fx Effects
	for _, id := range p.Effects {
		fx = fx.With(id, true)
	}
	d := Distortion{
		Grit:        limits.PercentToUnit(p.Grit),
		Corrupt:     limits.PercentToUnit(p.Corrupt),
		Chroma:      limits.PercentToUnit(p.Chroma),
		Palette:     limits.PercentToUnit(p.Palette),
		Resolution:  p.Resolution,
		PaletteName: p.PaletteMap,
	}
	return Settings{Distortion: d.Normalized(), Effects: fx}
}

var builtinPresets = []Preset{
	{
		Name: PresetMall, Grit: 72, Corrupt: 52, Chroma: 35, Palette: 25, Resolution: 280,
		PaletteMap: PaletteNeon,
		Effects:    []EffectID{EffectBlocks, EffectTear, EffectBitcrush, EffectRGBSplit, EffectFeedback, EffectNoise, EffectDate},
	},
	{
		Name: PresetBuffer, Grit: 80, Corrupt: 70, Chroma: 62, Palette: 65, Resolution: 220,
		PaletteMap: PaletteVHS,
		Effects: []EffectID{EffectBlocks, EffectTear, EffectBitcrush, EffectRGBSplit, EffectFeedback,
			EffectNoise, EffectFalseColor, EffectMash, EffectBars, EffectDate},
	},
	{
		Name: PresetNeon, Grit: 86, Corrupt: 62, Chroma: 70, Palette: 90, Resolution: 200,
		PaletteMap: PaletteNeon,
		Effects: []EffectID{EffectBlocks, EffectBitcrush, EffectRGBSplit, EffectFeedback,
			EffectNoise, EffectFalseColor, EffectDate},
	},
	{
		Name: PresetDigi, Grit: 30, Corrupt: 18, Chroma: 20, Palette: 25, Resolution: 420,
		PaletteMap: PaletteCCD,
		Effects:    []EffectID{EffectRGBSplit, EffectNoise, EffectDate},
	},
}

// BuiltinNames returns the built-in preset names in key order (1-4).
func BuiltinNames() []string {
	names := make([]string, len(builtinPresets))
	for i, p := range builtinPresets {
		names[i] = p.Name
	}
	return names
}

// Builtin looks up a built-in preset by name.
func Builtin(name string) (Preset, error) {
	for _, p := range builtinPresets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets decodes a YAML preset document.
//
// Format:
//
//	presets:
//	  - name: night
//	    grit: 60
//	    corrupt: 40
//	    chroma: 30
//	    palette: 50
//	    res: 240
//	    palette_name: thermal
//	    effects: [blocks, bitcrush, noise, date]
func LoadPresets(r io.Reader) ([]Preset, error) {
	var doc presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	for i := range doc.Presets {
		p := &doc.Presets[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: missing name", i)
		}
		for j, id := range p.Effects {
			parsed, err := ParseEffectID(string(id))
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", p.Name, err)
			}
			p.Effects[j] = parsed
		}
		if p.Resolution == 0 {
			p.Resolution = limits.DefaultResolution
		}
		if p.PaletteMap != "" {
			name, err := ParsePaletteName(string(p.PaletteMap))
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", p.Name, err)
			}
			p.PaletteMap = name
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "LoadPresets",
		"count":    len(doc.Presets),
	}).Debug("Decoded preset document")

	return doc.Presets, nil
}

// LoadPresetFile reads presets from a YAML file on disk.
func LoadPresetFile(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preset file: %w", err)
	}
	defer f.Close()

	presets, err := LoadPresets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "LoadPresetFile",
		"path":     path,
		"count":    len(presets),
	}).Info("Loaded custom presets")

	return presets, nil
}
