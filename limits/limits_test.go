package limits

import (
	"errors"
	"math"
	"testing"
)

// TestClampResolution tests coercion of the working buffer short side
func TestClampResolution(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero falls back to default", 0, DefaultResolution},
		{"negative falls back to default", -40, DefaultResolution},
		{"below minimum", 10, MinResolution},
		{"minimum", MinResolution, MinResolution},
		{"typical", 280, 280},
		{"maximum", MaxResolution, MaxResolution},
		{"above maximum", 5000, MaxResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampResolution(tt.in); got != tt.want {
				t.Errorf("ClampResolution(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestParseResolution tests parsing of textual control values
func TestParseResolution(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr error
	}{
		{"integer", "220", 220, nil},
		{"padded", "  420 ", 420, nil},
		{"fractional rounds", "199.6", 200, nil},
		{"not numeric", "abc", DefaultResolution, ErrNotNumeric},
		{"empty", "", DefaultResolution, ErrNotNumeric},
		{"NaN", "NaN", DefaultResolution, ErrNotNumeric},
		{"too small", "2", MinResolution, ErrOutOfRange},
		{"too large", "99999", MaxResolution, ErrOutOfRange},
		{"negative", "-5", DefaultResolution, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResolution(tt.in)
			if got != tt.want {
				t.Errorf("ParseResolution(%q) = %d, want %d", tt.in, got, tt.want)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("ParseResolution(%q) unexpected error %v", tt.in, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseResolution(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestClampUnit(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := ClampUnit(tt.in); got != tt.want {
			t.Errorf("ClampUnit(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPercentToUnit(t *testing.T) {
	if got := PercentToUnit(72); math.Abs(got-0.72) > 1e-12 {
		t.Errorf("PercentToUnit(72) = %v, want 0.72", got)
	}
	if got := PercentToUnit(150); got != 1 {
		t.Errorf("PercentToUnit(150) = %v, want 1", got)
	}
	if got := PercentToUnit(-3); got != 0 {
		t.Errorf("PercentToUnit(-3) = %v, want 0", got)
	}
}

func TestClampDevicePixelRatio(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{-2, 1},
		{math.NaN(), 1},
		{1.5, 1.5},
		{3, MaxDevicePixelRatio},
	}
	for _, tt := range tests {
		if got := ClampDevicePixelRatio(tt.in); got != tt.want {
			t.Errorf("ClampDevicePixelRatio(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestValidateDimensions tests buffer allocation guards
func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"valid", 640, 480, false},
		{"zero width", 0, 480, true},
		{"negative height", 640, -1, true},
		{"too many pixels", 100000, 100000, true},
		{"area overflows int", 1 << 32, 1 << 32, true},
		{"huge side", math.MaxInt, 1, true},
		{"long strip", MaxOutputPixels, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.w, tt.h)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDimensions(%d, %d) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDimensionInvalid) {
				t.Errorf("error %v does not wrap ErrDimensionInvalid", err)
			}
		})
	}
}

// TestClampViewport tests uniform scaling of oversized display surfaces
func TestClampViewport(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"unchanged", 1920, 1080, 1920, 1080},
		{"at limit", MaxViewportSide, 10, MaxViewportSide, 10},
		{"landscape scaled", 2 * MaxViewportSide, MaxViewportSide, MaxViewportSide, MaxViewportSide / 2},
		{"huge square", 1 << 32, 1 << 32, MaxViewportSide, MaxViewportSide},
		{"thin strip keeps one pixel", 1 << 40, 1, MaxViewportSide, 1},
		{"non-positive untouched", 0, -3, 0, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ClampViewport(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ClampViewport(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

// TestConstantConsistency verifies internal consistency of the geometry constants
func TestConstantConsistency(t *testing.T) {
	if MinResolution >= MaxResolution {
		t.Errorf("MinResolution (%d) should be < MaxResolution (%d)", MinResolution, MaxResolution)
	}
	if ClampResolution(DefaultResolution) != DefaultResolution {
		t.Errorf("DefaultResolution (%d) must survive clamping", DefaultResolution)
	}
	if MaxViewportSide*MaxViewportSide*MaxDevicePixelRatio*MaxDevicePixelRatio < MaxOutputPixels {
		t.Errorf("MaxViewportSide (%d) cannot reach MaxOutputPixels", MaxViewportSide)
	}
	if MinLongSide < MinResolution {
		t.Errorf("MinLongSide (%d) should be >= MinResolution (%d)", MinLongSide, MinResolution)
	}
	if MaxDevicePixelRatio < 1 {
		t.Errorf("MaxDevicePixelRatio must be >= 1, got %v", MaxDevicePixelRatio)
	}
}
