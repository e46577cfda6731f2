// Package limits provides centralized geometry bounds and value coercion for
// the trashcam pipeline. Every buffer-sizing decision goes through these
// limits so that malformed control values can never produce a zero, negative
// or runaway buffer dimension.
//
// # Bound Hierarchy
//
//   - MinResolution (48 px) / MaxResolution (1080 px): the accepted range for
//     the working buffer short side (the "RES" control).
//   - DefaultResolution (280 px): used when the control value is missing or
//     cannot be parsed.
//   - MinLongSide (160 px): floor for the working buffer long side so that
//     extreme aspect ratios never collapse into a degenerate strip.
//   - MaxDevicePixelRatio (2): cap applied to the output buffer scale.
//   - MaxOutputPixels: the absolute maximum pixel count of any buffer.
//
// # Coercion Functions
//
// Coercion never fails; it clamps into a safe range:
//
//	res := limits.ClampResolution(userValue)
//	grit := limits.ClampUnit(float64(slider) / 100)
//
// Parsing distinguishes malformed input while still producing a usable value:
//
//	res, err := limits.ParseResolution("abc")
//	// res == DefaultResolution, errors.Is(err, limits.ErrNotNumeric)
//
// # Error Types
//
//   - ErrNotNumeric: the value could not be parsed as a number
//   - ErrOutOfRange: the value was outside the accepted range and was clamped
//   - ErrDimensionInvalid: a width or height is zero, negative or too large
package limits
