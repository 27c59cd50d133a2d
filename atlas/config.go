package atlas

import "math"

// minTolerance is the smallest scale or position tolerance the cache accepts.
// Smaller values are raised to it.
const minTolerance = 0.001

// Config holds cache configuration. It is fixed for the lifetime of a cache
// unless changed with Reconfigure.
type Config struct {
	// Width and Height are the atlas texture dimensions in pixels.
	// They must match the texture the uploads are written to.
	// Default: 256x256
	Width  uint32
	Height uint32

	// ScaleTolerance is the largest scale difference, in pixels, at which
	// two glyphs may share a bitmap. Raised to 0.001 if smaller.
	// Default: 0.1
	ScaleTolerance float32

	// PositionTolerance is the largest sub-pixel offset difference at which
	// two glyphs may share a bitmap. Values of 1 or more ignore sub-pixel
	// position entirely. Raised to 0.001 if smaller.
	// Default: 0.1
	PositionTolerance float32

	// PadGlyphs surrounds every glyph with a one pixel transparent border
	// so that bilinear sampling never bleeds into neighbours.
	// Default: true
	PadGlyphs bool

	// Align4x4 places glyphs on 4x4 texel boundaries, for backends that
	// require aligned texture updates.
	// Default: false
	Align4x4 bool
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Width:             256,
		Height:            256,
		ScaleTolerance:    0.1,
		PositionTolerance: 0.1,
		PadGlyphs:         true,
		Align4x4:          false,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Width == 0 {
		return &ConfigError{Field: "Width", Reason: "must be positive"}
	}
	if c.Height == 0 {
		return &ConfigError{Field: "Height", Reason: "must be positive"}
	}
	if !(c.ScaleTolerance >= 0) || math.IsInf(float64(c.ScaleTolerance), 0) {
		return &ConfigError{Field: "ScaleTolerance", Reason: "must be a non-negative number"}
	}
	if !(c.PositionTolerance >= 0) || math.IsInf(float64(c.PositionTolerance), 0) {
		return &ConfigError{Field: "PositionTolerance", Reason: "must be a non-negative number"}
	}
	return nil
}

// normalized returns the config with tolerances raised to minTolerance.
func (c Config) normalized() Config {
	c.ScaleTolerance = max(c.ScaleTolerance, minTolerance)
	c.PositionTolerance = max(c.PositionTolerance, minTolerance)
	return c
}
