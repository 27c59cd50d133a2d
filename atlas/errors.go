package atlas

import "errors"

// Sentinel errors for atlas package.
var (
	// ErrGlyphTooLarge is returned when a glyph can never fit the atlas,
	// even with every other glyph removed.
	ErrGlyphTooLarge = errors.New("atlas: glyph too large")

	// ErrNoRoomForWholeQueue is returned when a batch does not fit even
	// after the atlas has been cleared and repacked.
	ErrNoRoomForWholeQueue = errors.New("atlas: no room for whole queue")

	// ErrGlyphNotCached is returned by RectFor for glyphs that were never
	// cached or have since been evicted.
	ErrGlyphNotCached = errors.New("atlas: glyph not cached")

	// ErrNilRasterizer is returned by New when no rasterizer is given.
	ErrNilRasterizer = errors.New("atlas: nil rasterizer")

	// errRetry signals that the batch must be packed again from scratch.
	errRetry = errors.New("atlas: retry from empty atlas")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
