package font

import "errors"

var (
	// ErrEmptyFontData is returned when parsing empty font data.
	ErrEmptyFontData = errors.New("font: empty font data")
)
