package sink

import "errors"

var (
	// ErrCanvasClosed is returned when operating on a closed Canvas.
	ErrCanvasClosed = errors.New("sink: canvas is closed")

	// ErrNilTexture is returned when creating a Canvas without a texture.
	ErrNilTexture = errors.New("sink: nil texture")

	// ErrInvalidSize is returned for non-positive dimensions.
	ErrInvalidSize = errors.New("sink: invalid size")
)
