package gpu

import "errors"

var (
	// ErrNilDevice is returned when a texture is created without a device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")

	// ErrInvalidSize is returned for zero texture dimensions.
	ErrInvalidSize = errors.New("gpu: invalid texture size")

	// ErrDestroyed is returned by uploads to a destroyed texture.
	ErrDestroyed = errors.New("gpu: texture destroyed")
)
