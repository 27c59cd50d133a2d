package atlas

import (
	"fmt"
	"image"
)

// FontID distinguishes glyphs of different fonts sharing one cache.
type FontID uint32

// GlyphID is the glyph index within a font.
type GlyphID uint32

// Vec2 is a 2D vector in pixels.
type Vec2 struct {
	X, Y float32
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// GlyphRequest is a single positioned glyph to cache or look up.
type GlyphRequest struct {
	// Font identifies the font the glyph belongs to.
	Font FontID

	// Glyph is the glyph index within the font.
	Glyph GlyphID

	// Scale is the horizontal and vertical scale in pixels per em.
	Scale Vec2

	// Position is the exact screen-space origin of the glyph. Its
	// fractional part is the sub-pixel offset used at rasterization time.
	Position Vec2
}

// WithPosition returns a copy of the request placed at p.
func (r GlyphRequest) WithPosition(p Vec2) GlyphRequest {
	r.Position = p
	return r
}

// Rasterizer produces glyph coverage. It is implemented by the font backend.
type Rasterizer interface {
	// Bounds returns the pixel bounding box of the glyph at its position.
	// It reports false for glyphs without a shape, such as spaces.
	Bounds(req GlyphRequest) (image.Rectangle, bool)

	// Draw calls fn for every covered pixel. x and y are relative to the
	// minimum of Bounds(req); v is the coverage in [0, 1].
	Draw(req GlyphRequest, fn func(x, y int, v float32))
}

// Uploader receives rasterized glyphs for the atlas texture.
type Uploader interface {
	// Upload writes pix into the atlas texture at r. pix is row-major
	// single-channel coverage (0-255) of length r.Dx()*r.Dy() and is only
	// valid for the duration of the call. Upload must not call back into
	// the cache.
	Upload(r image.Rectangle, pix []byte)
}

// UploaderFunc adapts an ordinary function to the Uploader interface.
type UploaderFunc func(r image.Rectangle, pix []byte)

// Upload calls f(r, pix).
func (f UploaderFunc) Upload(r image.Rectangle, pix []byte) { f(r, pix) }

// CachedBy reports how a successful CacheGlyphs call fit its batch.
type CachedBy int

const (
	// Adding means new glyphs were added without moving any glyph of the
	// batch that was already resident. Glyphs outside the batch may have
	// been evicted.
	Adding CachedBy = iota

	// Reordering means the atlas was cleared and the batch repacked.
	// All previously returned texture coordinates are invalid.
	Reordering
)

// String returns the string representation of the caching method.
func (c CachedBy) String() string {
	switch c {
	case Adding:
		return "Adding"
	case Reordering:
		return "Reordering"
	default:
		return fmt.Sprintf("CachedBy(%d)", int(c))
	}
}

// UVRect is a rectangle in normalized texture coordinates [0, 1].
type UVRect struct {
	U0, V0, U1, V1 float32
}

// TexCoords describes where a cached glyph is and where to draw it.
type TexCoords struct {
	// UV is the glyph's area of the atlas texture, without padding.
	UV UVRect

	// Pixels is the screen-space rectangle the glyph should be drawn at.
	Pixels image.Rectangle
}
