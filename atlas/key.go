package atlas

import "math"

// GlyphKey is the lossy identity of a cached glyph. Scale and sub-pixel
// offset are divided by the cache tolerances and rounded, so requests that
// would rasterize to visually identical bitmaps map to the same key.
type GlyphKey struct {
	Font  FontID
	Glyph GlyphID

	// ScaleBucket is the X and Y scale divided by the scale tolerance.
	ScaleBucket [2]uint32

	// OffsetBucket is the sub-pixel offset, shifted from [-0.5, 0.5] to
	// [0, 1], divided by the position tolerance. With the minimum tolerance
	// of 0.001 this is at most 1000, so uint16 is enough.
	OffsetBucket [2]uint16
}

// keyFor returns the lossy key of req under the cache tolerances.
func (c *Cache) keyFor(req GlyphRequest) GlyphKey {
	off := normalizedOffset(req.Position)
	st, pt := c.cfg.ScaleTolerance, c.cfg.PositionTolerance
	return GlyphKey{
		Font:  req.Font,
		Glyph: req.Glyph,
		ScaleBucket: [2]uint32{
			scaleBucket(req.Scale.X, st),
			scaleBucket(req.Scale.Y, st),
		},
		OffsetBucket: [2]uint16{
			offsetBucket(off.X, pt),
			offsetBucket(off.Y, pt),
		},
	}
}

func scaleBucket(scale, tolerance float32) uint32 {
	v := float64(scale)/float64(tolerance) + 0.5
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

func offsetBucket(offset, tolerance float32) uint16 {
	v := float64(offset+0.5)/float64(tolerance) + 0.5
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

// normalizedOffset returns the fractional part of p wrapped to [-0.5, 0.5].
func normalizedOffset(p Vec2) Vec2 {
	return Vec2{X: wrapFract(p.X), Y: wrapFract(p.Y)}
}

func wrapFract(v float32) float32 {
	f := v - float32(math.Trunc(float64(v)))
	switch {
	case f > 0.5:
		f--
	case f < -0.5:
		f++
	}
	return f
}
