// Package font adapts TrueType and OpenType fonts to the atlas and layout
// packages.
//
// [Face] parses a font with golang.org/x/image/font/opentype and implements
// both [atlas.Rasterizer], drawing glyph outlines with
// golang.org/x/image/vector, and [layout.FontMetrics]. [ShapedMetrics] is an
// alternative [layout.FontMetrics] that measures text with the HarfBuzz
// shaper of github.com/go-text/typesetting, picking up GPOS kerning that the
// legacy kern table lookup of [Face] misses.
package font
