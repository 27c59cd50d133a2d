// Package glyphcache renders text from a dynamic glyph atlas.
//
// # Overview
//
// Glyphs are rasterized on the CPU once, packed into rows of a single-channel
// texture and reused across frames. The packages split the work:
//
//   - atlas: the cache itself (row packing, LRU eviction, repacking)
//   - layout: word positioning with wrapping and alignment
//   - font: an sfnt face implementing the rasterizer and metrics
//   - sink: CPU mirrors of the atlas texture and gpucontext uploads
//   - gpu: an R8 wgpu texture, glyph quads and the glyph shader
//   - atlasviz: PDF dumps of the atlas layout for debugging
//
// TextRenderer ties them together:
//
//	face, err := font.Parse(goregular.TTF, 1)
//	if err != nil {
//		return err
//	}
//	img, _ := sink.NewImage(512, 512)
//	cfg := atlas.DefaultConfig()
//	cfg.Width, cfg.Height = 512, 512
//
//	r, err := glyphcache.NewTextRenderer(face, cfg, img)
//	if err != nil {
//		return err
//	}
//	calls, err := r.DrawCalls("Hello, world", layout.Options{
//		Size:     24,
//		MaxWidth: 300,
//		Align:    layout.AlignCenter,
//	})
//
// Each DrawCall copies DrawCall.Source of the atlas texture to DrawCall.Dest
// on screen.
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package glyphcache
