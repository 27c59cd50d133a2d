// Package atlas provides a dynamic glyph atlas: a CPU-side cache that packs
// rasterized glyph coverage bitmaps into a fixed-size texture.
//
// The atlas is split into horizontal rows. A row is created with a fixed
// height the first time a glyph needs it and is then filled left to right
// with glyphs no taller than the row. Vertical bands that hold no row are
// tracked in a free-space ledger, and rows are kept in least-recently-used
// order so that rows not needed by the current batch can be evicted to make
// room.
//
// # Lossy keys
//
// Glyphs are identified by a [GlyphKey] that quantizes scale and sub-pixel
// offset by the configured tolerances. Two requests that fall in the same
// bucket share one rasterized bitmap; [Cache.RectFor] still reports the pixel
// rectangle for the exact requested position, so sharing never moves a glyph
// on screen.
//
// # Usage
//
//	cache, err := atlas.New(atlas.DefaultConfig(), rasterizer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Once per frame (or per text change):
//	if _, err := cache.CacheGlyphs(requests, uploader); err != nil {
//	    log.Fatal(err)
//	}
//	for _, req := range requests {
//	    tc, ok, err := cache.RectFor(req)
//	    if err != nil || !ok {
//	        continue
//	    }
//	    drawQuad(tc.UV, tc.Pixels)
//	}
//
// # Batches
//
// [Cache.CacheGlyphs] either makes every glyph of the batch resident or fails
// with [ErrGlyphTooLarge] or [ErrNoRoomForWholeQueue]. If incremental packing
// runs out of room because the remaining rows are all used by the batch, the
// cache is cleared and the whole batch is packed again from an empty atlas;
// the call then reports [Reordering] and every previously returned texture
// coordinate is invalid.
//
// A Cache is not safe for concurrent use. It is meant to be owned by the
// goroutine that owns the graphics context the atlas texture lives in.
package atlas
