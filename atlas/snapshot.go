package atlas

import "image"

// Stats counts cache activity since creation.
type Stats struct {
	Hits      uint64 // requests already resident
	Misses    uint64 // glyphs placed and rasterized
	Evictions uint64 // rows evicted
	Repacks   uint64 // batches that returned Reordering
	Uploads   uint64
}

func (s *Stats) add(o Stats) {
	s.Hits += o.Hits
	s.Misses += o.Misses
	s.Evictions += o.Evictions
	s.Repacks += o.Repacks
	s.Uploads += o.Uploads
}

// Stats returns the activity counters. Counters of a batch are added only
// when the batch succeeds.
func (c *Cache) Stats() Stats { return c.stats }

// GlyphInfo is a resident glyph as seen by Snapshot.
type GlyphInfo struct {
	Key GlyphKey

	// Rect is the padded, unaligned atlas area of the glyph.
	Rect image.Rectangle
}

// RowInfo is a row as seen by Snapshot.
type RowInfo struct {
	Top, Height uint32

	// Width is the horizontal space used, including alignment.
	Width uint32

	Glyphs []GlyphInfo
}

// Snapshot is a read-only copy of the cache layout.
type Snapshot struct {
	Width, Height uint32

	// Rows are ordered from least to most recently used.
	Rows []RowInfo

	// Free holds the unused bands, sorted by start.
	Free []Band
}

// Snapshot copies the current layout of the atlas.
func (c *Cache) Snapshot() Snapshot {
	s := Snapshot{
		Width:  c.cfg.Width,
		Height: c.cfg.Height,
		Rows:   make([]RowInfo, 0, len(c.rows)),
		Free:   c.free.bands(),
	}
	for top := range c.order.Backward() {
		r := c.rows[top]
		ri := RowInfo{
			Top:    r.top,
			Height: r.height,
			Width:  r.width,
			Glyphs: make([]GlyphInfo, len(r.glyphs)),
		}
		for i, g := range r.glyphs {
			ri.Glyphs[i] = GlyphInfo{Key: g.key, Rect: g.rect}
		}
		s.Rows = append(s.Rows, ri)
	}
	return s
}

// Occupancy returns the fraction of the atlas height covered by rows.
func (s Snapshot) Occupancy() float64 {
	if s.Height == 0 {
		return 0
	}
	var used uint32
	for _, r := range s.Rows {
		used += r.Height
	}
	return float64(used) / float64(s.Height)
}
