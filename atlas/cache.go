package atlas

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/gogpu/glyphcache/internal/lru"
)

// glyphTexInfo is one glyph stored in a row.
type glyphTexInfo struct {
	key GlyphKey

	// offset is the exact normalized sub-pixel offset the bitmap was
	// rasterized at.
	offset Vec2

	// rect is the unaligned, padded area of the atlas holding the glyph.
	rect image.Rectangle
}

// row is a horizontal strip of the atlas. Its top edge is its identity.
type row struct {
	top    uint32
	height uint32
	width  uint32
	glyphs []glyphTexInfo
	node   *lru.Node[uint32]
}

// slot locates a glyph: the top of its row and its index in the row.
type slot struct {
	top   uint32
	index int
}

// pending is a validated request waiting for placement.
type pending struct {
	req    GlyphRequest
	key    GlyphKey
	bounds image.Rectangle
	w, h   uint32 // padded size
	aw, ah uint32 // padded and aligned size
}

// placement is a decided atlas location awaiting rasterization.
type placement struct {
	req  GlyphRequest
	rect image.Rectangle // aligned
}

// Cache is a dynamic glyph atlas. See the package documentation.
type Cache struct {
	cfg    Config
	raster Rasterizer

	rows  map[uint32]*row
	order *lru.List[uint32]
	free  ledger
	index map[GlyphKey]slot

	scratch []byte
	stats   Stats
}

// New creates an empty cache drawing glyphs with raster.
func New(cfg Config, raster Rasterizer) (*Cache, error) {
	if raster == nil {
		return nil, ErrNilRasterizer
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()
	return &Cache{
		cfg:    cfg,
		raster: raster,
		rows:   make(map[uint32]*row),
		order:  lru.New[uint32](),
		free:   newLedger(cfg.Height),
		index:  make(map[GlyphKey]slot),
	}, nil
}

// Reconfigure applies new attributes and clears the cache. The cache is left
// untouched if cfg is invalid.
func (c *Cache) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg.normalized()
	c.Clear()
	return nil
}

// Config returns the effective configuration, with tolerances clamped.
func (c *Cache) Config() Config { return c.cfg }

// Dimensions returns the atlas width and height in pixels.
func (c *Cache) Dimensions() (width, height uint32) {
	return c.cfg.Width, c.cfg.Height
}

// Len returns the number of resident glyph bitmaps.
func (c *Cache) Len() int { return len(c.index) }

// Contains reports whether a bitmap matching req is resident.
func (c *Cache) Contains(req GlyphRequest) bool {
	_, ok := c.index[c.keyFor(req)]
	return ok
}

// Clear drops every row and glyph, leaving the whole atlas free.
func (c *Cache) Clear() {
	clear(c.rows)
	c.order.Clear()
	c.free.reset(c.cfg.Height)
	clear(c.index)
}

// CacheGlyphs makes every request of the batch with a non-empty bounding box
// resident, rasterizing and uploading those that are not. Rows holding
// glyphs of earlier batches may be evicted, but never rows used by this one.
//
// When the batch does not fit incrementally the atlas is cleared and
// repacked once, and Reordering is returned: every rectangle obtained before
// the call is then invalid. ErrGlyphTooLarge is returned before anything is
// changed. ErrNoRoomForWholeQueue means the batch does not fit even an empty
// atlas; the cache is left empty in that case.
//
// All placements are decided before the first upload.
func (c *Cache) CacheGlyphs(reqs []GlyphRequest, up Uploader) (CachedBy, error) {
	batch, err := c.prepare(reqs)
	if err != nil {
		return Adding, err
	}

	fromScratch := len(c.index) == 0
	by := Adding
	for {
		placed, st, err := c.place(batch, fromScratch)
		if errors.Is(err, errRetry) {
			slogger().Info("atlas: repacking",
				"glyphs", len(batch), "rows", len(c.rows))
			c.Clear()
			fromScratch = true
			by = Reordering
			continue
		}
		if err != nil {
			slogger().Warn("atlas: batch rejected",
				"glyphs", len(batch), "err", err)
			c.Clear()
			return Adding, err
		}

		c.upload(placed, up)
		st.Uploads = uint64(len(placed))
		if by == Reordering {
			st.Repacks = 1
		}
		c.stats.add(st)
		return by, nil
	}
}

// prepare computes keys and sizes and rejects glyphs that can never fit.
func (c *Cache) prepare(reqs []GlyphRequest) ([]pending, error) {
	batch := make([]pending, 0, len(reqs))
	for _, req := range reqs {
		bb, ok := c.raster.Bounds(req)
		if !ok || bb.Empty() {
			continue
		}
		p := pending{
			req:    req,
			key:    c.keyFor(req),
			bounds: bb,
			w:      uint32(bb.Dx()),
			h:      uint32(bb.Dy()),
		}
		if c.cfg.PadGlyphs {
			p.w += 2
			p.h += 2
		}
		p.aw, p.ah = p.w, p.h
		if c.cfg.Align4x4 {
			p.aw = (p.aw + 3) &^ 3
			p.ah = (p.ah + 3) &^ 3
		}
		if p.aw >= c.cfg.Width || p.ah >= c.cfg.Height {
			return nil, fmt.Errorf("%w: glyph %d needs %dx%d in a %dx%d atlas",
				ErrGlyphTooLarge, req.Glyph, p.aw, p.ah, c.cfg.Width, c.cfg.Height)
		}
		batch = append(batch, p)
	}
	return batch, nil
}

// place decides an atlas location for every uncached glyph of the batch.
// It returns errRetry when rows used by the batch block the way, unless the
// attempt is already from scratch, in which case ErrNoRoomForWholeQueue.
func (c *Cache) place(batch []pending, fromScratch bool) ([]placement, Stats, error) {
	var st Stats
	inUse := make(map[uint32]struct{}, len(c.rows))

	uncached := make([]pending, 0, len(batch))
	for _, p := range batch {
		s, ok := c.index[p.key]
		if !ok {
			uncached = append(uncached, p)
			continue
		}
		st.Hits++
		if _, seen := inUse[s.top]; !seen {
			inUse[s.top] = struct{}{}
			c.order.MoveToFront(c.rows[s.top].node)
		}
	}

	// Tallest first packs rows more densely.
	slices.SortStableFunc(uncached, func(a, b pending) int {
		return cmp.Compare(b.h, a.h)
	})

	placed := make([]placement, 0, len(uncached))
	for _, p := range uncached {
		// An earlier request of the batch may share the key.
		if _, ok := c.index[p.key]; ok {
			st.Hits++
			continue
		}

		top, ok := c.findRow(p.aw, p.ah)
		if !ok {
			band, found := c.free.find(p.ah)
			if !found {
				var evicted uint64
				band, evicted, found = c.makeRoom(p.ah, inUse)
				st.Evictions += evicted
			}
			if !found {
				if fromScratch {
					return nil, st, fmt.Errorf("%w: %d glyphs in a %dx%d atlas",
						ErrNoRoomForWholeQueue, len(batch), c.cfg.Width, c.cfg.Height)
				}
				return nil, st, errRetry
			}
			c.free.take(band, p.ah)
			top = band.Start
			c.rows[top] = &row{
				top:    top,
				height: p.ah,
				node:   c.order.PushFront(top),
			}
			slogger().Debug("atlas: row created", "top", top, "height", p.ah)
		}

		r := c.rows[top]
		c.order.MoveToFront(r.node)
		x, y := int(r.width), int(top)
		r.glyphs = append(r.glyphs, glyphTexInfo{
			key:    p.key,
			offset: normalizedOffset(p.req.Position),
			rect:   image.Rect(x, y, x+int(p.w), y+int(p.h)),
		})
		r.width += p.aw
		inUse[top] = struct{}{}
		c.index[p.key] = slot{top: top, index: len(r.glyphs) - 1}

		placed = append(placed, placement{
			req:  p.req,
			rect: image.Rect(x, y, x+int(p.aw), y+int(p.ah)),
		})
		st.Misses++
	}
	return placed, st, nil
}

// findRow returns the most recently used row with room for a w x h glyph.
func (c *Cache) findRow(w, h uint32) (uint32, bool) {
	for top := range c.order.All() {
		r := c.rows[top]
		if r.height >= h && c.cfg.Width-r.width >= w {
			return top, true
		}
	}
	return 0, false
}

// makeRoom evicts least recently used rows outside inUse until a free band
// of at least h opens up.
func (c *Cache) makeRoom(h uint32, inUse map[uint32]struct{}) (Band, uint64, bool) {
	var evicted uint64
	for top := range c.order.Backward() {
		if _, busy := inUse[top]; busy {
			continue
		}
		band := c.evict(top)
		evicted++
		if band.Height() >= h {
			return band, evicted, true
		}
	}
	return Band{}, evicted, false
}

// evict removes a row and its glyphs and returns the merged free band.
func (c *Cache) evict(top uint32) Band {
	r := c.rows[top]
	for _, g := range r.glyphs {
		delete(c.index, g.key)
	}
	c.order.Remove(r.node)
	delete(c.rows, top)
	slogger().Debug("atlas: row evicted",
		"top", top, "height", r.height, "glyphs", len(r.glyphs))
	return c.free.release(top, top+r.height)
}

// upload rasterizes each placement into the scratch buffer and hands it to up.
func (c *Cache) upload(placed []placement, up Uploader) {
	if up == nil {
		up = UploaderFunc(func(image.Rectangle, []byte) {})
	}
	pad := 0
	if c.cfg.PadGlyphs {
		pad = 1
	}
	for _, p := range placed {
		w, h := p.rect.Dx(), p.rect.Dy()
		n := w * h
		if cap(c.scratch) < n {
			c.scratch = make([]byte, n)
		}
		pix := c.scratch[:n]
		clear(pix)

		c.raster.Draw(p.req, func(x, y int, v float32) {
			x += pad
			y += pad
			if x < 0 || y < 0 || x >= w || y >= h {
				return
			}
			pix[y*w+x] = coverageByte(v)
		})
		up.Upload(p.rect, pix)
	}
}

func coverageByte(v float32) uint8 {
	v = float32(math.Round(float64(v * 255)))
	return uint8(min(max(v, 0), 255))
}

// RectFor returns where the glyph matching req lives in the atlas and the
// screen rectangle to draw it at. ok is false, with a nil error, for glyphs
// without a shape. The rectangle is derived from the position of req, not
// from the position the shared bitmap was rasterized at.
func (c *Cache) RectFor(req GlyphRequest) (tc TexCoords, ok bool, err error) {
	bb, ok := c.raster.Bounds(req)
	if !ok || bb.Empty() {
		return TexCoords{}, false, nil
	}
	s, found := c.index[c.keyFor(req)]
	if !found {
		return TexCoords{}, false, ErrGlyphNotCached
	}
	info := c.rows[s.top].glyphs[s.index]

	tex := info.rect
	if c.cfg.PadGlyphs {
		tex = tex.Inset(1)
	}
	tw, th := float32(c.cfg.Width), float32(c.cfg.Height)
	tc.UV = UVRect{
		U0: float32(tex.Min.X) / tw,
		V0: float32(tex.Min.Y) / th,
		U1: float32(tex.Max.X) / tw,
		V1: float32(tex.Max.Y) / th,
	}

	local, ok := c.raster.Bounds(req.WithPosition(info.offset))
	if !ok {
		tc.Pixels = bb
		return tc, true, nil
	}
	ideal := Vec2{
		X: float32(local.Min.X) - info.offset.X + req.Position.X,
		Y: float32(local.Min.Y) - info.offset.Y + req.Position.Y,
	}
	pmin := image.Pt(int(math.Round(float64(ideal.X))), int(math.Round(float64(ideal.Y))))
	tc.Pixels = local.Add(pmin.Sub(local.Min))
	return tc, true, nil
}
