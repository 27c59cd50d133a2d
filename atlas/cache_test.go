package atlas

import (
	"errors"
	"image"
	"math"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
)

// boxRaster draws every glyph as a solid box whose size is looked up by
// glyph ID. The box starts at the floor of the request position.
type boxRaster struct {
	sizes map[GlyphID]image.Point
	draws int
}

func (b *boxRaster) Bounds(req GlyphRequest) (image.Rectangle, bool) {
	sz, ok := b.sizes[req.Glyph]
	if !ok || sz.X == 0 || sz.Y == 0 {
		return image.Rectangle{}, false
	}
	x := int(math.Floor(float64(req.Position.X)))
	y := int(math.Floor(float64(req.Position.Y)))
	return image.Rect(x, y, x+sz.X, y+sz.Y), true
}

func (b *boxRaster) Draw(req GlyphRequest, fn func(x, y int, v float32)) {
	b.draws++
	sz := b.sizes[req.Glyph]
	for y := 0; y < sz.Y; y++ {
		for x := 0; x < sz.X; x++ {
			fn(x, y, 1)
		}
	}
}

type upload struct {
	rect image.Rectangle
	pix  []byte
}

type recorder struct {
	uploads []upload
}

func (r *recorder) Upload(rect image.Rectangle, pix []byte) {
	r.uploads = append(r.uploads, upload{rect: rect, pix: slices.Clone(pix)})
}

func req(id GlyphID) GlyphRequest {
	return GlyphRequest{Glyph: id, Scale: Vec2{16, 16}}
}

func newTestCache(t *testing.T, w, h uint32, pad bool, sizes map[GlyphID]image.Point) (*Cache, *boxRaster) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = w, h
	cfg.PadGlyphs = pad
	r := &boxRaster{sizes: sizes}
	c, err := New(cfg, r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, r
}

func mustCache(t *testing.T, c *Cache, reqs ...GlyphRequest) CachedBy {
	t.Helper()
	by, err := c.CacheGlyphs(reqs, nil)
	if err != nil {
		t.Fatalf("CacheGlyphs: %v", err)
	}
	checkInvariants(t, c)
	return by
}

// checkInvariants verifies that rows and free bands tile the atlas height,
// that free bands are merged and that glyphs in a row do not overlap.
func checkInvariants(t *testing.T, c *Cache) {
	t.Helper()
	s := c.Snapshot()

	type span struct {
		start, end uint32
		free       bool
	}
	spans := make([]span, 0, len(s.Rows)+len(s.Free))
	for _, r := range s.Rows {
		spans = append(spans, span{r.Top, r.Top + r.Height, false})
		if r.Width > s.Width {
			t.Errorf("row %d: width %d exceeds atlas width %d", r.Top, r.Width, s.Width)
		}
		for i, g := range r.Glyphs {
			if g.Rect.Min.Y != int(r.Top) || g.Rect.Max.Y > int(r.Top+r.Height) {
				t.Errorf("row %d: glyph %v outside row", r.Top, g.Rect)
			}
			if i > 0 && g.Rect.Min.X < r.Glyphs[i-1].Rect.Max.X {
				t.Errorf("row %d: glyph %v overlaps %v", r.Top, g.Rect, r.Glyphs[i-1].Rect)
			}
		}
	}
	for _, b := range s.Free {
		spans = append(spans, span{b.Start, b.End, true})
	}
	slices.SortFunc(spans, func(a, b span) int { return int(a.start) - int(b.start) })

	var at uint32
	for i, sp := range spans {
		if sp.start != at {
			t.Fatalf("span %d starts at %d, expected %d (spans %v)", i, sp.start, at, spans)
		}
		if sp.end <= sp.start {
			t.Fatalf("empty span %v", sp)
		}
		if i > 0 && sp.free && spans[i-1].free {
			t.Errorf("free bands %v and %v are not merged", spans[i-1], sp)
		}
		at = sp.end
	}
	if at != s.Height {
		t.Fatalf("spans end at %d, expected %d", at, s.Height)
	}

	glyphs := 0
	for _, r := range s.Rows {
		glyphs += len(r.Glyphs)
	}
	if glyphs != c.Len() {
		t.Errorf("expected %d indexed glyphs, got %d", glyphs, c.Len())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(DefaultConfig(), nil); !errors.Is(err, ErrNilRasterizer) {
		t.Errorf("expected ErrNilRasterizer, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Height = 0
	_, err := New(cfg, &boxRaster{})
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cerr.Field != "Height" {
		t.Errorf("expected field Height, got %q", cerr.Field)
	}
}

func TestNew_ClampsTolerances(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScaleTolerance = 0
	cfg.PositionTolerance = 0.0001
	c, err := New(cfg, &boxRaster{})
	if err != nil {
		t.Fatal(err)
	}
	got := c.Config()
	if got.ScaleTolerance != minTolerance || got.PositionTolerance != minTolerance {
		t.Errorf("expected tolerances clamped to %v, got %v and %v",
			minTolerance, got.ScaleTolerance, got.PositionTolerance)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, "Width"},
		{"negative scale tolerance", func(c *Config) { c.ScaleTolerance = -1 }, "ScaleTolerance"},
		{"NaN position tolerance", func(c *Config) { c.PositionTolerance = float32(math.NaN()) }, "PositionTolerance"},
		{"infinite scale tolerance", func(c *Config) { c.ScaleTolerance = float32(math.Inf(1)) }, "ScaleTolerance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cerr.Field)
			}
		})
	}

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

// TestCacheGlyphs_TallestFirst tests that a batch is packed tallest glyph
// first, so shorter glyphs share the row of the tallest.
func TestCacheGlyphs_TallestFirst(t *testing.T) {
	c, _ := newTestCache(t, 64, 64, false, map[GlyphID]image.Point{
		1: {10, 10},
		2: {10, 30},
		3: {10, 20},
	})

	if by := mustCache(t, c, req(1), req(2), req(3)); by != Adding {
		t.Errorf("expected Adding, got %v", by)
	}

	s := c.Snapshot()
	if len(s.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(s.Rows))
	}
	r := s.Rows[0]
	if r.Top != 0 || r.Height != 30 {
		t.Errorf("expected row at 0 with height 30, got top=%d height=%d", r.Top, r.Height)
	}
	var order []GlyphID
	for _, g := range r.Glyphs {
		order = append(order, g.Key.Glyph)
	}
	if !slices.Equal(order, []GlyphID{2, 3, 1}) {
		t.Errorf("expected glyphs packed 2,3,1, got %v", order)
	}
	if len(s.Free) != 1 || s.Free[0] != (Band{30, 64}) {
		t.Errorf("expected free band [30,64), got %v", s.Free)
	}
}

// TestCacheGlyphs_Eviction tests that the least recently used row outside
// the batch is evicted to fit a new glyph. Eviction alone reports Adding:
// glyphs that stay resident keep their rects, and Reordering is only
// returned after a full clear and repack.
func TestCacheGlyphs_Eviction(t *testing.T) {
	c, _ := newTestCache(t, 64, 64, false, map[GlyphID]image.Point{
		1: {40, 16}, 2: {40, 16}, 3: {40, 16}, 4: {40, 16}, 5: {40, 16},
	})
	for id := GlyphID(1); id <= 4; id++ {
		mustCache(t, c, req(id))
	}
	if s := c.Snapshot(); len(s.Free) != 0 {
		t.Fatalf("expected full atlas, got free bands %v", s.Free)
	}

	if by := mustCache(t, c, req(5)); by != Adding {
		t.Errorf("expected Adding, got %v", by)
	}

	if _, _, err := c.RectFor(req(1)); !errors.Is(err, ErrGlyphNotCached) {
		t.Errorf("expected evicted glyph to be not cached, got %v", err)
	}
	for id := GlyphID(2); id <= 5; id++ {
		if !c.Contains(req(id)) {
			t.Errorf("expected glyph %d to be resident", id)
		}
	}
	tc, ok, err := c.RectFor(req(5))
	if err != nil || !ok {
		t.Fatalf("RectFor: ok=%v err=%v", ok, err)
	}
	if tc.UV.V0 != 0 {
		t.Errorf("expected new glyph in freed row at top 0, got V0=%v", tc.UV.V0)
	}
	if st := c.Stats(); st.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", st.Evictions)
	}

	// Re-caching the evicted glyph brings it back.
	mustCache(t, c, req(1))
	if !c.Contains(req(1)) {
		t.Error("expected glyph 1 to be resident again")
	}
}

// TestCacheGlyphs_Reordering tests the repack when rows used by the batch
// block the space a new glyph needs.
func TestCacheGlyphs_Reordering(t *testing.T) {
	c, _ := newTestCache(t, 64, 64, false, map[GlyphID]image.Point{
		1: {20, 10}, 2: {20, 20}, 3: {20, 30}, 4: {20, 40},
	})
	mustCache(t, c, req(1))
	mustCache(t, c, req(2))
	mustCache(t, c, req(3))

	by := mustCache(t, c, req(1), req(2), req(4))
	if by != Reordering {
		t.Fatalf("expected Reordering, got %v", by)
	}
	for _, id := range []GlyphID{1, 2, 4} {
		if !c.Contains(req(id)) {
			t.Errorf("expected glyph %d to be resident", id)
		}
	}
	if c.Contains(req(3)) {
		t.Error("expected glyph 3 to be dropped by the repack")
	}

	s := c.Snapshot()
	if len(s.Rows) != 1 || s.Rows[0].Height != 40 {
		t.Errorf("expected a single row of height 40, got %+v", s.Rows)
	}
	if st := c.Stats(); st.Repacks != 1 {
		t.Errorf("expected 1 repack, got %d", st.Repacks)
	}
}

func TestCacheGlyphs_NoRoomForWholeQueue(t *testing.T) {
	sizes := map[GlyphID]image.Point{9: {10, 10}}
	var batch []GlyphRequest
	for id := GlyphID(1); id <= 5; id++ {
		sizes[id] = image.Point{40, 16}
		batch = append(batch, req(id))
	}

	t.Run("empty cache", func(t *testing.T) {
		c, _ := newTestCache(t, 64, 64, false, sizes)
		_, err := c.CacheGlyphs(batch, nil)
		if !errors.Is(err, ErrNoRoomForWholeQueue) {
			t.Fatalf("expected ErrNoRoomForWholeQueue, got %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("expected empty cache, got %d glyphs", c.Len())
		}
		checkInvariants(t, c)
	})

	t.Run("after retry", func(t *testing.T) {
		c, _ := newTestCache(t, 64, 64, false, sizes)
		mustCache(t, c, req(9))
		before := c.Stats()

		_, err := c.CacheGlyphs(batch, nil)
		if !errors.Is(err, ErrNoRoomForWholeQueue) {
			t.Fatalf("expected ErrNoRoomForWholeQueue, got %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("expected cache cleared, got %d glyphs", c.Len())
		}
		if c.Stats() != before {
			t.Errorf("expected stats unchanged, got %+v, was %+v", c.Stats(), before)
		}
		checkInvariants(t, c)
	})
}

func TestCacheGlyphs_GlyphTooLarge(t *testing.T) {
	c, _ := newTestCache(t, 64, 64, false, map[GlyphID]image.Point{
		1: {10, 10},
		2: {100, 100},
		3: {64, 10},
		4: {63, 10},
	})
	mustCache(t, c, req(1))
	before := c.Snapshot()

	for _, id := range []GlyphID{2, 3} {
		_, err := c.CacheGlyphs([]GlyphRequest{req(id), req(1)}, nil)
		if !errors.Is(err, ErrGlyphTooLarge) {
			t.Errorf("glyph %d: expected ErrGlyphTooLarge, got %v", id, err)
		}
		if after := c.Snapshot(); !reflect.DeepEqual(before, after) {
			t.Errorf("glyph %d: cache changed:\nbefore %+v\nafter  %+v", id, before, after)
		}
	}

	if _, err := c.CacheGlyphs([]GlyphRequest{req(4)}, nil); err != nil {
		t.Errorf("63 pixel wide glyph should fit a 64 pixel atlas: %v", err)
	}
}

func TestCacheGlyphs_EmptyGlyph(t *testing.T) {
	c, r := newTestCache(t, 64, 64, true, map[GlyphID]image.Point{
		1: {0, 0},
	})
	mustCache(t, c, req(1))
	if c.Len() != 0 || r.draws != 0 {
		t.Errorf("expected empty glyph to be ignored, got len=%d draws=%d", c.Len(), r.draws)
	}
	_, ok, err := c.RectFor(req(1))
	if ok || err != nil {
		t.Errorf("expected no rectangle and no error, got ok=%v err=%v", ok, err)
	}
}

// TestCacheGlyphs_Idempotent tests that caching the same batch twice adds
// nothing and keeps every rectangle.
func TestCacheGlyphs_Idempotent(t *testing.T) {
	sizes := map[GlyphID]image.Point{}
	var batch []GlyphRequest
	for id := GlyphID(1); id <= 20; id++ {
		sizes[id] = image.Point{int(id%7) + 3, int(id%5) + 4}
		batch = append(batch, req(id).WithPosition(Vec2{float32(id) * 9.3, 12.7}))
	}
	c, r := newTestCache(t, 128, 128, true, sizes)

	mustCache(t, c, batch...)
	first := make([]TexCoords, len(batch))
	for i, q := range batch {
		tc, ok, err := c.RectFor(q)
		if err != nil || !ok {
			t.Fatalf("RectFor(%d): ok=%v err=%v", i, ok, err)
		}
		first[i] = tc
	}
	draws := r.draws

	if by := mustCache(t, c, batch...); by != Adding {
		t.Errorf("expected Adding, got %v", by)
	}
	if r.draws != draws {
		t.Errorf("expected no rasterization, got %d new draws", r.draws-draws)
	}
	for i, q := range batch {
		tc, _, _ := c.RectFor(q)
		if tc != first[i] {
			t.Errorf("request %d: expected %+v, got %+v", i, first[i], tc)
		}
	}
}

// TestCacheGlyphs_ToleranceSharing tests that near-identical requests share
// one bitmap while each keeps its own screen position.
func TestCacheGlyphs_ToleranceSharing(t *testing.T) {
	c, r := newTestCache(t, 64, 64, false, map[GlyphID]image.Point{1: {6, 8}})

	a := GlyphRequest{Glyph: 1, Scale: Vec2{10, 10}, Position: Vec2{5.01, 7}}
	b := GlyphRequest{Glyph: 1, Scale: Vec2{10.04, 10.04}, Position: Vec2{5.03, 7}}
	far := GlyphRequest{Glyph: 1, Scale: Vec2{10, 10}, Position: Vec2{105.03, 7}}

	mustCache(t, c, a, b, far)
	if c.Len() != 1 || r.draws != 1 {
		t.Fatalf("expected one shared bitmap, got len=%d draws=%d", c.Len(), r.draws)
	}

	ta, _, err := c.RectFor(a)
	if err != nil {
		t.Fatal(err)
	}
	tb, _, _ := c.RectFor(b)
	tf, _, _ := c.RectFor(far)
	if ta.UV != tb.UV || ta.UV != tf.UV {
		t.Errorf("expected shared UV, got %+v %+v %+v", ta.UV, tb.UV, tf.UV)
	}
	if want := image.Rect(5, 7, 11, 15); ta.Pixels != want || tb.Pixels != want {
		t.Errorf("expected pixels %v, got %v and %v", want, ta.Pixels, tb.Pixels)
	}
	if want := image.Rect(105, 7, 111, 15); tf.Pixels != want {
		t.Errorf("expected pixels %v, got %v", want, tf.Pixels)
	}

	other := GlyphRequest{Glyph: 1, Scale: Vec2{10.2, 10.2}, Position: Vec2{5.01, 7}}
	if c.Contains(other) {
		t.Error("expected scale outside tolerance to miss")
	}
	shifted := GlyphRequest{Glyph: 1, Scale: Vec2{10, 10}, Position: Vec2{5.4, 7}}
	if c.Contains(shifted) {
		t.Error("expected offset outside tolerance to miss")
	}
}

func TestCacheGlyphs_UploadPadding(t *testing.T) {
	c, _ := newTestCache(t, 64, 64, true, map[GlyphID]image.Point{1: {3, 2}})
	rec := &recorder{}
	if _, err := c.CacheGlyphs([]GlyphRequest{req(1)}, rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(rec.uploads))
	}
	up := rec.uploads[0]
	if up.rect != image.Rect(0, 0, 5, 4) {
		t.Errorf("expected padded rect (0,0)-(5,4), got %v", up.rect)
	}
	want := []byte{
		0, 0, 0, 0, 0,
		0, 255, 255, 255, 0,
		0, 255, 255, 255, 0,
		0, 0, 0, 0, 0,
	}
	if !slices.Equal(up.pix, want) {
		t.Errorf("expected pixels %v, got %v", want, up.pix)
	}

	tc, _, err := c.RectFor(req(1))
	if err != nil {
		t.Fatal(err)
	}
	wantUV := UVRect{U0: 1.0 / 64, V0: 1.0 / 64, U1: 4.0 / 64, V1: 3.0 / 64}
	if tc.UV != wantUV {
		t.Errorf("expected unpadded UV %+v, got %+v", wantUV, tc.UV)
	}
}

func TestCacheGlyphs_Align4x4(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.Align4x4 = true
	c, err := New(cfg, &boxRaster{sizes: map[GlyphID]image.Point{1: {3, 2}, 2: {3, 2}}})
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	if _, err := c.CacheGlyphs([]GlyphRequest{req(1), req(2)}, rec); err != nil {
		t.Fatal(err)
	}
	for _, up := range rec.uploads {
		if up.rect.Min.X%4 != 0 || up.rect.Min.Y%4 != 0 || up.rect.Dx()%4 != 0 || up.rect.Dy()%4 != 0 {
			t.Errorf("upload %v not aligned to 4x4", up.rect)
		}
		if len(up.pix) != up.rect.Dx()*up.rect.Dy() {
			t.Errorf("expected %d bytes, got %d", up.rect.Dx()*up.rect.Dy(), len(up.pix))
		}
	}
	s := c.Snapshot()
	if s.Rows[0].Width != 16 {
		t.Errorf("expected row width 16, got %d", s.Rows[0].Width)
	}
	if g := s.Rows[0].Glyphs[1].Rect; g != image.Rect(8, 0, 13, 4) {
		t.Errorf("expected second glyph at (8,0)-(13,4), got %v", g)
	}
}

func TestCache_ClearAndReconfigure(t *testing.T) {
	c, _ := newTestCache(t, 64, 64, true, map[GlyphID]image.Point{1: {5, 5}})
	mustCache(t, c, req(1))

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
	s := c.Snapshot()
	if len(s.Rows) != 0 || len(s.Free) != 1 || s.Free[0] != (Band{0, 64}) {
		t.Errorf("expected one free band [0,64), got %+v", s)
	}

	mustCache(t, c, req(1))
	cfg := c.Config()
	cfg.Width, cfg.Height = 128, 32
	if err := c.Reconfigure(cfg); err != nil {
		t.Fatal(err)
	}
	if w, h := c.Dimensions(); w != 128 || h != 32 {
		t.Errorf("expected 128x32, got %dx%d", w, h)
	}
	if c.Len() != 0 {
		t.Error("expected Reconfigure to clear the cache")
	}
	checkInvariants(t, c)

	bad := cfg
	bad.Width = 0
	if err := c.Reconfigure(bad); err == nil {
		t.Error("expected error for invalid config")
	}
	if w, _ := c.Dimensions(); w != 128 {
		t.Errorf("invalid Reconfigure changed width to %d", w)
	}
}

// TestCacheGlyphs_RandomWorkload runs many batches and checks the layout
// invariants and that every glyph of a successful batch is resident.
func TestCacheGlyphs_RandomWorkload(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	sizes := make(map[GlyphID]image.Point)
	for id := GlyphID(1); id <= 200; id++ {
		sizes[id] = image.Point{rng.IntN(14) + 2, rng.IntN(18) + 2}
	}
	c, _ := newTestCache(t, 128, 128, true, sizes)

	var adding, reordering, rejected int
	for i := 0; i < 300; i++ {
		batch := make([]GlyphRequest, rng.IntN(40)+1)
		for j := range batch {
			id := GlyphID(rng.IntN(200) + 1)
			batch[j] = req(id).WithPosition(Vec2{rng.Float32() * 500, rng.Float32() * 500})
		}

		by, err := c.CacheGlyphs(batch, nil)
		checkInvariants(t, c)
		if errors.Is(err, ErrNoRoomForWholeQueue) {
			rejected++
			continue
		}
		if err != nil {
			t.Fatalf("batch %d: %v", i, err)
		}
		if by == Adding {
			adding++
		} else {
			reordering++
		}
		for _, q := range batch {
			if _, ok, err := c.RectFor(q); err != nil || !ok {
				t.Fatalf("batch %d: request %+v not resident: ok=%v err=%v", i, q, ok, err)
			}
		}
	}
	if adding == 0 {
		t.Error("expected some batches to be added incrementally")
	}
	t.Logf("adding=%d reordering=%d rejected=%d stats=%+v", adding, reordering, rejected, c.Stats())
}

func BenchmarkCacheGlyphs_Hit(b *testing.B) {
	sizes := make(map[GlyphID]image.Point)
	batch := make([]GlyphRequest, 0, 64)
	for id := GlyphID(1); id <= 64; id++ {
		sizes[id] = image.Point{8, 12}
		batch = append(batch, req(id).WithPosition(Vec2{float32(id) * 8, 0}))
	}
	c, err := New(DefaultConfig(), &boxRaster{sizes: sizes})
	if err != nil {
		b.Fatal(err)
	}
	if _, err := c.CacheGlyphs(batch, nil); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.CacheGlyphs(batch, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCacheGlyphs_Churn(b *testing.B) {
	sizes := make(map[GlyphID]image.Point)
	for id := GlyphID(1); id <= 1024; id++ {
		sizes[id] = image.Point{int(id%9) + 4, int(id%13) + 6}
	}
	c, err := New(DefaultConfig(), &boxRaster{sizes: sizes})
	if err != nil {
		b.Fatal(err)
	}
	batch := make([]GlyphRequest, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range batch {
			batch[j] = req(GlyphID((i*32+j)%1024 + 1))
		}
		if _, err := c.CacheGlyphs(batch, nil); err != nil {
			b.Fatal(err)
		}
	}
}
