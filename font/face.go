package font

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gogpu/glyphcache/atlas"
	"github.com/gogpu/glyphcache/layout"
	"golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Face is a parsed font usable as an atlas rasterizer and a layout metrics
// provider. Glyph positions passed to Bounds and Draw are baseline origins.
//
// Face is safe for concurrent use; calls are serialized internally.
type Face struct {
	id   atlas.FontID
	font *opentype.Font

	mu   sync.Mutex
	buf  sfnt.Buffer
	rast vector.Rasterizer
	mask *image.Alpha
}

// Parse parses TrueType or OpenType data. id tells the glyphs of this face
// apart from those of other faces sharing a cache.
func Parse(data []byte, id atlas.FontID) (*Face, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse font: %w", err)
	}
	return &Face{id: id, font: f}, nil
}

// ID returns the font ID given to Parse.
func (f *Face) ID() atlas.FontID { return f.id }

// Name returns the font family name, or "" if the font has none.
func (f *Face) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, err := f.font.Name(&f.buf, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return name
}

// GlyphIndex returns the glyph for r, or 0 (.notdef) if the font lacks it.
func (f *Face) GlyphIndex(r rune) atlas.GlyphID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return atlas.GlyphID(f.glyphIndex(r))
}

func (f *Face) glyphIndex(r rune) sfnt.GlyphIndex {
	gid, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return gid
}

// Request returns the request for r at scale with its baseline origin at pos.
func (f *Face) Request(r rune, scale float32, pos atlas.Vec2) atlas.GlyphRequest {
	return atlas.GlyphRequest{
		Font:     f.id,
		Glyph:    f.GlyphIndex(r),
		Scale:    atlas.Vec2{X: scale, Y: scale},
		Position: pos,
	}
}

// Bounds implements atlas.Rasterizer.
func (f *Face) Bounds(req atlas.GlyphRequest) (image.Rectangle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	segs, sx, ok := f.load(req)
	if !ok {
		return image.Rectangle{}, false
	}
	bb := pixelBounds(segs.Bounds(), sx, req.Position)
	return bb, !bb.Empty()
}

// Draw implements atlas.Rasterizer.
func (f *Face) Draw(req atlas.GlyphRequest, fn func(x, y int, v float32)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	segs, sx, ok := f.load(req)
	if !ok {
		return
	}
	bb := pixelBounds(segs.Bounds(), sx, req.Position)
	if bb.Empty() {
		return
	}

	w, h := bb.Dx(), bb.Dy()
	f.rast.Reset(w, h)
	f.rast.DrawOp = draw.Src
	// Outline coordinates relative to the top-left of the pixel box.
	dx := req.Position.X - float32(bb.Min.X)
	dy := req.Position.Y - float32(bb.Min.Y)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X)/64*sx + dx, float32(p.Y)/64 + dy
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			f.rast.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			f.rast.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			cx, cy := pt(s.Args[0])
			tx, ty := pt(s.Args[1])
			f.rast.QuadTo(cx, cy, tx, ty)
		case sfnt.SegmentOpCubeTo:
			ax, ay := pt(s.Args[0])
			bx, by := pt(s.Args[1])
			tx, ty := pt(s.Args[2])
			f.rast.CubeTo(ax, ay, bx, by, tx, ty)
		}
	}
	f.rast.ClosePath()

	if f.mask == nil || f.mask.Rect.Dx() < w || f.mask.Rect.Dy() < h {
		f.mask = image.NewAlpha(image.Rect(0, 0, max(w, 64), max(h, 64)))
	}
	area := image.Rect(0, 0, w, h)
	f.rast.Draw(f.mask, area, image.Opaque, image.Point{})

	for y := 0; y < h; y++ {
		row := f.mask.Pix[y*f.mask.Stride : y*f.mask.Stride+w]
		for x, a := range row {
			if a != 0 {
				fn(x, y, float32(a)/255)
			}
		}
	}
}

// load returns the outline of req at its vertical scale and the horizontal
// stretch to apply to it. Must be called with f.mu held.
func (f *Face) load(req atlas.GlyphRequest) (sfnt.Segments, float32, bool) {
	if !(req.Scale.X > 0) || !(req.Scale.Y > 0) {
		return nil, 0, false
	}
	segs, err := f.font.LoadGlyph(&f.buf, sfnt.GlyphIndex(req.Glyph), toFixed(req.Scale.Y), nil)
	if err != nil || len(segs) == 0 {
		return nil, 0, false
	}
	return segs, req.Scale.X / req.Scale.Y, true
}

// pixelBounds returns the pixel box covering b stretched by sx and moved to
// origin.
func pixelBounds(b fixed.Rectangle26_6, sx float32, origin atlas.Vec2) image.Rectangle {
	minX := float64(b.Min.X)/64*float64(sx) + float64(origin.X)
	maxX := float64(b.Max.X)/64*float64(sx) + float64(origin.X)
	minY := float64(b.Min.Y)/64 + float64(origin.Y)
	maxY := float64(b.Max.Y)/64 + float64(origin.Y)
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// Kerning implements layout.FontMetrics.
func (f *Face) Kerning(prev, next rune, scale float32) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, err := f.font.Kern(&f.buf, f.glyphIndex(prev), f.glyphIndex(next), toFixed(scale), xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fromFixed(k)
}

// Advance implements layout.FontMetrics.
func (f *Face) Advance(r rune, scale float32) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	adv, err := f.font.GlyphAdvance(&f.buf, f.glyphIndex(r), toFixed(scale), xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fromFixed(adv)
}

// VMetrics implements layout.FontMetrics.
func (f *Face) VMetrics(scale float32) layout.VMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.font.Metrics(&f.buf, toFixed(scale), xfont.HintingNone)
	if err != nil {
		return layout.VMetrics{}
	}
	vm := layout.VMetrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
	}
	vm.LineGap = max(fromFixed(m.Height)-vm.Ascent-vm.Descent, 0)
	return vm
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * 64))
}

func fromFixed(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
