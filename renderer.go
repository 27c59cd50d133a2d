package glyphcache

import (
	"errors"
	"image"
	"math"

	"github.com/gogpu/glyphcache/atlas"
	"github.com/gogpu/glyphcache/layout"
)

// ErrNilFace is returned by NewTextRenderer when no face is given.
var ErrNilFace = errors.New("glyphcache: nil face")

// Face is a font usable by TextRenderer. font.Face implements it.
type Face interface {
	atlas.Rasterizer
	layout.FontMetrics

	// Request returns the glyph request for r at scale with its baseline
	// origin at pos.
	Request(r rune, scale float32, pos atlas.Vec2) atlas.GlyphRequest
}

// DrawCall is one glyph to copy from the atlas texture to the screen.
type DrawCall struct {
	// Index is the byte offset of the rune in the prepared text
	// (see layout.Prepare).
	Index int

	Rune rune

	// Source is the glyph's area of the atlas in texels.
	Source image.Rectangle

	// UV is Source in normalized texture coordinates.
	UV atlas.UVRect

	// Dest is the screen rectangle to draw the glyph at.
	Dest image.Rectangle
}

// TextRenderer turns text into draw calls against a glyph atlas.
// It is not safe for concurrent use.
type TextRenderer struct {
	face  Face
	cache *atlas.Cache
	up    atlas.Uploader

	reqs []atlas.GlyphRequest
	meta []glyphMeta
}

// glyphMeta is the source rune of a request.
type glyphMeta struct {
	index int
	r     rune
}

// NewTextRenderer creates a renderer caching glyphs of face in an atlas
// configured by cfg. Rasterized glyphs are handed to up, which may be nil.
func NewTextRenderer(face Face, cfg atlas.Config, up atlas.Uploader) (*TextRenderer, error) {
	if face == nil {
		return nil, ErrNilFace
	}
	cache, err := atlas.New(cfg, face)
	if err != nil {
		return nil, err
	}
	return &TextRenderer{face: face, cache: cache, up: up}, nil
}

// Cache returns the underlying atlas.
func (r *TextRenderer) Cache() *atlas.Cache { return r.cache }

// DrawCalls lays out text, caches every glyph it needs in one batch and
// returns a draw call per visible glyph, in text order.
//
// All draw calls of a successful call are valid together. A later call may
// move glyphs, so draw calls must be used before the next DrawCalls. Cache
// errors are returned unchanged and can be tested with errors.Is.
func (r *TextRenderer) DrawCalls(text string, opts layout.Options) ([]DrawCall, error) {
	text = layout.Prepare(text, opts)
	opts.Normalize = false
	words := layout.Layout(text, r.face, opts)

	ascent := r.face.VMetrics(opts.Size).Ascent
	r.reqs = r.reqs[:0]
	r.meta = r.meta[:0]
	for _, w := range words {
		r.appendWord(w, opts.Size, ascent)
	}

	by, err := r.cache.CacheGlyphs(r.reqs, r.up)
	if err != nil {
		return nil, err
	}
	Logger().Debug("glyphcache: draw calls",
		"words", len(words), "glyphs", len(r.reqs), "cachedBy", by)

	width, height := r.cache.Dimensions()
	calls := make([]DrawCall, 0, len(r.reqs))
	for i, req := range r.reqs {
		tc, ok, err := r.cache.RectFor(req)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		calls = append(calls, DrawCall{
			Index:  r.meta[i].index,
			Rune:   r.meta[i].r,
			Source: texels(tc.UV, width, height),
			UV:     tc.UV,
			Dest:   tc.Pixels,
		})
	}
	return calls, nil
}

// appendWord queues a request per rune of w. The pen starts at the word
// origin and moves by kerning and advance, matching layout.Layout.
func (r *TextRenderer) appendWord(w layout.WordPos, size, ascent float32) {
	x := w.Origin.X
	baseline := w.Origin.Y + ascent
	var prev rune
	for i, ch := range w.Text {
		if i > 0 {
			x += r.face.Kerning(prev, ch, size)
		}
		prev = ch
		r.reqs = append(r.reqs, r.face.Request(ch, size, atlas.Vec2{X: x, Y: baseline}))
		r.meta = append(r.meta, glyphMeta{index: w.Start + i, r: ch})
		x += r.face.Advance(ch, size)
	}
}

// texels converts uv back to atlas pixels.
func texels(uv atlas.UVRect, width, height uint32) image.Rectangle {
	tw, th := float64(width), float64(height)
	return image.Rect(
		int(math.Round(float64(uv.U0)*tw)),
		int(math.Round(float64(uv.V0)*th)),
		int(math.Round(float64(uv.U1)*tw)),
		int(math.Round(float64(uv.V1)*th)),
	)
}

