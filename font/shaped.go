package font

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/glyphcache/atlas"
	"github.com/gogpu/glyphcache/internal/memo"
	"github.com/gogpu/glyphcache/layout"
	"golang.org/x/image/math/fixed"
)

// ShapedMetrics measures text with the HarfBuzz shaper. Kerning is the
// shaped advance of a pair minus the advances of its two runes, so it
// includes GPOS pair adjustments.
//
// The most recently used results are memoized per scale. ShapedMetrics is
// safe for concurrent use.
type ShapedMetrics struct {
	mu     sync.Mutex // guards shaper
	face   *gotext.Face
	shaper shaping.HarfbuzzShaper
	lang   language.Language

	advances *memo.Memo[advanceKey, float32]
	kerning  *memo.Memo[pairKey, float32]
}

type advanceKey struct {
	r     rune
	scale float32
}

type pairKey struct {
	prev, next rune
	scale      float32
}

// NewShapedMetrics parses TrueType or OpenType data for shaping.
func NewShapedMetrics(data []byte) (*ShapedMetrics, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse font for shaping: %w", err)
	}
	return &ShapedMetrics{
		face:     face,
		lang:     language.NewLanguage("en"),
		advances: memo.New[advanceKey, float32](0),
		kerning:  memo.New[pairKey, float32](0),
	}, nil
}

func (m *ShapedMetrics) shape(runes []rune, scale float32) shaping.Output {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      m.face,
		Size:      fixed.Int26_6(scale * 64),
		Script:    language.LookupScript(runes[0]),
		Language:  m.lang,
	})
}

// Advance implements layout.FontMetrics.
func (m *ShapedMetrics) Advance(r rune, scale float32) float32 {
	return m.advances.GetOrCompute(advanceKey{r, scale}, func() float32 {
		return fromFixed(m.shape([]rune{r}, scale).Advance)
	})
}

// Kerning implements layout.FontMetrics.
func (m *ShapedMetrics) Kerning(prev, next rune, scale float32) float32 {
	return m.kerning.GetOrCompute(pairKey{prev, next, scale}, func() float32 {
		pair := fromFixed(m.shape([]rune{prev, next}, scale).Advance)
		return pair - m.Advance(prev, scale) - m.Advance(next, scale)
	})
}

// VMetrics implements layout.FontMetrics.
func (m *ShapedMetrics) VMetrics(scale float32) layout.VMetrics {
	b := m.shape([]rune{'x'}, scale).LineBounds
	return layout.VMetrics{
		Ascent:  fromFixed(b.Ascent),
		Descent: -fromFixed(b.Descent),
		LineGap: fromFixed(b.Gap),
	}
}

// MetricsStats reports memo activity of a ShapedMetrics.
type MetricsStats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats sums the advance and kerning memo counters.
func (m *ShapedMetrics) Stats() MetricsStats {
	a, k := m.advances.Stats(), m.kerning.Stats()
	return MetricsStats{
		Entries:   a.Len + k.Len,
		Hits:      a.Hits + k.Hits,
		Misses:    a.Misses + k.Misses,
		Evictions: a.Evictions + k.Evictions,
	}
}

// ShapedFace rasterizes glyphs with a [Face] and measures them with
// [ShapedMetrics], so layout sees GPOS kerning.
type ShapedFace struct {
	*Face
	Metrics *ShapedMetrics
}

// NewShapedFace parses data for both rasterizing and shaping.
func NewShapedFace(data []byte, id atlas.FontID) (*ShapedFace, error) {
	face, err := Parse(data, id)
	if err != nil {
		return nil, err
	}
	metrics, err := NewShapedMetrics(data)
	if err != nil {
		return nil, err
	}
	return &ShapedFace{Face: face, Metrics: metrics}, nil
}

// Kerning implements layout.FontMetrics.
func (f *ShapedFace) Kerning(prev, next rune, scale float32) float32 {
	return f.Metrics.Kerning(prev, next, scale)
}

// Advance implements layout.FontMetrics.
func (f *ShapedFace) Advance(r rune, scale float32) float32 {
	return f.Metrics.Advance(r, scale)
}

// VMetrics implements layout.FontMetrics.
func (f *ShapedFace) VMetrics(scale float32) layout.VMetrics {
	return f.Metrics.VMetrics(scale)
}
