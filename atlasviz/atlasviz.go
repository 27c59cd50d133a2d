// Package atlasviz draws an atlas snapshot for debugging.
//
// Each atlas pixel becomes one PDF point. Rows are outlined and tinted by
// recency, glyph rectangles are filled and free bands are hatched grey:
//
//	f, _ := os.Create("atlas.pdf")
//	defer f.Close()
//	err := atlasviz.WritePDF(f, cache.Snapshot())
package atlasviz

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/gogpu/glyphcache/atlas"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
)

// mmPerPx maps one atlas pixel to one PDF point.
const mmPerPx = 25.4 / 72

const (
	outlineWidth = 0.25 * mmPerPx
	hatchStep    = 4 * mmPerPx
)

// ErrEmptySnapshot is returned for snapshots without dimensions.
var ErrEmptySnapshot = errors.New("atlasviz: empty snapshot")

var (
	background = canvas.Hex("#ffffff")
	freeFill   = canvas.Hex("#e6e6e6")
	hatch      = canvas.Hex("#b0b0b0")
	rowStroke  = canvas.Hex("#4060a0")
	oldRow     = canvas.Hex("#dde6f5")
	newRow     = canvas.Hex("#a9c1ea")
	glyphFill  = canvas.Hex("#202020")
)

// WritePDF renders s as a single-page PDF to w.
func WritePDF(w io.Writer, s atlas.Snapshot) error {
	if s.Width == 0 || s.Height == 0 {
		return ErrEmptySnapshot
	}
	width := float64(s.Width) * mmPerPx
	height := float64(s.Height) * mmPerPx

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	ctx.SetStrokeColor(color.RGBA{})
	ctx.SetFillColor(background)
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	drawFree(ctx, s.Free, width)
	drawRows(ctx, s.Rows)

	writer := pdf.New(w, width, height, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("atlasviz: write pdf: %w", err)
	}
	return nil
}

func drawFree(ctx *canvas.Context, free []atlas.Band, width float64) {
	for _, b := range free {
		y := float64(b.Start) * mmPerPx
		h := float64(b.Height()) * mmPerPx

		ctx.SetStrokeColor(color.RGBA{})
		ctx.SetFillColor(freeFill)
		ctx.DrawPath(0, y, canvas.Rectangle(width, h))

		ctx.SetStrokeColor(hatch)
		ctx.SetStrokeWidth(outlineWidth)
		for x := 0.0; x+h <= width; x += hatchStep {
			p := &canvas.Path{}
			p.MoveTo(0, h)
			p.LineTo(h, 0)
			ctx.DrawPath(x, y, p)
		}
	}
}

// drawRows tints rows from oldRow (least recently used) to newRow.
func drawRows(ctx *canvas.Context, rows []atlas.RowInfo) {
	for i, r := range rows {
		t := 1.0
		if len(rows) > 1 {
			t = float64(i) / float64(len(rows)-1)
		}
		y := float64(r.Top) * mmPerPx
		h := float64(r.Height) * mmPerPx

		ctx.SetFillColor(lerp(oldRow, newRow, t))
		ctx.SetStrokeColor(rowStroke)
		ctx.SetStrokeWidth(outlineWidth)
		ctx.DrawPath(0, y, canvas.Rectangle(float64(r.Width)*mmPerPx, h))

		ctx.SetStrokeColor(color.RGBA{})
		ctx.SetFillColor(glyphFill)
		for _, g := range r.Glyphs {
			ctx.DrawPath(
				float64(g.Rect.Min.X)*mmPerPx,
				float64(g.Rect.Min.Y)*mmPerPx,
				canvas.Rectangle(float64(g.Rect.Dx())*mmPerPx, float64(g.Rect.Dy())*mmPerPx),
			)
		}
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
