// Command atlasdemo lays out text with the Go Regular font, caches its
// glyphs in an atlas and writes the atlas as PNG.
//
//	atlasdemo -text "Hello, world" -size 32 -width 400 -align center \
//	    -output atlas.png -render text.png -pdf atlas.pdf
//
// With -shaped, advances and kerning come from the HarfBuzz shaper instead
// of the font's kern table.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphcache"
	"github.com/gogpu/glyphcache/atlas"
	"github.com/gogpu/glyphcache/atlasviz"
	"github.com/gogpu/glyphcache/font"
	"github.com/gogpu/glyphcache/layout"
	"github.com/gogpu/glyphcache/sink"
)

const sampleText = "The quick brown fox jumps over the lazy dog.\n" +
	"Sphinx of black quartz, judge my vow!"

func main() {
	var (
		text    = flag.String("text", sampleText, "text to lay out")
		size    = flag.Float64("size", 32, "font size in pixels per em")
		width   = flag.Float64("width", 480, "wrap width in pixels (0 disables wrapping)")
		align   = flag.String("align", "left", "line alignment: left, center or right")
		side    = flag.Int("atlas", 512, "atlas width and height in pixels")
		output  = flag.String("output", "atlas.png", "atlas PNG output file")
		render  = flag.String("render", "", "optional PNG of the rendered text")
		pdfOut  = flag.String("pdf", "", "optional PDF map of the atlas rows")
		shaped  = flag.Bool("shaped", false, "measure text with the HarfBuzz shaper")
		verbose = flag.Bool("v", false, "log cache activity to stderr")
	)
	flag.Parse()

	if *verbose {
		glyphcache.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	a, err := parseAlign(*align)
	if err != nil {
		log.Fatalf("Invalid -align: %v", err)
	}

	face, metrics, err := loadFace(*shaped)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}
	img, err := sink.NewImage(*side, *side)
	if err != nil {
		log.Fatalf("Failed to create atlas image: %v", err)
	}

	cfg := atlas.DefaultConfig()
	cfg.Width, cfg.Height = uint32(*side), uint32(*side) //nolint:gosec // validated by sink.NewImage
	r, err := glyphcache.NewTextRenderer(face, cfg, img)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	opts := layout.Options{
		Size:      float32(*size),
		MaxWidth:  float32(*width),
		Align:     a,
		Normalize: true,
	}
	calls, err := r.DrawCalls(*text, opts)
	if err != nil {
		log.Fatalf("Failed to cache glyphs: %v", err)
	}

	if err := savePNG(*output, img.Alpha()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	s := r.Cache().Stats()
	log.Printf("Atlas saved to %s (%d glyphs, %d draw calls, %.0f%% of rows used)\n",
		*output, r.Cache().Len(), len(calls), 100*r.Cache().Snapshot().Occupancy())
	log.Printf("Cache: %d hits, %d misses, %d uploads\n", s.Hits, s.Misses, s.Uploads)
	if metrics != nil {
		ms := metrics.Stats()
		log.Printf("Shaper: %d memoized metrics, %d hits, %d misses\n", ms.Entries, ms.Hits, ms.Misses)
	}

	if *render != "" {
		words := layout.Layout(*text, face, opts)
		_, hi := layout.Bounds(words)
		w := max(int(hi.X)+1, int(*width), 1)
		h := max(int(hi.Y)+1, 1)
		if err := savePNG(*render, composite(img.Alpha(), calls, w, h)); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Text saved to %s (%dx%d)\n", *render, w, h)
	}

	if *pdfOut != "" {
		f, err := os.Create(*pdfOut)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *pdfOut, err)
		}
		defer f.Close()
		if err := atlasviz.WritePDF(f, r.Cache().Snapshot()); err != nil {
			log.Fatalf("Failed to write PDF: %v", err)
		}
		log.Printf("Atlas map saved to %s\n", *pdfOut)
	}
}

// loadFace returns Go Regular, measured by the shaper when shaped is set.
func loadFace(shaped bool) (glyphcache.Face, *font.ShapedMetrics, error) {
	if !shaped {
		face, err := font.Parse(goregular.TTF, 1)
		return face, nil, err
	}
	face, err := font.NewShapedFace(goregular.TTF, 1)
	if err != nil {
		return nil, nil, err
	}
	return face, face.Metrics, nil
}

func parseAlign(s string) (layout.Alignment, error) {
	switch s {
	case "left":
		return layout.AlignLeft, nil
	case "center":
		return layout.AlignCenter, nil
	case "right":
		return layout.AlignRight, nil
	}
	return layout.AlignLeft, fmt.Errorf("unknown alignment %q", s)
}

// composite draws every call, masking black ink with the atlas coverage.
func composite(mask *image.Alpha, calls []glyphcache.DrawCall, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	ink := image.NewUniform(color.Black)
	for _, c := range calls {
		draw.DrawMask(dst, c.Dest, ink, image.Point{}, mask, c.Source.Min, draw.Over)
	}
	return dst
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
