package sink

import (
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
)

// Canvas is an atlas uploader backed by an Image mirror and a GPU texture.
// Uploads only touch the mirror; Flush copies the dirty area to the
// texture. Textures implementing gpucontext.TextureRegionUpdater receive
// just that area, others the whole atlas.
//
// Canvas is not safe for concurrent use.
type Canvas struct {
	img    *Image
	tex    gpucontext.TextureUpdater
	closed bool
}

// NewCanvas creates a w x h canvas flushing to tex. The texture must be
// w x h RGBA.
func NewCanvas(w, h int, tex gpucontext.TextureUpdater) (*Canvas, error) {
	if tex == nil {
		return nil, ErrNilTexture
	}
	img, err := NewImage(w, h)
	if err != nil {
		return nil, err
	}
	// The texture starts undefined.
	img.Clear()
	return &Canvas{img: img, tex: tex}, nil
}

// Upload implements atlas.Uploader.
func (c *Canvas) Upload(r image.Rectangle, pix []byte) {
	if c.closed {
		return
	}
	c.img.Upload(r, pix)
}

// Image returns the CPU mirror.
func (c *Canvas) Image() *Image { return c.img }

// Flush uploads the dirty area to the texture.
func (c *Canvas) Flush() error {
	if c.closed {
		return ErrCanvasClosed
	}
	d := c.img.Dirty()
	if d.Empty() {
		return nil
	}

	if ru, ok := c.tex.(gpucontext.TextureRegionUpdater); ok {
		if err := ru.UpdateRegion(d.Min.X, d.Min.Y, d.Dx(), d.Dy(), c.img.RGBA(d)); err != nil {
			return fmt.Errorf("sink: texture region update failed: %w", err)
		}
	} else if err := c.tex.UpdateData(c.img.RGBA(c.img.Bounds())); err != nil {
		return fmt.Errorf("sink: texture update failed: %w", err)
	}

	c.img.Reset()
	return nil
}

// Close releases the canvas. Close is idempotent.
func (c *Canvas) Close() error {
	c.closed = true
	c.tex = nil
	return nil
}
