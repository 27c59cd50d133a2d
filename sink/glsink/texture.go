//go:build glsink

// Package glsink uploads atlas glyphs to an OpenGL texture.
//
// The texture is single-channel (GL_R8, format GL_RED); sample the red
// channel as coverage. All methods must be called on the goroutine that
// owns the current GL context, after gl.Init.
package glsink

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Texture is an atlas uploader writing into a GL texture.
type Texture struct {
	id   uint32
	w, h int32
}

// New allocates a zeroed w x h texture.
func New(w, h int) *Texture {
	t := &Texture{w: int32(w), h: int32(h)}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	zero := make([]byte, w*h)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, t.w, t.h, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(zero))
	return t
}

// ID returns the GL texture name.
func (t *Texture) ID() uint32 { return t.id }

// Size returns the texture dimensions.
func (t *Texture) Size() (w, h int) { return int(t.w), int(t.h) }

// Upload implements atlas.Uploader.
func (t *Texture) Upload(r image.Rectangle, pix []byte) {
	if t.id == 0 || r.Empty() || len(pix) < r.Dx()*r.Dy() {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	// Glyph rows are tightly packed.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0,
		int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()),
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pix))
}

// Delete frees the texture. The Texture must not be used afterwards.
func (t *Texture) Delete() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}
