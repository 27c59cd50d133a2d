package sink

import (
	"image"

	"golang.org/x/image/draw"
)

// Image is an atlas uploader writing into an in-memory alpha image.
type Image struct {
	img   *image.Alpha
	dirty image.Rectangle
}

// NewImage creates a transparent mirror of a w x h atlas.
func NewImage(w, h int) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidSize
	}
	return &Image{img: image.NewAlpha(image.Rect(0, 0, w, h))}, nil
}

// Upload implements atlas.Uploader. Parts of r outside the image are
// dropped.
func (s *Image) Upload(r image.Rectangle, pix []byte) {
	if len(pix) < r.Dx()*r.Dy() {
		return
	}
	src := &image.Alpha{Pix: pix, Stride: r.Dx(), Rect: r}
	draw.Draw(s.img, r, src, r.Min, draw.Src)
	s.dirty = s.dirty.Union(r.Intersect(s.img.Rect))
}

// Alpha returns the mirrored atlas. The image is owned by s.
func (s *Image) Alpha() *image.Alpha { return s.img }

// Bounds returns the atlas bounds.
func (s *Image) Bounds() image.Rectangle { return s.img.Rect }

// Dirty returns the smallest rectangle containing every upload since the
// last Reset.
func (s *Image) Dirty() image.Rectangle { return s.dirty }

// Reset forgets the dirty area.
func (s *Image) Reset() { s.dirty = image.Rectangle{} }

// Clear makes the whole image transparent and dirty.
func (s *Image) Clear() {
	clear(s.img.Pix)
	s.dirty = s.img.Rect
}

// RGBA returns the area r as premultiplied white RGBA: coverage becomes
// the value of all four channels.
func (s *Image) RGBA(r image.Rectangle) []byte {
	r = r.Intersect(s.img.Rect)
	out := make([]byte, 0, r.Dx()*r.Dy()*4)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := s.img.PixOffset(r.Min.X, y)
		for _, a := range s.img.Pix[off : off+r.Dx()] {
			out = append(out, a, a, a, a)
		}
	}
	return out
}
