package gpu

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// AtlasTexture is a single-channel GPU texture mirroring a glyph atlas.
// It implements atlas.Uploader.
//
// Upload cannot return an error, so the first failure is kept and reported
// by Err. Later uploads are still attempted.
type AtlasTexture struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue
	tex    hal.Texture
	view   hal.TextureView

	width, height uint32

	uploads uint64
	err     error
}

// NewAtlasTexture creates a width x height R8Unorm texture and its view.
func NewAtlasTexture(device hal.Device, queue hal.Queue, width, height uint32) (*AtlasTexture, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyph_atlas",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create atlas texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "glyph_atlas_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create atlas texture view: %w", err)
	}

	slogger().Debug("gpu: atlas texture created", "width", width, "height", height)
	return &AtlasTexture{
		device: device,
		queue:  queue,
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
	}, nil
}

// Upload writes single-channel coverage into the texture at r.
func (t *AtlasTexture) Upload(r image.Rectangle, pix []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.write(r, pix); err != nil {
		slogger().Warn("gpu: atlas upload failed", "rect", r, "err", err)
		if t.err == nil {
			t.err = err
		}
		return
	}
	t.uploads++
}

func (t *AtlasTexture) write(r image.Rectangle, pix []byte) error {
	if t.tex == nil {
		return ErrDestroyed
	}
	bounds := image.Rect(0, 0, int(t.width), int(t.height))
	if r.Empty() || !r.In(bounds) {
		return fmt.Errorf("gpu: upload rect %v outside %v", r, bounds)
	}
	w, h := r.Dx(), r.Dy()
	if len(pix) < w*h {
		return fmt.Errorf("gpu: upload of %v needs %d bytes, got %d", r, w*h, len(pix))
	}

	//nolint:gosec // r lies inside the texture, so every value fits uint32
	err := t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y)},
			Aspect:   gputypes.TextureAspectAll,
		},
		pix[:w*h],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("gpu: write atlas texture: %w", err)
	}
	return nil
}

// Err returns the first upload error, if any.
func (t *AtlasTexture) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// ResetErr clears the stored upload error. Call it after re-uploading the
// atlas, for example once the cache has been cleared.
func (t *AtlasTexture) ResetErr() {
	t.mu.Lock()
	t.err = nil
	t.mu.Unlock()
}

// Uploads returns the number of successful uploads.
func (t *AtlasTexture) Uploads() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uploads
}

// Size returns the texture dimensions.
func (t *AtlasTexture) Size() (width, height uint32) { return t.width, t.height }

// Texture returns the underlying HAL texture.
func (t *AtlasTexture) Texture() hal.Texture { return t.tex }

// View returns the texture view for binding in a bind group.
func (t *AtlasTexture) View() hal.TextureView { return t.view }

// Destroy releases the texture and its view. It is safe to call twice.
func (t *AtlasTexture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
		slogger().Debug("gpu: atlas texture destroyed")
	}
}
