// Package sink provides atlas uploaders that keep a texture in sync with a
// glyph cache.
//
// [Image] mirrors the atlas in an *image.Alpha and records the area touched
// since the last flush. [Canvas] adds a GPU texture to the mirror and pushes
// the dirty area to it on [Canvas.Flush], through the gpucontext texture
// interfaces implemented by gogpu.
//
// OpenGL programs can use the glsink subpackage (build tag glsink) and
// WebGPU programs the AtlasTexture of the gpu package, both of which write
// each glyph to the texture as it is uploaded.
package sink
