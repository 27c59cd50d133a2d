// Package gpu puts a glyph atlas on the GPU through wgpu's HAL.
//
// AtlasTexture is an R8Unorm texture that implements atlas.Uploader, so a
// cache can upload freshly rasterized glyphs straight into it:
//
//	tex, err := gpu.NewAtlasTexture(device, queue, 1024, 1024)
//	if err != nil {
//		return err
//	}
//	defer tex.Destroy()
//
//	r, err := glyphcache.NewTextRenderer(face, cfg, tex)
//	calls, err := r.DrawCalls("Hello", opts)
//	if tex.Err() != nil {
//		// an upload failed; the texture contents are stale
//	}
//
// The draw calls are turned into vertex and index data with
// QuadsFromDrawCalls, VertexData and IndexData, and drawn with the embedded
// glyph shader (GlyphShaderSource, CompileGlyphShader). Vertex positions are
// in pixels; PixelTransform maps them to clip space for a given target size.
package gpu
