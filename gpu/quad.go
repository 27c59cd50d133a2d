package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/glyphcache"
	"github.com/gogpu/gputypes"
)

const (
	// glyphVertexStride is the byte size of one vertex: position + tex_coord.
	glyphVertexStride = 16

	// glyphUniformSize is the byte size of GlyphUniforms in glyph.wgsl.
	glyphUniformSize = 80
)

// GlyphQuad is one glyph drawn as a textured quad.
type GlyphQuad struct {
	// Position of quad corners in pixels
	X0, Y0, X1, Y1 float32

	// UV coordinates in the atlas [0, 1]
	U0, V0, U1, V1 float32
}

// GlyphVertex matches VertexInput in glyph.wgsl.
type GlyphVertex struct {
	X, Y float32
	U, V float32
}

// QuadsFromDrawCalls converts draw calls to quads.
func QuadsFromDrawCalls(calls []glyphcache.DrawCall) []GlyphQuad {
	quads := make([]GlyphQuad, len(calls))
	for i, c := range calls {
		quads[i] = GlyphQuad{
			X0: float32(c.Dest.Min.X),
			Y0: float32(c.Dest.Min.Y),
			X1: float32(c.Dest.Max.X),
			Y1: float32(c.Dest.Max.Y),
			U0: c.UV.U0,
			V0: c.UV.V0,
			U1: c.UV.U1,
			V1: c.UV.V1,
		}
	}
	return quads
}

// QuadsToVertices expands each quad to 4 vertices, clockwise from the
// top-left corner.
func QuadsToVertices(quads []GlyphQuad) []GlyphVertex {
	vertices := make([]GlyphVertex, len(quads)*4)
	for i, q := range quads {
		base := i * 4
		vertices[base+0] = GlyphVertex{X: q.X0, Y: q.Y0, U: q.U0, V: q.V0}
		vertices[base+1] = GlyphVertex{X: q.X1, Y: q.Y0, U: q.U1, V: q.V0}
		vertices[base+2] = GlyphVertex{X: q.X1, Y: q.Y1, U: q.U1, V: q.V1}
		vertices[base+3] = GlyphVertex{X: q.X0, Y: q.Y1, U: q.U0, V: q.V1}
	}
	return vertices
}

// QuadIndices returns two triangles per quad: 0,1,2 and 2,3,0.
// numQuads must not exceed MaxQuads.
func QuadIndices(numQuads int) []uint16 {
	indices := make([]uint16, numQuads*6)
	for i := range numQuads {
		base := i * 6
		vertex := uint16(i * 4) //nolint:gosec // bounded by MaxQuads

		indices[base+0] = vertex + 0
		indices[base+1] = vertex + 1
		indices[base+2] = vertex + 2

		indices[base+3] = vertex + 2
		indices[base+4] = vertex + 3
		indices[base+5] = vertex + 0
	}
	return indices
}

// MaxQuads is the largest quad count addressable with 16-bit indices.
const MaxQuads = math.MaxUint16 / 4

// VertexData serializes quads into vertex buffer bytes.
func VertexData(quads []GlyphQuad) []byte {
	if len(quads) == 0 {
		return nil
	}
	vertices := QuadsToVertices(quads)
	data := make([]byte, len(vertices)*glyphVertexStride)
	for i, v := range vertices {
		writeGlyphVertex(data[i*glyphVertexStride:], v)
	}
	return data
}

func writeGlyphVertex(buf []byte, v GlyphVertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.U))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.V))
}

// IndexData serializes quad indices into index buffer bytes (Uint16).
func IndexData(numQuads int) []byte {
	indices := QuadIndices(numQuads)
	data := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], idx)
	}
	return data
}

// VertexLayout returns the vertex buffer layout of the glyph shader:
//
//	location 0: position (vec2<f32>)
//	location 1: tex_coord (vec2<f32>)
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: glyphVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coord
			},
		},
	}
}

// PixelTransform returns a column-major matrix mapping pixel coordinates of
// a width x height target, y down, to clip space.
func PixelTransform(width, height float32) [16]float32 {
	return [16]float32{
		2 / width, 0, 0, 0,
		0, -2 / height, 0, 0,
		0, 0, 1, 0,
		-1, 1, 0, 1,
	}
}

// UniformData builds the GlyphUniforms buffer: transform followed by the
// straight-alpha RGBA text color.
func UniformData(transform [16]float32, color [4]float32) []byte {
	buf := make([]byte, glyphUniformSize)
	off := 0
	for _, v := range transform {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range color {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	return buf
}
