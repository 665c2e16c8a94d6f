package renderer

import "github.com/cogentcore/webgpu/wgpu"

// VertexBufferBuilderOption is a functional option for configuring a VertexBuffer via NewVertexBuffer.
type VertexBufferBuilderOption func(*vertexBuffer)

// WithVertexCount sets the number of vertices.
//
// Parameters:
//   - n: the vertex count
//
// Returns:
//   - VertexBufferBuilderOption: a function that applies the vertex count option
func WithVertexCount(n int) VertexBufferBuilderOption {
	return func(vb *vertexBuffer) {
		vb.vertexCount = n
	}
}

// WithBufferCount sets the number of buffer slots. Slots that carry no attribute stay empty.
//
// Parameters:
//   - n: the slot count
//
// Returns:
//   - VertexBufferBuilderOption: a function that applies the buffer count option
func WithBufferCount(n int) VertexBufferBuilderOption {
	return func(vb *vertexBuffer) {
		vb.bufferCount = n
	}
}

// WithAttribute declares an attribute fed from a slot.
// Declaring the same attribute twice keeps the last declaration.
//
// Parameters:
//   - a: the attribute semantic
//   - slot: the buffer slot holding the data
//   - format: the element format
//   - offset: the byte offset of the first element inside the slot
//   - stride: the byte distance between consecutive elements
//
// Returns:
//   - VertexBufferBuilderOption: a function that applies the attribute option
func WithAttribute(a VertexAttribute, slot int, format wgpu.VertexFormat, offset, stride uint32) VertexBufferBuilderOption {
	return func(vb *vertexBuffer) {
		l := vb.attributes[a]
		vb.attributes[a] = AttributeLayout{
			Attribute:  a,
			Slot:       slot,
			Format:     format,
			Offset:     offset,
			Stride:     stride,
			Normalized: l.Normalized,
		}
	}
}

// WithNormalized marks an attribute as normalized integer data.
// It must follow the WithAttribute option of the same attribute.
//
// Parameters:
//   - a: the attribute semantic
//
// Returns:
//   - VertexBufferBuilderOption: a function that applies the normalized flag
func WithNormalized(a VertexAttribute) VertexBufferBuilderOption {
	return func(vb *vertexBuffer) {
		if l, ok := vb.attributes[a]; ok {
			l.Normalized = true
			vb.attributes[a] = l
		}
	}
}
