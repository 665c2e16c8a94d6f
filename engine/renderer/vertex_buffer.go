package renderer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexAttribute names the semantic a vertex stream feeds in the shader.
type VertexAttribute int

const (
	AttributePosition VertexAttribute = iota
	AttributeTangents
	AttributeColor
	AttributeUV0
	AttributeUV1
	AttributeBoneIndices
	AttributeBoneWeights
)

var vertexAttributeNames = map[VertexAttribute]string{
	AttributePosition:    "position",
	AttributeTangents:    "tangents",
	AttributeColor:       "color",
	AttributeUV0:         "uv0",
	AttributeUV1:         "uv1",
	AttributeBoneIndices: "bone_indices",
	AttributeBoneWeights: "bone_weights",
}

func (a VertexAttribute) String() string {
	if s, ok := vertexAttributeNames[a]; ok {
		return s
	}
	return fmt.Sprintf("attribute(%d)", int(a))
}

// AttributeLayout describes where one attribute lives inside the buffer slots of a VertexBuffer.
type AttributeLayout struct {
	Attribute  VertexAttribute
	Slot       int
	Format     wgpu.VertexFormat
	Offset     uint32
	Stride     uint32
	Normalized bool
}

type vertexBuffer struct {
	mu          sync.RWMutex
	vertexCount int
	bufferCount int
	attributes  map[VertexAttribute]AttributeLayout
	slots       [][]byte
}

// VertexBuffer is a destination for vertex data organised in numbered buffer slots.
// The layout is fixed at construction; slot contents are written later, possibly from several goroutines.
// Thread-safe for concurrent access.
type VertexBuffer interface {
	// VertexCount returns the number of vertices the buffer holds.
	VertexCount() int

	// BufferCount returns the number of buffer slots.
	BufferCount() int

	// Attribute returns the layout of an attribute.
	//
	// Parameters:
	//   - a: the attribute to look up
	//
	// Returns:
	//   - AttributeLayout: the layout of a
	//   - bool: false if the buffer does not carry a
	Attribute(a VertexAttribute) (AttributeLayout, bool)

	// Attributes returns every declared attribute layout ordered by slot.
	Attributes() []AttributeLayout

	// SetBufferAt stores the bytes of one slot. The slice is retained, not copied.
	//
	// Parameters:
	//   - slot: the buffer slot to fill
	//   - data: the raw vertex bytes
	//
	// Returns:
	//   - error: an error if the slot is out of range
	SetBufferAt(slot int, data []byte) error

	// BufferAt returns the bytes stored in a slot, or nil if the slot was never written.
	BufferAt(slot int) []byte

	// Ready reports whether every slot referenced by an attribute has been written.
	Ready() bool
}

var _ VertexBuffer = &vertexBuffer{}

// NewVertexBuffer creates a VertexBuffer from the given layout options.
//
// Parameters:
//   - options: variadic list of VertexBufferBuilderOption functions describing the layout
//
// Returns:
//   - VertexBuffer: the new buffer
//   - error: an error if an attribute references a slot outside the buffer count
func NewVertexBuffer(options ...VertexBufferBuilderOption) (VertexBuffer, error) {
	vb := &vertexBuffer{
		attributes: make(map[VertexAttribute]AttributeLayout),
	}
	for _, opt := range options {
		opt(vb)
	}

	if vb.bufferCount <= 0 {
		return nil, fmt.Errorf("vertex buffer needs at least one buffer slot")
	}
	for _, a := range vb.attributes {
		if a.Slot < 0 || a.Slot >= vb.bufferCount {
			return nil, fmt.Errorf("attribute %s uses slot %d, buffer has %d", a.Attribute, a.Slot, vb.bufferCount)
		}
	}
	vb.slots = make([][]byte, vb.bufferCount)
	return vb, nil
}

func (vb *vertexBuffer) VertexCount() int {
	return vb.vertexCount
}

func (vb *vertexBuffer) BufferCount() int {
	return vb.bufferCount
}

func (vb *vertexBuffer) Attribute(a VertexAttribute) (AttributeLayout, bool) {
	l, ok := vb.attributes[a]
	return l, ok
}

func (vb *vertexBuffer) Attributes() []AttributeLayout {
	out := make([]AttributeLayout, 0, len(vb.attributes))
	for _, l := range vb.attributes {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b AttributeLayout) int {
		if a.Slot != b.Slot {
			return a.Slot - b.Slot
		}
		return int(a.Attribute) - int(b.Attribute)
	})
	return out
}

func (vb *vertexBuffer) SetBufferAt(slot int, data []byte) error {
	if slot < 0 || slot >= vb.bufferCount {
		return fmt.Errorf("buffer slot %d out of range [0, %d)", slot, vb.bufferCount)
	}
	vb.mu.Lock()
	vb.slots[slot] = data
	vb.mu.Unlock()
	return nil
}

func (vb *vertexBuffer) BufferAt(slot int) []byte {
	if slot < 0 || slot >= vb.bufferCount {
		return nil
	}
	vb.mu.RLock()
	defer vb.mu.RUnlock()
	return vb.slots[slot]
}

func (vb *vertexBuffer) Ready() bool {
	vb.mu.RLock()
	defer vb.mu.RUnlock()
	for _, a := range vb.attributes {
		if vb.slots[a.Slot] == nil {
			return false
		}
	}
	return true
}
