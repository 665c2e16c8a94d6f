package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

type indexBuffer struct {
	mu         sync.RWMutex
	indexCount int
	format     wgpu.IndexFormat
	data       []byte
}

// IndexBuffer is a destination for index data of a fixed count and format.
// Thread-safe for concurrent access.
type IndexBuffer interface {
	// IndexCount returns the number of indices.
	IndexCount() int

	// Format returns the element format, Uint16 or Uint32.
	Format() wgpu.IndexFormat

	// SetBuffer stores the raw index bytes. The slice is retained, not copied.
	//
	// Parameters:
	//   - data: exactly IndexCount elements of Format
	//
	// Returns:
	//   - error: an error if the byte length does not match the count and format
	SetBuffer(data []byte) error

	// Data returns the stored bytes, or nil if SetBuffer was never called.
	Data() []byte
}

var _ IndexBuffer = &indexBuffer{}

// IndexFormatSize returns the byte size of one index of the given format, or 0 for an unknown format.
func IndexFormatSize(f wgpu.IndexFormat) int {
	switch f {
	case wgpu.IndexFormatUint16:
		return 2
	case wgpu.IndexFormatUint32:
		return 4
	default:
		return 0
	}
}

// NewIndexBuffer creates an IndexBuffer. The format defaults to Uint32.
//
// Parameters:
//   - options: variadic list of IndexBufferBuilderOption functions
//
// Returns:
//   - IndexBuffer: the new buffer
//   - error: an error if the format is not Uint16 or Uint32
func NewIndexBuffer(options ...IndexBufferBuilderOption) (IndexBuffer, error) {
	ib := &indexBuffer{format: wgpu.IndexFormatUint32}
	for _, opt := range options {
		opt(ib)
	}
	if IndexFormatSize(ib.format) == 0 {
		return nil, fmt.Errorf("unsupported index format %v", ib.format)
	}
	return ib, nil
}

func (ib *indexBuffer) IndexCount() int {
	return ib.indexCount
}

func (ib *indexBuffer) Format() wgpu.IndexFormat {
	return ib.format
}

func (ib *indexBuffer) SetBuffer(data []byte) error {
	want := ib.indexCount * IndexFormatSize(ib.format)
	if len(data) != want {
		return fmt.Errorf("index buffer expects %d bytes, got %d", want, len(data))
	}
	ib.mu.Lock()
	ib.data = data
	ib.mu.Unlock()
	return nil
}

func (ib *indexBuffer) Data() []byte {
	ib.mu.RLock()
	defer ib.mu.RUnlock()
	return ib.data
}

// IndexBufferBuilderOption is a functional option for configuring an IndexBuffer via NewIndexBuffer.
type IndexBufferBuilderOption func(*indexBuffer)

// WithIndexCount sets the number of indices.
func WithIndexCount(n int) IndexBufferBuilderOption {
	return func(ib *indexBuffer) {
		ib.indexCount = n
	}
}

// WithIndexFormat sets the element format.
func WithIndexFormat(f wgpu.IndexFormat) IndexBufferBuilderOption {
	return func(ib *indexBuffer) {
		ib.format = f
	}
}
