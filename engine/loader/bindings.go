package loader

import (
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/renderer"
	"github.com/winnerineast/filament/engine/renderer/material"
	"github.com/winnerineast/filament/engine/scene"
)

// BufferBinding is a deferred copy of a byte range of a source buffer into a destination
// vertex buffer slot or index buffer. Exactly one of VertexBuffer and IndexBuffer is set.
type BufferBinding struct {
	// URI is the source buffer locator as written in the document. Empty for GLB-resident data.
	URI string
	// Data points at the Data field of the source buffer. *Data stays empty until external bytes are
	// loaded. Data is nil when there is no source at all (GenerateTrivialIndices).
	Data *[]byte
	// Buffer is the index of the source buffer, -1 when there is none.
	Buffer int
	// TotalSize is the declared byte length of the whole source buffer.
	TotalSize int
	// Offset and Size delimit the byte range inside the source buffer.
	Offset int
	Size   int
	// Slot is the destination vertex buffer slot.
	Slot         int
	VertexBuffer renderer.VertexBuffer
	IndexBuffer  renderer.IndexBuffer
	// ConvertBytesToShorts asks the consumer to widen 8-bit source indices to 16-bit.
	ConvertBytesToShorts bool
	// GenerateTrivialIndices asks the consumer to fill the index buffer with 0..n-1.
	GenerateTrivialIndices bool
}

// TextureBinding is a deferred attachment of an encoded image to a material instance parameter.
type TextureBinding struct {
	// URI is the image locator as written in the document. Empty for buffer-view images.
	URI string
	// Data points at the decoded bytes of the buffer holding the image when the image is stored in
	// a buffer view; nil for URI images.
	Data *[]byte
	// Buffer and BufferURI identify the buffer behind Data, so that a buffer holding only images
	// can still be fetched.
	Buffer    int
	BufferURI string
	// Offset and Size delimit the image inside Data. TotalSize is the length of the whole buffer.
	Offset    int
	Size      int
	TotalSize int
	MimeType  string
	// MaterialInstance and Parameter name the destination sampler parameter.
	MaterialInstance material.Instance
	Parameter        string
	Sampler          common.SamplerStagingData
	SRGB             bool
}

// Skin lists the joint entities of a glTF skin and the renderable entities it deforms.
type Skin struct {
	Name    string
	Joints  []scene.Entity
	Targets []scene.Entity
}
