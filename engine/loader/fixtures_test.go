package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/require"
)

func float32Bytes(v ...float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

func uint16Bytes(v ...uint16) []byte {
	out := make([]byte, 2*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint16(out[2*i:], n)
	}
	return out
}

// pad4 extends b to a multiple of four bytes.
func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// triangleDoc returns a document holding one node with one indexed triangle.
// Buffer layout: positions [0, 36), ushort indices [36, 42), padding to 44.
func triangleDoc() *gltf.Document {
	data := float32Bytes(
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	)
	data = pad4(append(data, uint16Bytes(0, 1, 2)...))

	return &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0"},
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
		Accessors: []*gltf.Accessor{
			{
				BufferView:    gltf.Index(0),
				ComponentType: gltf.ComponentFloat,
				Type:          gltf.AccessorVec3,
				Count:         3,
				Min:           []float64{0, 0, 0},
				Max:           []float64{1, 1, 0},
			},
			{
				BufferView:    gltf.Index(1),
				ComponentType: gltf.ComponentUshort,
				Type:          gltf.AccessorScalar,
				Count:         3,
			},
		},
		Meshes: []*gltf.Mesh{{
			Name: "triangle",
			Primitives: []*gltf.Primitive{{
				Attributes: gltf.PrimitiveAttributes{gltf.POSITION: 0},
				Indices:    gltf.Index(1),
				Mode:       gltf.PrimitiveTriangles,
			}},
		}},
		Nodes:  []*gltf.Node{{Name: "triangle", Mesh: gltf.Index(0)}},
		Scenes: []*gltf.Scene{{Name: "main", Nodes: []int{0}}},
		Scene:  gltf.Index(0),
	}
}

// encodeJSON encodes doc as a JSON glTF with its first buffer embedded as a data URI.
func encodeJSON(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	buf := doc.Buffers[0]
	buf.URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Data)

	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = false
	require.NoError(t, enc.Encode(doc))

	buf.URI = ""
	return out.Bytes()
}

// encodeGLB encodes doc as a GLB container with its first buffer in the binary chunk.
func encodeGLB(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	return out.Bytes()
}
