package stream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/png"
	"math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winnerineast/filament/engine/config"
	"github.com/winnerineast/filament/engine/loader"
	"github.com/winnerineast/filament/engine/renderer"
)

func positions() []byte {
	out := make([]byte, 0, 36)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

// triangleDoc returns one node with one triangle. The buffer holds positions at [0, 36) and
// ubyte indices at [36, 39), padded to 40.
func triangleDoc(uri string, data []byte) *gltf.Document {
	return &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0"},
		Buffers: []*gltf.Buffer{{URI: uri, ByteLength: 40, Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 3},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: 3, Min: []float64{0, 0, 0}, Max: []float64{1, 1, 0}},
			{BufferView: gltf.Index(1), ComponentType: gltf.ComponentUbyte, Type: gltf.AccessorScalar, Count: 3},
		},
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: 0},
			Indices:    gltf.Index(1),
		}}}},
		Nodes:  []*gltf.Node{{Mesh: gltf.Index(0)}},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
	}
}

func triangleBytes() []byte {
	return append(positions(), 0, 2, 1, 0)
}

func primitiveOf(t *testing.T, l loader.AssetLoader, a loader.Asset) renderer.RenderPrimitive {
	t.Helper()
	e, ok := a.NodeEntity(0)
	require.True(t, ok)
	r, ok := l.RenderableManager().Get(e)
	require.True(t, ok)
	require.Len(t, r.Primitives, 1)
	return r.Primitives[0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestLoadResidentBuffers(t *testing.T) {
	l := loader.NewAssetLoader()
	a, err := l.CreateAsset(triangleDoc("", triangleBytes()))
	require.NoError(t, err)

	require.NoError(t, NewResourceLoader().LoadResources(context.Background(), a))

	p := primitiveOf(t, l, a)
	assert.True(t, p.Vertices.Ready())
	assert.Equal(t, positions(), p.Vertices.BufferAt(0))
	// ubyte indices arrive widened to uint16
	assert.Equal(t, []byte{0, 0, 2, 0, 1, 0}, p.Indices.Data())
}

func TestLoadExternalBuffer(t *testing.T) {
	doc := triangleDoc("meshes/tri.bin", nil)
	l := loader.NewAssetLoader()
	a, err := l.CreateAsset(doc)
	require.NoError(t, err)

	fsys := fstest.MapFS{"meshes/tri.bin": {Data: triangleBytes()}}
	r := NewResourceLoader(WithFS(fsys), WithWorkers(2, 8, time.Second))
	require.NoError(t, r.LoadResources(context.Background(), a))

	assert.Equal(t, positions(), primitiveOf(t, l, a).Vertices.BufferAt(0))
	assert.Equal(t, triangleBytes(), doc.Buffers[0].Data)
}

func TestLoadDataURIBuffer(t *testing.T) {
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(triangleBytes())
	l := loader.NewAssetLoader()
	a, err := l.CreateAsset(triangleDoc(uri, nil))
	require.NoError(t, err)

	require.NoError(t, NewResourceLoader().LoadResources(context.Background(), a))
	assert.True(t, primitiveOf(t, l, a).Vertices.Ready())
}

func TestLoadExternalBufferErrors(t *testing.T) {
	tests := []struct {
		name    string
		options []ResourceLoaderBuilderOption
		want    error
	}{
		{name: "no file system", want: errNoFileSystem},
		{name: "missing file", options: []ResourceLoaderBuilderOption{WithFS(fstest.MapFS{})}},
		{name: "short file", options: []ResourceLoaderBuilderOption{WithFS(fstest.MapFS{"tri.bin": {Data: positions()}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := loader.NewAssetLoader().CreateAsset(triangleDoc("tri.bin", nil))
			require.NoError(t, err)

			err = NewResourceLoader(tt.options...).LoadResources(context.Background(), a)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoadTrivialIndices(t *testing.T) {
	doc := triangleDoc("", triangleBytes())
	doc.Meshes[0].Primitives[0].Indices = nil
	l := loader.NewAssetLoader()
	a, err := l.CreateAsset(doc)
	require.NoError(t, err)

	require.NoError(t, NewResourceLoader().LoadResources(context.Background(), a))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}, primitiveOf(t, l, a).Indices.Data())
}

func TestLoadTextures(t *testing.T) {
	embedded := pngBytes(t, 4, 2)
	external := pngBytes(t, 2, 3)

	data := append(triangleBytes(), embedded...)
	doc := triangleDoc("", data)
	doc.Buffers[0].ByteLength = len(data)
	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{Buffer: 0, ByteOffset: 40, ByteLength: len(embedded)})
	doc.Images = []*gltf.Image{
		{URI: "textures/albedo.png"},
		{BufferView: gltf.Index(2), MimeType: "image/png"},
	}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}, {Source: gltf.Index(1)}}
	doc.Materials = []*gltf.Material{{
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture:         &gltf.TextureInfo{Index: 0},
			MetallicRoughnessTexture: &gltf.TextureInfo{Index: 1},
		},
	}}
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)

	l := loader.NewAssetLoader()
	a, err := l.CreateAsset(doc)
	require.NoError(t, err)
	require.Len(t, a.TextureBindings(), 2)

	fsys := fstest.MapFS{"textures/albedo.png": {Data: external}}
	require.NoError(t, NewResourceLoader(WithFS(fsys)).LoadResources(context.Background(), a))

	inst := primitiveOf(t, l, a).Material
	albedo, ok := inst.Texture("baseColorMap")
	require.True(t, ok)
	assert.Equal(t, "image/png", albedo.MimeType)
	assert.Equal(t, 2, albedo.Width)
	assert.Equal(t, 3, albedo.Height)
	assert.True(t, albedo.SRGB)
	assert.Equal(t, external, albedo.Data)

	mr, ok := inst.Texture("metallicRoughnessMap")
	require.True(t, ok)
	assert.Equal(t, 4, mr.Width)
	assert.Equal(t, 2, mr.Height)
	assert.False(t, mr.SRGB)
	assert.Equal(t, embedded, mr.Data)
}

func TestLoadTextureOnlyBuffer(t *testing.T) {
	img := pngBytes(t, 3, 5)
	doc := triangleDoc("", triangleBytes())
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{URI: "tex.bin", ByteLength: len(img)})
	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{Buffer: 1, ByteLength: len(img)})
	doc.Images = []*gltf.Image{{BufferView: gltf.Index(2), MimeType: "image/png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: 0}}}}
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)

	l := loader.NewAssetLoader()
	a, err := l.CreateAsset(doc)
	require.NoError(t, err)
	require.Len(t, a.TextureBindings(), 1)
	assert.Equal(t, "tex.bin", a.TextureBindings()[0].BufferURI)

	fsys := fstest.MapFS{"tex.bin": {Data: img}}
	require.NoError(t, NewResourceLoader(WithFS(fsys)).LoadResources(context.Background(), a))

	tex, ok := primitiveOf(t, l, a).Material.Texture("baseColorMap")
	require.True(t, ok)
	assert.Equal(t, 3, tex.Width)
	assert.Equal(t, 5, tex.Height)
	assert.Equal(t, img, tex.Data)
	assert.Equal(t, img, doc.Buffers[1].Data)
}

func TestLoadUndecodableTexture(t *testing.T) {
	doc := triangleDoc("", triangleBytes())
	doc.Images = []*gltf.Image{{URI: "broken.png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: 0}}}}
	doc.Meshes[0].Primitives[0].Material = gltf.Index(0)

	a, err := loader.NewAssetLoader().CreateAsset(doc)
	require.NoError(t, err)

	fsys := fstest.MapFS{"broken.png": {Data: []byte("not a png")}}
	err = NewResourceLoader(WithFS(fsys)).LoadResources(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseColorMap")
}

func TestLoadCancelled(t *testing.T) {
	a, err := loader.NewAssetLoader().CreateAsset(triangleDoc("", triangleBytes()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewResourceLoader().LoadResources(ctx, a), context.Canceled)
}

func TestFetchCachesByURI(t *testing.T) {
	fsys := fstest.MapFS{"a.bin": {Data: []byte{1, 2, 3}}}
	r := NewResourceLoader(WithFS(fsys)).(*resourceLoader)

	data, err := r.fetch("a.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	delete(fsys, "a.bin")
	data, err = r.fetch("a.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	r.ClearCache()
	_, err = r.fetch("a.bin")
	assert.Error(t, err)

	_, err = r.fetch("../outside.bin")
	assert.Error(t, err)
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    []byte
		wantErr bool
	}{
		{"base64", "data:application/octet-stream;base64,AQID", []byte{1, 2, 3}, false},
		{"percent encoded", "data:text/plain,a%20b", []byte("a b"), false},
		{"no comma", "data:application/octet-stream;base64", nil, true},
		{"bad base64", "data:;base64,***", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeDataURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBadDataURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default().Stream
	cfg.Workers = 0
	cfg.BaseDir = t.TempDir()
	r := NewResourceLoader(WithConfig(cfg)).(*resourceLoader)
	assert.Equal(t, 1, r.workers)
	assert.Equal(t, 256, r.queueSize)
	assert.NotNil(t, r.fsys)
}
