package loader

import (
	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/engine/renderer"
	"github.com/winnerineast/filament/engine/renderer/material"
	"go.uber.org/zap"
)

// elementSize returns the packed byte size of one accessor element.
func elementSize(acc *gltf.Accessor) int {
	return int(acc.ComponentType.ByteSize()) * int(acc.Type.Components())
}

// accessorStride returns the byte distance between consecutive elements: the buffer view stride
// when one is declared, otherwise the packed element size.
func accessorStride(acc *gltf.Accessor, bv *gltf.BufferView) int {
	if bv != nil && int(bv.ByteStride) != 0 {
		return int(bv.ByteStride)
	}
	return elementSize(acc)
}

// computeBindingOffset returns the byte offset of the first element inside the source buffer.
func computeBindingOffset(acc *gltf.Accessor, bv *gltf.BufferView) int {
	return int(acc.ByteOffset) + int(bv.ByteOffset)
}

// computeBindingSize returns the number of bytes spanned by the accessor's elements. The last
// element contributes its packed size, not a full stride.
func computeBindingSize(acc *gltf.Accessor, bv *gltf.BufferView) int {
	count := int(acc.Count)
	if count == 0 {
		return 0
	}
	return accessorStride(acc, bv)*(count-1) + elementSize(acc)
}

// accessorSource resolves the buffer view and buffer an accessor reads from and validates that
// the accessor's byte range lies inside both.
func (im *assetImport) accessorSource(accIndex int, acc *gltf.Accessor) (*gltf.BufferView, int, bool) {
	doc := im.result.source
	if acc.Sparse != nil {
		im.errs.unsupported(FeatureSparseAccessor, "accessor %d", accIndex)
		return nil, 0, false
	}
	if acc.BufferView == nil {
		im.errs.malformed("accessor %d has no buffer view", accIndex)
		return nil, 0, false
	}
	bvIndex := int(*acc.BufferView)
	if bvIndex < 0 || bvIndex >= len(doc.BufferViews) {
		im.errs.malformed("accessor %d references buffer view %d of %d", accIndex, bvIndex, len(doc.BufferViews))
		return nil, 0, false
	}
	bv := doc.BufferViews[bvIndex]
	bufIndex := int(bv.Buffer)
	if bufIndex < 0 || bufIndex >= len(doc.Buffers) {
		im.errs.malformed("buffer view %d references buffer %d of %d", bvIndex, bufIndex, len(doc.Buffers))
		return nil, 0, false
	}

	end := int(acc.ByteOffset) + computeBindingSize(acc, bv)
	if end > int(bv.ByteLength) {
		im.errs.malformed("accessor %d spans %d bytes, buffer view %d has %d", accIndex, end, bvIndex, int(bv.ByteLength))
		return nil, 0, false
	}
	if int(bv.ByteOffset)+int(bv.ByteLength) > int(doc.Buffers[bufIndex].ByteLength) {
		im.errs.malformed("buffer view %d overruns buffer %d", bvIndex, bufIndex)
		return nil, 0, false
	}
	return bv, bufIndex, true
}

// vertexBinding describes the bytes of one vertex attribute accessor for slot.
func (im *assetImport) vertexBinding(acc *gltf.Accessor, bv *gltf.BufferView, bufIndex, slot int, vb renderer.VertexBuffer) BufferBinding {
	buf := im.result.source.Buffers[bufIndex]
	return BufferBinding{
		URI:          buf.URI,
		Data:         &buf.Data,
		Buffer:       bufIndex,
		TotalSize:    int(buf.ByteLength),
		Offset:       computeBindingOffset(acc, bv),
		Size:         computeBindingSize(acc, bv),
		Slot:         slot,
		VertexBuffer: vb,
	}
}

// indexBinding describes the bytes of an index accessor.
func (im *assetImport) indexBinding(acc *gltf.Accessor, bv *gltf.BufferView, bufIndex int, ib renderer.IndexBuffer, widen bool) BufferBinding {
	buf := im.result.source.Buffers[bufIndex]
	return BufferBinding{
		URI:                  buf.URI,
		Data:                 &buf.Data,
		Buffer:               bufIndex,
		TotalSize:            int(buf.ByteLength),
		Offset:               computeBindingOffset(acc, bv),
		Size:                 computeBindingSize(acc, bv),
		IndexBuffer:          ib,
		ConvertBytesToShorts: widen,
	}
}

// trivialIndexBinding asks the consumer to generate 0..vertexCount-1 as 32-bit indices.
func trivialIndexBinding(ib renderer.IndexBuffer, vertexCount int) BufferBinding {
	return BufferBinding{
		Buffer:                 -1,
		Size:                   vertexCount * 4,
		IndexBuffer:            ib,
		GenerateTrivialIndices: true,
	}
}

// addTextureBinding queues the image of a glTF texture for attachment to a sampler parameter.
// Textures without an image are skipped with a warning.
func (im *assetImport) addTextureBinding(inst material.Instance, parameter string, texIndex int, srgb bool) {
	doc := im.result.source
	if texIndex < 0 || texIndex >= len(doc.Textures) {
		im.errs.malformed("material references texture %d of %d", texIndex, len(doc.Textures))
		return
	}
	tex := doc.Textures[texIndex]
	if tex.Source == nil || int(*tex.Source) < 0 || int(*tex.Source) >= len(doc.Images) {
		im.logger.Warn("texture is missing image", zap.Int("texture", texIndex), zap.String("name", tex.Name))
		return
	}
	img := doc.Images[int(*tex.Source)]

	var sampler *gltf.Sampler
	if tex.Sampler != nil {
		si := int(*tex.Sampler)
		if si < 0 || si >= len(doc.Samplers) {
			im.errs.malformed("texture %d references sampler %d of %d", texIndex, si, len(doc.Samplers))
			return
		}
		sampler = doc.Samplers[si]
	}

	binding := TextureBinding{
		URI:              img.URI,
		MimeType:         img.MimeType,
		MaterialInstance: inst,
		Parameter:        parameter,
		Sampler:          gltfSamplerToStagingData(sampler),
		SRGB:             srgb,
	}
	if img.BufferView != nil {
		bvIndex := int(*img.BufferView)
		if bvIndex < 0 || bvIndex >= len(doc.BufferViews) {
			im.errs.malformed("image %d references buffer view %d of %d", int(*tex.Source), bvIndex, len(doc.BufferViews))
			return
		}
		bv := doc.BufferViews[bvIndex]
		bufIndex := int(bv.Buffer)
		if bufIndex < 0 || bufIndex >= len(doc.Buffers) {
			im.errs.malformed("buffer view %d references buffer %d of %d", bvIndex, bufIndex, len(doc.Buffers))
			return
		}
		buf := doc.Buffers[bufIndex]
		binding.Data = &buf.Data
		binding.Buffer = bufIndex
		binding.BufferURI = buf.URI
		binding.Offset = int(bv.ByteOffset)
		binding.Size = int(bv.ByteLength)
		binding.TotalSize = int(buf.ByteLength)
	} else if img.URI == "" {
		im.logger.Warn("texture image has neither a URI nor a buffer view", zap.Int("texture", texIndex))
		return
	}
	im.result.textureBindings = append(im.result.textureBindings, binding)
}
