package loader

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/renderer"
	"github.com/winnerineast/filament/engine/renderer/material"
	"github.com/winnerineast/filament/engine/scene"
)

// createRenderable builds the renderable component of a node's mesh. Primitives of a mesh that was
// already built by another node reuse the cached buffers.
func (im *assetImport) createRenderable(nodeIndex int, node *gltf.Node, e scene.Entity) {
	doc := im.result.source
	meshIndex := int(*node.Mesh)
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		im.errs.malformed("node %d references mesh %d of %d", nodeIndex, meshIndex, len(doc.Meshes))
		return
	}
	mesh := doc.Meshes[meshIndex]
	world := im.transformManager.WorldTransform(e)

	count := len(mesh.Primitives)
	builder := renderer.NewRenderableBuilder(count)
	slots := im.meshCache.slots(meshIndex, count)
	bounds := newBoundsAggregator()

	for i, prim := range mesh.Primitives {
		topology, supported := gltfTopologyMap[prim.Mode]
		if !supported {
			im.errs.unsupported(FeatureTopology, "mesh %d primitive %d uses %s", meshIndex, i, primitiveModeName(prim.Mode))
		}

		vertexColor := hasVertexColors(prim.Attributes)
		var matIndex *int
		if prim.Material != nil {
			m := int(*prim.Material)
			matIndex = &m
		}
		inst, uvmap := im.createMaterialInstance(matIndex, vertexColor)
		builder.Material(i, inst)

		if !supported {
			continue
		}
		slot := &slots[i]
		if !slot.built() && !im.createPrimitive(meshIndex, i, prim, slot, uvmap) {
			continue
		}
		bounds.add(slot.aabb)
		builder.Geometry(i, topology, slot.vertices, slot.indices)
	}

	im.result.boundingBox = im.result.boundingBox.Union(bounds.world(world))

	if node.Skin != nil {
		skinIndex := int(*node.Skin)
		if skinIndex < 0 || skinIndex >= len(doc.Skins) {
			im.errs.malformed("node %d references skin %d of %d", nodeIndex, skinIndex, len(doc.Skins))
		} else {
			builder.Skinning(len(doc.Skins[skinIndex].Joints))
		}
	}

	weights := mesh.Weights
	if len(node.Weights) > 0 {
		weights = node.Weights
	}
	if len(weights) > 0 {
		w := make([]float32, len(weights))
		for i, v := range weights {
			w[i] = float32(v)
		}
		builder.MorphWeights(w)
	}

	err := builder.
		BoundingBox(bounds.object).
		Culling(false).
		CastShadows(im.castShadows).
		ReceiveShadows(im.receiveShadows).
		Build(im.renderableManager, e)
	if err != nil {
		im.errs.add(&MalformedDocumentError{What: fmt.Sprintf("renderable of node %d: %v", nodeIndex, err)})
	}
}

// vertexSource is a resolved attribute accessor waiting for its destination vertex buffer.
type vertexSource struct {
	acc    *gltf.Accessor
	bv     *gltf.BufferView
	buffer int
	slot   int
}

// createPrimitive builds the vertex and index buffers of one primitive into out and queues the
// buffer bindings that will fill them. Nothing is queued when the primitive fails.
func (im *assetImport) createPrimitive(meshIndex, primIndex int, prim *gltf.Primitive, out *primitive, uvmap material.UvMap) bool {
	names := slices.Sorted(maps.Keys(prim.Attributes))
	if len(names) == 0 {
		im.errs.malformed("mesh %d primitive %d has no attributes", meshIndex, primIndex)
		return false
	}

	first, ok := im.accessor(int(prim.Attributes[names[0]]))
	if !ok {
		return false
	}
	vertexCount := int(first.Count)

	var pending []BufferBinding

	var indices renderer.IndexBuffer
	if prim.Indices != nil {
		accIndex := int(*prim.Indices)
		acc, ok := im.accessor(accIndex)
		if !ok {
			return false
		}
		f, ok := gltfIndexFormatMap[acc.ComponentType]
		if !ok || acc.Type != gltf.AccessorScalar {
			im.errs.unsupported(FeatureIndexType, "mesh %d primitive %d index accessor %d", meshIndex, primIndex, accIndex)
			return false
		}
		bv, buffer, ok := im.accessorSource(accIndex, acc)
		if !ok {
			return false
		}
		ib, err := renderer.NewIndexBuffer(renderer.WithIndexCount(int(acc.Count)), renderer.WithIndexFormat(f.format))
		if err != nil {
			im.errs.add(fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIndex, err))
			return false
		}
		indices = ib
		pending = append(pending, im.indexBinding(acc, bv, buffer, ib, f.widen))
	} else {
		ib, err := renderer.NewIndexBuffer(renderer.WithIndexCount(vertexCount), renderer.WithIndexFormat(wgpu.IndexFormatUint32))
		if err != nil {
			im.errs.add(fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIndex, err))
			return false
		}
		indices = ib
		pending = append(pending, trivialIndexBinding(ib, vertexCount))
	}

	options := []renderer.VertexBufferBuilderOption{
		renderer.WithBufferCount(len(names)),
		renderer.WithVertexCount(vertexCount),
	}
	var sources []vertexSource
	aabb := common.EmptyAabb()

	for slot, name := range names {
		kind, set := parseAttribute(name)
		if set > 0 && kind != attributeTexCoord {
			// renderables carry one set of colors, joints and weights
			continue
		}
		var semantic renderer.VertexAttribute
		switch kind {
		case attributeNormal:
			// the normal slot carries the tangent frame, filled by a later tangent pass
			options = append(options,
				renderer.WithAttribute(renderer.AttributeTangents, slot, orientationFormat, 0, 8),
				renderer.WithNormalized(renderer.AttributeTangents),
			)
			continue
		case attributeTangent:
			continue
		case attributeUnknown:
			im.errs.unsupported(FeatureAttribute, "mesh %d primitive %d attribute %s", meshIndex, primIndex, name)
			return false
		case attributePosition:
			semantic = renderer.AttributePosition
		case attributeColor:
			semantic = renderer.AttributeColor
		case attributeJoints:
			semantic = renderer.AttributeBoneIndices
		case attributeWeights:
			semantic = renderer.AttributeBoneWeights
		case attributeTexCoord:
			if set >= material.MaxTexCoords {
				continue
			}
			switch uvmap[set] {
			case material.UV0:
				semantic = renderer.AttributeUV0
			case material.UV1:
				semantic = renderer.AttributeUV1
			default:
				continue
			}
		}

		accIndex := int(prim.Attributes[name])
		acc, ok := im.accessor(accIndex)
		if !ok {
			return false
		}
		if int(acc.Count) != vertexCount {
			im.errs.malformed("mesh %d primitive %d attribute %s has %d elements, expected %d", meshIndex, primIndex, name, int(acc.Count), vertexCount)
			return false
		}

		if kind == attributePosition {
			minV, okMin := common.Vec3FromSlice(acc.Min)
			maxV, okMax := common.Vec3FromSlice(acc.Max)
			if !okMin || !okMax {
				im.errs.malformed("mesh %d primitive %d position accessor %d has no bounds", meshIndex, primIndex, accIndex)
				return false
			}
			aabb = aabb.Union(common.Aabb{Min: minV, Max: maxV})
		}

		format, ok := gltfVertexFormatMap[vertexFormatKey{typ: acc.Type, component: acc.ComponentType, normalized: acc.Normalized}]
		if !ok {
			im.errs.unsupported(FeatureElementType, "mesh %d primitive %d attribute %s", meshIndex, primIndex, name)
			return false
		}

		bv, buffer, ok := im.accessorSource(accIndex, acc)
		if !ok {
			return false
		}

		options = append(options, renderer.WithAttribute(semantic, slot, format, 0, uint32(accessorStride(acc, bv))))
		if acc.Normalized {
			options = append(options, renderer.WithNormalized(semantic))
		}
		sources = append(sources, vertexSource{acc: acc, bv: bv, buffer: buffer, slot: slot})
	}

	vb, err := renderer.NewVertexBuffer(options...)
	if err != nil {
		im.errs.add(fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIndex, err))
		return false
	}
	for _, s := range sources {
		pending = append(pending, im.vertexBinding(s.acc, s.bv, s.buffer, s.slot, vb))
	}

	out.vertices = vb
	out.indices = indices
	out.aabb = aabb
	im.result.bufferBindings = append(im.result.bufferBindings, pending...)
	return true
}

// accessor returns the accessor at index, recording a malformed document when it is out of range.
func (im *assetImport) accessor(index int) (*gltf.Accessor, bool) {
	doc := im.result.source
	if index < 0 || index >= len(doc.Accessors) {
		im.errs.malformed("accessor %d out of range, document has %d accessors", index, len(doc.Accessors))
		return nil, false
	}
	return doc.Accessors[index], true
}
