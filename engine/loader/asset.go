package loader

import (
	"slices"
	"sync"

	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/renderer"
	"github.com/winnerineast/filament/engine/renderer/material"
	"github.com/winnerineast/filament/engine/scene"
)

// gltfAsset is the implementation of the Asset interface.
type gltfAsset struct {
	source *gltf.Document

	root        scene.Entity
	entities    []scene.Entity
	nodeMap     map[int]scene.Entity
	names       map[scene.Entity]string
	boundingBox common.Aabb

	instances       []material.Instance
	bufferBindings  []BufferBinding
	textureBindings []TextureBinding
	skins           []Skin

	entityManager     scene.EntityManager
	transformManager  scene.TransformManager
	renderableManager renderer.RenderableManager

	releaseOnce sync.Once
}

// Asset is the result of importing one glTF document: an entity hierarchy under a synthetic root,
// the material instances its renderables use and the deferred bindings that fill their buffers
// and textures. The asset references, but does not own, its source document.
type Asset interface {
	// Root returns the synthetic root entity every scene root node is parented to.
	//
	// Returns:
	//   - scene.Entity: the root entity
	Root() scene.Entity

	// Entities returns one entity per visited node in depth-first pre-order. The root is not included.
	//
	// Returns:
	//   - []scene.Entity: a copy of the entity list
	Entities() []scene.Entity

	// NodeEntity returns the entity created for a node.
	//
	// Parameters:
	//   - node: the node index in the source document
	//
	// Returns:
	//   - scene.Entity: the entity
	//   - bool: false if the node was not part of the active scene
	NodeEntity(node int) (scene.Entity, bool)

	// EntityName returns the source node name of an entity, or "" if the node has none.
	EntityName(e scene.Entity) string

	// BoundingBox returns the world-space bounds of all imported geometry.
	//
	// Returns:
	//   - common.Aabb: the bounds, empty when the asset has no geometry
	BoundingBox() common.Aabb

	// MaterialInstances returns every material instance created for the asset, in creation order.
	MaterialInstances() []material.Instance

	// BufferBindings returns the deferred buffer copies in emission order.
	BufferBindings() []BufferBinding

	// TextureBindings returns the deferred texture attachments in emission order.
	TextureBindings() []TextureBinding

	// Skins returns the resolved skins in source order.
	Skins() []Skin

	// Source returns the document the asset was built from.
	Source() *gltf.Document

	// Release destroys the entities, their components and the material instances of the asset.
	// Calling Release more than once has no further effect.
	Release()
}

var _ Asset = &gltfAsset{}

func newGLTFAsset(doc *gltf.Document, em scene.EntityManager, tm scene.TransformManager, rm renderer.RenderableManager) *gltfAsset {
	return &gltfAsset{
		source:            doc,
		nodeMap:           make(map[int]scene.Entity),
		names:             make(map[scene.Entity]string),
		boundingBox:       common.EmptyAabb(),
		entityManager:     em,
		transformManager:  tm,
		renderableManager: rm,
	}
}

func (a *gltfAsset) Root() scene.Entity {
	return a.root
}

func (a *gltfAsset) Entities() []scene.Entity {
	return slices.Clone(a.entities)
}

func (a *gltfAsset) NodeEntity(node int) (scene.Entity, bool) {
	e, ok := a.nodeMap[node]
	return e, ok
}

func (a *gltfAsset) EntityName(e scene.Entity) string {
	return a.names[e]
}

func (a *gltfAsset) BoundingBox() common.Aabb {
	return a.boundingBox
}

func (a *gltfAsset) MaterialInstances() []material.Instance {
	return slices.Clone(a.instances)
}

func (a *gltfAsset) BufferBindings() []BufferBinding {
	return slices.Clone(a.bufferBindings)
}

func (a *gltfAsset) TextureBindings() []TextureBinding {
	return slices.Clone(a.textureBindings)
}

func (a *gltfAsset) Skins() []Skin {
	out := make([]Skin, len(a.skins))
	for i, s := range a.skins {
		out[i] = Skin{Name: s.Name, Joints: slices.Clone(s.Joints), Targets: slices.Clone(s.Targets)}
	}
	return out
}

func (a *gltfAsset) Source() *gltf.Document {
	return a.source
}

func (a *gltfAsset) Release() {
	a.releaseOnce.Do(a.release)
}

// release tears the asset down children first so no transform is left pointing at a destroyed parent.
func (a *gltfAsset) release() {
	all := append([]scene.Entity{a.root}, a.entities...)
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if e.IsNull() {
			continue
		}
		a.renderableManager.Destroy(e)
		a.transformManager.Destroy(e)
		a.entityManager.Destroy(e)
	}
	for _, inst := range a.instances {
		inst.Material().DestroyInstance(inst)
	}
	a.entities = nil
	a.nodeMap = make(map[int]scene.Entity)
	a.names = make(map[scene.Entity]string)
	a.instances = nil
	a.bufferBindings = nil
	a.textureBindings = nil
	a.skins = nil
	a.root = scene.Null
}
