package loader

import (
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/renderer"
)

// primitive is the built geometry of one glTF mesh primitive.
// The zero value is an empty slot that has not been built yet.
type primitive struct {
	vertices renderer.VertexBuffer
	indices  renderer.IndexBuffer
	aabb     common.Aabb
}

func (p *primitive) built() bool {
	return p.vertices != nil
}

// meshCache maps a mesh index to its primitive slots so that nodes sharing a mesh share the
// same vertex and index buffers. It lives for the duration of one import.
type meshCache struct {
	meshes map[int][]primitive
}

func newMeshCache() meshCache {
	return meshCache{meshes: make(map[int][]primitive)}
}

// slots returns the primitive slots of a mesh, allocating count empty slots on first use.
// The returned slice aliases the cache, so slots filled through it stay filled.
func (c *meshCache) slots(mesh, count int) []primitive {
	if s, ok := c.meshes[mesh]; ok {
		return s
	}
	s := make([]primitive, count)
	c.meshes[mesh] = s
	return s
}

func (c *meshCache) len() int {
	return len(c.meshes)
}
