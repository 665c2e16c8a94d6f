package renderer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/renderer/material"
	"github.com/winnerineast/filament/engine/scene"
)

// RenderPrimitive is one draw of a renderable: geometry plus the material instance it is shaded with.
// A primitive whose geometry was never set has nil buffers and is not drawn.
type RenderPrimitive struct {
	Topology wgpu.PrimitiveTopology
	Vertices VertexBuffer
	Indices  IndexBuffer
	Material material.Instance
}

// HasGeometry reports whether both buffers were provided.
func (p RenderPrimitive) HasGeometry() bool {
	return p.Vertices != nil && p.Indices != nil
}

// Renderable is the render component attached to an entity.
type Renderable struct {
	Primitives     []RenderPrimitive
	BoundingBox    common.Aabb
	Culling        bool
	CastShadows    bool
	ReceiveShadows bool
	// BoneCount is the number of skinning matrices reserved, zero for rigid geometry.
	BoneCount    int
	MorphWeights []float32
}

// RenderableBuilder accumulates the description of a renderable before it is attached
// to an entity with Build. Methods return the builder so calls can be chained.
type RenderableBuilder struct {
	r   Renderable
	err error
}

// NewRenderableBuilder starts a renderable with count primitive slots. Culling and shadows default to enabled.
//
// Parameters:
//   - count: the number of primitives
//
// Returns:
//   - *RenderableBuilder: the builder
func NewRenderableBuilder(count int) *RenderableBuilder {
	return &RenderableBuilder{
		r: Renderable{
			Primitives:     make([]RenderPrimitive, count),
			BoundingBox:    common.EmptyAabb(),
			Culling:        true,
			CastShadows:    true,
			ReceiveShadows: true,
		},
	}
}

func (b *RenderableBuilder) slot(index int) *RenderPrimitive {
	if index < 0 || index >= len(b.r.Primitives) {
		if b.err == nil {
			b.err = fmt.Errorf("primitive index %d out of range [0, %d)", index, len(b.r.Primitives))
		}
		return nil
	}
	return &b.r.Primitives[index]
}

// Geometry sets the buffers and topology of primitive index.
func (b *RenderableBuilder) Geometry(index int, topology wgpu.PrimitiveTopology, vertices VertexBuffer, indices IndexBuffer) *RenderableBuilder {
	if p := b.slot(index); p != nil {
		p.Topology = topology
		p.Vertices = vertices
		p.Indices = indices
	}
	return b
}

// Material sets the material instance of primitive index.
func (b *RenderableBuilder) Material(index int, inst material.Instance) *RenderableBuilder {
	if p := b.slot(index); p != nil {
		p.Material = inst
	}
	return b
}

// BoundingBox sets the object-space bounds of the whole renderable.
func (b *RenderableBuilder) BoundingBox(box common.Aabb) *RenderableBuilder {
	b.r.BoundingBox = box
	return b
}

// Culling enables or disables frustum culling.
func (b *RenderableBuilder) Culling(enabled bool) *RenderableBuilder {
	b.r.Culling = enabled
	return b
}

// CastShadows sets whether the renderable casts shadows.
func (b *RenderableBuilder) CastShadows(enabled bool) *RenderableBuilder {
	b.r.CastShadows = enabled
	return b
}

// ReceiveShadows sets whether the renderable receives shadows.
func (b *RenderableBuilder) ReceiveShadows(enabled bool) *RenderableBuilder {
	b.r.ReceiveShadows = enabled
	return b
}

// Skinning reserves boneCount skinning matrices.
func (b *RenderableBuilder) Skinning(boneCount int) *RenderableBuilder {
	b.r.BoneCount = boneCount
	return b
}

// MorphWeights sets the default morph target weights.
func (b *RenderableBuilder) MorphWeights(weights []float32) *RenderableBuilder {
	b.r.MorphWeights = slices.Clone(weights)
	return b
}

// Build attaches the renderable to e.
//
// Parameters:
//   - rm: the manager that stores the component
//   - e: the receiving entity
//
// Returns:
//   - error: the first error recorded while building, or the manager's error
func (b *RenderableBuilder) Build(rm RenderableManager, e scene.Entity) error {
	if b.err != nil {
		return b.err
	}
	return rm.Create(e, b.r)
}

type renderableManager struct {
	mu          sync.RWMutex
	renderables map[scene.Entity]*Renderable
}

// RenderableManager stores the render component of each entity.
// Thread-safe for concurrent access.
type RenderableManager interface {
	// Create attaches r to e.
	//
	// Returns:
	//   - error: an error if e is Null or already has a component
	Create(e scene.Entity, r Renderable) error

	// Get returns the component of e.
	//
	// Returns:
	//   - *Renderable: the stored component, shared with the manager
	//   - bool: false if e has no component
	Get(e scene.Entity) (*Renderable, bool)

	// Has reports whether e has a component.
	Has(e scene.Entity) bool

	// Destroy removes the component of e, if any.
	Destroy(e scene.Entity)

	// Count returns the number of components.
	Count() int
}

var _ RenderableManager = &renderableManager{}

// NewRenderableManager creates an empty RenderableManager.
//
// Returns:
//   - RenderableManager: the new manager
func NewRenderableManager() RenderableManager {
	return &renderableManager{renderables: make(map[scene.Entity]*Renderable)}
}

func (rm *renderableManager) Create(e scene.Entity, r Renderable) error {
	if e.IsNull() {
		return fmt.Errorf("renderable: cannot attach a component to the null entity")
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.renderables[e]; ok {
		return fmt.Errorf("renderable: entity %d already has a component", e)
	}
	rm.renderables[e] = &r
	return nil
}

func (rm *renderableManager) Get(e scene.Entity) (*Renderable, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	r, ok := rm.renderables[e]
	return r, ok
}

func (rm *renderableManager) Has(e scene.Entity) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, ok := rm.renderables[e]
	return ok
}

func (rm *renderableManager) Destroy(e scene.Entity) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.renderables, e)
}

func (rm *renderableManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.renderables)
}
