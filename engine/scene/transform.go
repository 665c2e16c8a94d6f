package scene

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type transformNode struct {
	parent   Entity
	children []Entity
	local    mgl32.Mat4
}

type transformManager struct {
	mu    sync.RWMutex
	nodes map[Entity]*transformNode
}

// TransformManager holds the local transform of each entity and its place in the parent/child graph.
// World transforms are derived on demand as parentWorld * local.
// Thread-safe for concurrent access.
type TransformManager interface {
	// Create attaches a transform component to e under parent. Pass Null for a root transform.
	//
	// Parameters:
	//   - e: the entity receiving the component
	//   - parent: the parent entity, which must already have a component, or Null
	//   - local: the transform relative to the parent
	//
	// Returns:
	//   - error: an error if e already has a component, e is Null or the parent is unknown
	Create(e, parent Entity, local mgl32.Mat4) error

	// Has reports whether e has a transform component.
	Has(e Entity) bool

	// LocalTransform returns the transform of e relative to its parent.
	//
	// Returns:
	//   - mgl32.Mat4: the local transform
	//   - bool: false if e has no component
	LocalTransform(e Entity) (mgl32.Mat4, bool)

	// SetLocalTransform replaces the local transform of e.
	//
	// Returns:
	//   - bool: false if e has no component
	SetLocalTransform(e Entity, local mgl32.Mat4) bool

	// WorldTransform returns the product of every local transform from the root down to e.
	//
	// Returns:
	//   - mgl32.Mat4: the world transform, identity if e has no component
	WorldTransform(e Entity) mgl32.Mat4

	// Parent returns the parent of e, or Null.
	Parent(e Entity) Entity

	// Children returns a copy of the direct children of e in attachment order.
	Children(e Entity) []Entity

	// Destroy removes the component of e. Its children become roots.
	Destroy(e Entity)

	// Count returns the number of transform components.
	Count() int
}

var _ TransformManager = &transformManager{}

// NewTransformManager creates an empty TransformManager.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - TransformManager: the new manager
func NewTransformManager(options ...TransformManagerBuilderOption) TransformManager {
	tm := &transformManager{nodes: make(map[Entity]*transformNode)}
	for _, opt := range options {
		opt(tm)
	}
	return tm
}

func (tm *transformManager) Create(e, parent Entity, local mgl32.Mat4) error {
	if e.IsNull() {
		return fmt.Errorf("transform: cannot attach a component to the null entity")
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, ok := tm.nodes[e]; ok {
		return fmt.Errorf("transform: entity %d already has a component", e)
	}
	if !parent.IsNull() {
		p, ok := tm.nodes[parent]
		if !ok {
			return fmt.Errorf("transform: parent entity %d has no component", parent)
		}
		p.children = append(p.children, e)
	}
	tm.nodes[e] = &transformNode{parent: parent, local: local}
	return nil
}

func (tm *transformManager) Has(e Entity) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	_, ok := tm.nodes[e]
	return ok
}

func (tm *transformManager) LocalTransform(e Entity) (mgl32.Mat4, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	n, ok := tm.nodes[e]
	if !ok {
		return mgl32.Ident4(), false
	}
	return n.local, true
}

func (tm *transformManager) SetLocalTransform(e Entity, local mgl32.Mat4) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	n, ok := tm.nodes[e]
	if !ok {
		return false
	}
	n.local = local
	return true
}

func (tm *transformManager) WorldTransform(e Entity) mgl32.Mat4 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	world := mgl32.Ident4()
	for cur := e; !cur.IsNull(); {
		n, ok := tm.nodes[cur]
		if !ok {
			break
		}
		world = n.local.Mul4(world)
		cur = n.parent
	}
	return world
}

func (tm *transformManager) Parent(e Entity) Entity {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if n, ok := tm.nodes[e]; ok {
		return n.parent
	}
	return Null
}

func (tm *transformManager) Children(e Entity) []Entity {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if n, ok := tm.nodes[e]; ok {
		return slices.Clone(n.children)
	}
	return nil
}

func (tm *transformManager) Destroy(e Entity) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	n, ok := tm.nodes[e]
	if !ok {
		return
	}
	if p, ok := tm.nodes[n.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c Entity) bool { return c == e })
	}
	for _, c := range n.children {
		if cn, ok := tm.nodes[c]; ok {
			cn.parent = Null
		}
	}
	delete(tm.nodes, e)
}

func (tm *transformManager) Count() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.nodes)
}
