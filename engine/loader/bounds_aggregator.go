package loader

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/winnerineast/filament/common"
)

// boundsAggregator accumulates the object-space box of the primitives of one renderable.
type boundsAggregator struct {
	object common.Aabb
}

func newBoundsAggregator() boundsAggregator {
	return boundsAggregator{object: common.EmptyAabb()}
}

func (b *boundsAggregator) add(box common.Aabb) {
	b.object = b.object.Union(box)
}

// world returns the object box carried through the node's world transform.
// An empty object box stays empty.
func (b *boundsAggregator) world(m mgl32.Mat4) common.Aabb {
	return b.object.Transform(m)
}
