package scene

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityManagerLifecycle(t *testing.T) {
	em := NewEntityManager()

	a := em.Create()
	b := em.Create()
	assert.False(t, a.IsNull())
	assert.NotEqual(t, a, b)
	assert.True(t, em.IsAlive(a))
	assert.Equal(t, 2, em.Count())

	em.Destroy(a)
	em.Destroy(a)
	em.Destroy(Null)
	assert.False(t, em.IsAlive(a))
	assert.Equal(t, 1, em.Count())

	c := em.Create()
	assert.NotEqual(t, a, c, "handles are not reused by default")
}

func TestEntityManagerHandleReuse(t *testing.T) {
	em := NewEntityManager(WithHandleReuse(true))
	a := em.Create()
	em.Destroy(a)
	assert.Equal(t, a, em.Create())
}

func TestEntityManagerConcurrentCreate(t *testing.T) {
	em := NewEntityManager()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			em.CreateN(100)
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, em.Count())
}

func TestTransformHierarchy(t *testing.T) {
	em := NewEntityManager()
	tm := NewTransformManager(WithCapacity(4))
	root, child, grandchild := em.Create(), em.Create(), em.Create()

	require.NoError(t, tm.Create(root, Null, mgl32.Ident4()))
	require.NoError(t, tm.Create(child, root, mgl32.Translate3D(1, 0, 0)))
	require.NoError(t, tm.Create(grandchild, child, mgl32.Scale3D(2, 2, 2)))

	assert.Equal(t, root, tm.Parent(child))
	assert.Equal(t, []Entity{child}, tm.Children(root))

	world := tm.WorldTransform(grandchild)
	p := world.Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, p)

	local, ok := tm.LocalTransform(child)
	require.True(t, ok)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), local)
}

func TestTransformCreateErrors(t *testing.T) {
	tm := NewTransformManager()

	assert.Error(t, tm.Create(Null, Null, mgl32.Ident4()))
	assert.Error(t, tm.Create(5, 9, mgl32.Ident4()), "unknown parent")
	require.NoError(t, tm.Create(5, Null, mgl32.Ident4()))
	assert.Error(t, tm.Create(5, Null, mgl32.Ident4()), "duplicate component")
}

func TestTransformDestroyDetaches(t *testing.T) {
	tm := NewTransformManager()
	require.NoError(t, tm.Create(1, Null, mgl32.Ident4()))
	require.NoError(t, tm.Create(2, 1, mgl32.Translate3D(0, 1, 0)))
	require.NoError(t, tm.Create(3, 2, mgl32.Ident4()))

	tm.Destroy(2)
	assert.False(t, tm.Has(2))
	assert.Empty(t, tm.Children(1))
	assert.Equal(t, Null, tm.Parent(3))
	assert.Equal(t, mgl32.Ident4(), tm.WorldTransform(3))
	assert.Equal(t, 2, tm.Count())

	assert.True(t, tm.SetLocalTransform(3, mgl32.Translate3D(0, 0, 4)))
	assert.False(t, tm.SetLocalTransform(2, mgl32.Ident4()))
	assert.Equal(t, mgl32.Translate3D(0, 0, 4), tm.WorldTransform(3))
}
