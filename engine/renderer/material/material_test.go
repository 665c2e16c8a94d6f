package material

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstrainKeyAssignsInputsInOrder(t *testing.T) {
	key := Key{
		HasBaseColorTexture:         true,
		BaseColorUV:                 1,
		HasMetallicRoughnessTexture: true,
		MetallicRoughnessUV:         0,
		HasNormalTexture:            true,
		NormalUV:                    1,
	}
	var uvmap UvMap

	assert.True(t, constrainKey(&key, &uvmap))
	assert.Equal(t, UV0, uvmap[1])
	assert.Equal(t, UV1, uvmap[0])
	assert.Equal(t, UvUnused, uvmap[2])
	assert.Equal(t, uint8(UV0), key.BaseColorUV)
	assert.Equal(t, uint8(UV1), key.MetallicRoughnessUV)
	assert.Equal(t, uint8(UV0), key.NormalUV)
	assert.True(t, key.HasNormalTexture)
}

func TestConstrainKeyDropsThirdSet(t *testing.T) {
	key := Key{
		HasBaseColorTexture: true,
		BaseColorUV:         0,
		HasNormalTexture:    true,
		NormalUV:            1,
		HasEmissiveTexture:  true,
		EmissiveUV:          2,
		HasOcclusionTexture: true,
		AoUV:                0,
	}
	var uvmap UvMap

	assert.False(t, constrainKey(&key, &uvmap))
	assert.False(t, key.HasEmissiveTexture)
	assert.True(t, key.HasOcclusionTexture, "occlusion shares set 0 with base color")
	assert.Equal(t, UvMap{UV0, UV1}, uvmap)
}

func TestConstrainKeyNoTextures(t *testing.T) {
	key := Key{AlphaMode: AlphaMasked, AlphaMaskThreshold: 0.3}
	var uvmap UvMap
	assert.True(t, constrainKey(&key, &uvmap))
	assert.Equal(t, UvMap{}, uvmap)
	assert.Equal(t, "lit_masked", key.Name())
}

func TestProviderCachesByConstrainedKey(t *testing.T) {
	p := NewProvider(nil)

	k1 := Key{HasBaseColorTexture: true, BaseColorUV: 0}
	k2 := Key{HasBaseColorTexture: true, BaseColorUV: 3}
	var uv1, uv2 UvMap

	m1 := p.GetOrCreateMaterial(&k1, &uv1)
	m2 := p.GetOrCreateMaterial(&k2, &uv2)
	require.NotNil(t, m1)
	assert.Same(t, m1, m2, "both keys constrain to base color on UV0")
	assert.Equal(t, UV0, uv2[3])
	assert.Equal(t, UvUnused, uv2[0], "routing follows the caller's source sets")
	assert.Equal(t, uv1, m1.UvMap())
	assert.Equal(t, 1, p.MaterialCount())

	k3 := Key{Unlit: true}
	var uv3 UvMap
	m3 := p.GetOrCreateMaterial(&k3, &uv3)
	assert.NotSame(t, m1, m3)
	assert.Equal(t, []Material{m1, m3}, p.Materials())
}

func TestConstrainKeyClearsUntexturedSets(t *testing.T) {
	k1 := Key{HasBaseColorTexture: true, BaseColorUV: 0}
	k2 := Key{HasBaseColorTexture: true, BaseColorUV: 1}
	var uv1, uv2 UvMap

	require.True(t, constrainKey(&k1, &uv1))
	require.True(t, constrainKey(&k2, &uv2))
	assert.Equal(t, k1, k2)
	assert.Equal(t, uint8(0), k2.NormalUV)
	assert.Equal(t, uint8(0), k2.EmissiveUV)

	p := NewProvider(nil)
	a, b := Key{HasBaseColorTexture: true, BaseColorUV: 0}, Key{HasBaseColorTexture: true, BaseColorUV: 1}
	var uva, uvb UvMap
	assert.Same(t, p.GetOrCreateMaterial(&a, &uva), p.GetOrCreateMaterial(&b, &uvb))
	assert.Equal(t, 1, p.MaterialCount())
	assert.Equal(t, UV0, uvb[1])
}

func TestProviderDestroyMaterials(t *testing.T) {
	p := NewProvider(nil)
	k := Key{}
	var uv UvMap
	m := p.GetOrCreateMaterial(&k, &uv)
	m.CreateInstance()

	p.DestroyMaterials()
	assert.Equal(t, 0, p.MaterialCount())
	assert.Equal(t, 0, m.InstanceCount())

	k = Key{}
	assert.NotSame(t, m, p.GetOrCreateMaterial(&k, &uv))
}

func TestProviderWithMaterial(t *testing.T) {
	custom := NewMaterial(WithName("custom"))
	p := NewProvider(nil, WithMaterial(Key{DoubleSided: true}, custom))

	k := Key{DoubleSided: true}
	var uv UvMap
	assert.Same(t, custom, p.GetOrCreateMaterial(&k, &uv))
	assert.Equal(t, "custom", custom.Name())
}

func TestInstanceParameters(t *testing.T) {
	m := NewMaterial(WithKey(Key{Unlit: true}))
	assert.Equal(t, "unlit_opaque", m.Name())

	inst := m.CreateInstance()
	assert.Same(t, m, inst.Material())
	inst.SetParameter("roughnessFactor", float32(0.25))
	inst.SetParameter("baseColorFactor", mgl32.Vec4{1, 0, 0, 1})

	v, ok := inst.Parameter("roughnessFactor")
	require.True(t, ok)
	assert.Equal(t, float32(0.25), v)
	_, ok = inst.Parameter("metallicFactor")
	assert.False(t, ok)
	assert.Equal(t, []string{"baseColorFactor", "roughnessFactor"}, inst.ParameterNames())

	inst.SetTexture("baseColorMap", Texture{MimeType: "image/png", Data: []byte{1}, SRGB: true})
	tex, ok := inst.Texture("baseColorMap")
	require.True(t, ok)
	assert.True(t, tex.SRGB)

	assert.Equal(t, 1, m.InstanceCount())
	m.DestroyInstance(inst)
	assert.Equal(t, 0, m.InstanceCount())
}

func TestDestroyInstanceIgnoresForeignInstance(t *testing.T) {
	a := NewMaterial()
	b := NewMaterial()
	inst := a.CreateInstance()
	b.DestroyInstance(inst)
	assert.Equal(t, 1, a.InstanceCount())
}

func TestInstanceConcurrentWrites(t *testing.T) {
	inst := NewMaterial().CreateInstance()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst.SetTexture("map", Texture{Data: []byte{byte(i)}})
			inst.Texture("map")
		}(i)
	}
	wg.Wait()
	_, ok := inst.Texture("map")
	assert.True(t, ok)
}
