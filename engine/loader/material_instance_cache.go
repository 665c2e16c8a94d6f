package loader

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/engine/renderer/material"
)

const (
	extMaterialsUnlit      = "KHR_materials_unlit"
	extTextureTransform    = "KHR_texture_transform"
	extSpecularGlossiness  = "KHR_materials_pbrSpecularGlossiness"
	defaultMaterialKey     = -1
	defaultAlphaMaskCutoff = 0.5
)

type cachedInstance struct {
	instance material.Instance
	uvmap    material.UvMap
}

// materialInstanceCache maps (material index, vertex color) to the instance built for it.
// It lives for the duration of one import.
type materialInstanceCache struct {
	entries map[int]cachedInstance
}

func newMaterialInstanceCache() materialInstanceCache {
	return materialInstanceCache{entries: make(map[int]cachedInstance)}
}

// materialCacheKey packs a material index and the vertex color flag. Primitives without a
// material share one default instance whatever their vertex colors.
func materialCacheKey(matIndex *int, vertexColor bool) int {
	if matIndex == nil {
		return defaultMaterialKey
	}
	key := *matIndex << 1
	if vertexColor {
		key |= 1
	}
	return key
}

func (c *materialInstanceCache) get(key int) (cachedInstance, bool) {
	e, ok := c.entries[key]
	return e, ok
}

func (c *materialInstanceCache) put(key int, inst material.Instance, uvmap material.UvMap) {
	c.entries[key] = cachedInstance{instance: inst, uvmap: uvmap}
}

func (c *materialInstanceCache) len() int {
	return len(c.entries)
}

// createMaterialInstance returns the instance for a primitive's material, building it on first use,
// together with the routing of the primitive's texture coordinate sets.
func (im *assetImport) createMaterialInstance(matIndex *int, vertexColor bool) (material.Instance, material.UvMap) {
	if matIndex != nil && (*matIndex < 0 || *matIndex >= len(im.result.source.Materials)) {
		im.errs.malformed("primitive references material %d of %d", *matIndex, len(im.result.source.Materials))
		matIndex = nil
	}

	cacheKey := materialCacheKey(matIndex, vertexColor)
	if c, ok := im.instanceCache.get(cacheKey); ok {
		return c.instance, c.uvmap
	}

	if matIndex == nil {
		inst, uvmap := im.createDefaultMaterialInstance()
		im.instanceCache.put(cacheKey, inst, uvmap)
		return inst, uvmap
	}

	mat := im.result.source.Materials[*matIndex]
	if _, ok := mat.Extensions[extSpecularGlossiness]; ok {
		im.errs.unsupported(FeatureSpecularGlossiness, "material %d uses %s", *matIndex, extSpecularGlossiness)
	}

	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		pbr = &gltf.PBRMetallicRoughness{}
	}

	key := materialKeyOf(mat, pbr, vertexColor)

	var uvmap material.UvMap
	m := im.materials.GetOrCreateMaterial(&key, &uvmap)
	inst := m.CreateInstance()
	im.result.instances = append(im.result.instances, inst)

	e := mat.EmissiveFactor
	inst.SetParameter("emissiveFactor", mgl32.Vec3{float32(e[0]), float32(e[1]), float32(e[2])})
	normalScale, aoStrength := float32(1), float32(1)
	if mat.NormalTexture != nil {
		normalScale = float32(mat.NormalTexture.ScaleOrDefault())
	}
	if mat.OcclusionTexture != nil {
		aoStrength = float32(mat.OcclusionTexture.StrengthOrDefault())
	}
	inst.SetParameter("normalScale", normalScale)
	inst.SetParameter("aoStrength", aoStrength)

	c := pbr.BaseColorFactorOrDefault()
	inst.SetParameter("baseColorFactor", mgl32.Vec4{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])})
	inst.SetParameter("metallicFactor", float32(pbr.MetallicFactorOrDefault()))
	inst.SetParameter("roughnessFactor", float32(pbr.RoughnessFactorOrDefault()))

	// The provider may have dropped textures from the key, so bindings follow the constrained key.
	channels := []struct {
		has      bool
		texture  int
		param    string
		uvMatrix string
		srgb     bool
	}{
		{key.HasBaseColorTexture, textureIndexOf(pbr.BaseColorTexture), "baseColorMap", "baseColorUvMatrix", true},
		{key.HasMetallicRoughnessTexture, textureIndexOf(pbr.MetallicRoughnessTexture), "metallicRoughnessMap", "metallicRoughnessUvMatrix", false},
		{key.HasNormalTexture, normalTextureIndex(mat.NormalTexture), "normalMap", "normalUvMatrix", false},
		{key.HasOcclusionTexture, occlusionTextureIndex(mat.OcclusionTexture), "occlusionMap", "occlusionUvMatrix", false},
		{key.HasEmissiveTexture, textureIndexOf(mat.EmissiveTexture), "emissiveMap", "emissiveUvMatrix", true},
	}
	for _, ch := range channels {
		if !ch.has {
			continue
		}
		im.addTextureBinding(inst, ch.param, ch.texture, ch.srgb)
		if key.HasTextureTransforms {
			// TODO: compose the KHR_texture_transform offset, rotation and scale into this matrix.
			inst.SetParameter(ch.uvMatrix, mgl32.Ident3())
		}
	}

	im.instanceCache.put(cacheKey, inst, uvmap)
	return inst, uvmap
}

// createDefaultMaterialInstance builds the instance used by primitives without a material: unlit, opaque black.
func (im *assetImport) createDefaultMaterialInstance() (material.Instance, material.UvMap) {
	key := material.Key{
		Unlit:              true,
		AlphaMode:          material.AlphaOpaque,
		AlphaMaskThreshold: defaultAlphaMaskCutoff,
	}
	var uvmap material.UvMap
	m := im.materials.GetOrCreateMaterial(&key, &uvmap)
	inst := m.CreateInstance()
	inst.SetParameter("baseColorFactor", mgl32.Vec4{0, 0, 0, 1})
	im.result.instances = append(im.result.instances, inst)
	return inst, uvmap
}

func materialKeyOf(mat *gltf.Material, pbr *gltf.PBRMetallicRoughness, vertexColor bool) material.Key {
	_, unlit := mat.Extensions[extMaterialsUnlit]

	key := material.Key{
		DoubleSided:                 mat.DoubleSided,
		Unlit:                       unlit,
		HasVertexColors:             vertexColor,
		HasBaseColorTexture:         pbr.BaseColorTexture != nil,
		HasMetallicRoughnessTexture: pbr.MetallicRoughnessTexture != nil,
		HasNormalTexture:            mat.NormalTexture != nil && mat.NormalTexture.Index != nil,
		HasOcclusionTexture:         mat.OcclusionTexture != nil && mat.OcclusionTexture.Index != nil,
		HasEmissiveTexture:          mat.EmissiveTexture != nil,
		AlphaMode:                   material.AlphaOpaque,
		AlphaMaskThreshold:          defaultAlphaMaskCutoff,
	}
	if t := pbr.BaseColorTexture; t != nil {
		key.BaseColorUV = texCoordSet(int(t.TexCoord))
		key.HasTextureTransforms = key.HasTextureTransforms || hasExtension(t.Extensions, extTextureTransform)
	}
	if t := pbr.MetallicRoughnessTexture; t != nil {
		key.MetallicRoughnessUV = texCoordSet(int(t.TexCoord))
		key.HasTextureTransforms = key.HasTextureTransforms || hasExtension(t.Extensions, extTextureTransform)
	}
	if t := mat.NormalTexture; t != nil {
		key.NormalUV = texCoordSet(int(t.TexCoord))
		key.HasTextureTransforms = key.HasTextureTransforms || hasExtension(t.Extensions, extTextureTransform)
	}
	if t := mat.OcclusionTexture; t != nil {
		key.AoUV = texCoordSet(int(t.TexCoord))
		key.HasTextureTransforms = key.HasTextureTransforms || hasExtension(t.Extensions, extTextureTransform)
	}
	if t := mat.EmissiveTexture; t != nil {
		key.EmissiveUV = texCoordSet(int(t.TexCoord))
		key.HasTextureTransforms = key.HasTextureTransforms || hasExtension(t.Extensions, extTextureTransform)
	}

	switch mat.AlphaMode {
	case gltf.AlphaMask:
		key.AlphaMode = material.AlphaMasked
		key.AlphaMaskThreshold = float32(mat.AlphaCutoffOrDefault())
	case gltf.AlphaBlend:
		key.AlphaMode = material.AlphaTransparent
	}
	return key
}

func hasExtension(ext gltf.Extensions, name string) bool {
	_, ok := ext[name]
	return ok
}

// texCoordSet clamps a TEXCOORD index into the key's byte range; out-of-range sets are dropped by the provider.
func texCoordSet(n int) uint8 {
	if n < 0 || n > 255 {
		return 255
	}
	return uint8(n)
}

func textureIndexOf(t *gltf.TextureInfo) int {
	if t == nil {
		return -1
	}
	return int(t.Index)
}

func normalTextureIndex(t *gltf.NormalTexture) int {
	if t == nil || t.Index == nil {
		return -1
	}
	return int(*t.Index)
}

func occlusionTextureIndex(t *gltf.OcclusionTexture) int {
	if t == nil || t.Index == nil {
		return -1
	}
	return int(*t.Index)
}
