package material

import (
	"fmt"
	"strings"
)

// UvSet selects which of the two shader texture coordinate inputs a map samples from.
type UvSet uint8

const (
	UvUnused UvSet = iota
	UV0
	UV1
)

// MaxTexCoords is the number of source texture coordinate sets a UvMap can route.
const MaxTexCoords = 8

// maxUvSets is the number of texture coordinate inputs a generated material exposes.
const maxUvSets = 2

// UvMap routes each source texture coordinate set (TEXCOORD_n) to a shader UV input.
// Sets mapped to UvUnused are dropped by the importer.
type UvMap [MaxTexCoords]UvSet

// AlphaMode is the blending mode of a material.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMasked
	AlphaTransparent
)

var alphaModeNames = map[AlphaMode]string{
	AlphaOpaque:      "opaque",
	AlphaMasked:      "masked",
	AlphaTransparent: "transparent",
}

func (a AlphaMode) String() string {
	if s, ok := alphaModeNames[a]; ok {
		return s
	}
	return fmt.Sprintf("alpha(%d)", uint8(a))
}

// Key is the feature set that selects a material. Two keys that compare equal share one Material.
// The *UV fields hold source texture coordinate indices until the Provider constrains the key,
// after which they hold UvSet values.
type Key struct {
	DoubleSided                 bool
	Unlit                       bool
	HasVertexColors             bool
	HasBaseColorTexture         bool
	HasMetallicRoughnessTexture bool
	HasNormalTexture            bool
	HasOcclusionTexture         bool
	HasEmissiveTexture          bool
	HasTextureTransforms        bool
	AlphaMode                   AlphaMode
	AlphaMaskThreshold          float32
	BaseColorUV                 uint8
	MetallicRoughnessUV         uint8
	EmissiveUV                  uint8
	AoUV                        uint8
	NormalUV                    uint8
}

// Name returns a short human readable label of the key, used as the material name.
func (k Key) Name() string {
	var b strings.Builder
	if k.Unlit {
		b.WriteString("unlit")
	} else {
		b.WriteString("lit")
	}
	b.WriteString("_")
	b.WriteString(k.AlphaMode.String())
	flags := []struct {
		on   bool
		name string
	}{
		{k.DoubleSided, "ds"},
		{k.HasVertexColors, "vc"},
		{k.HasBaseColorTexture, "bc"},
		{k.HasMetallicRoughnessTexture, "mr"},
		{k.HasNormalTexture, "nrm"},
		{k.HasOcclusionTexture, "ao"},
		{k.HasEmissiveTexture, "em"},
		{k.HasTextureTransforms, "tt"},
	}
	for _, f := range flags {
		if f.on {
			b.WriteString("_")
			b.WriteString(f.name)
		}
	}
	return b.String()
}

// constrainKey limits the key to the two UV inputs a generated material has, fills uvmap with the
// routing from source sets to inputs and rewrites the *UV fields as UvSet values.
// Inputs are assigned in the order base color, metallic-roughness, normal, occlusion, emissive.
// Base color and metallic-roughness always get an input; later maps whose set would need a third
// input lose their texture flag.
//
// Returns:
//   - bool: true if no texture had to be dropped
func constrainKey(key *Key, uvmap *UvMap) bool {
	var used [MaxTexCoords]UvSet
	next := UV0
	clean := true

	assign := func(has *bool, uv uint8, alwaysAssign bool) {
		if !*has {
			return
		}
		if int(uv) >= MaxTexCoords {
			*has = false
			clean = false
			return
		}
		if used[uv] != UvUnused {
			return
		}
		if !alwaysAssign && next > maxUvSets {
			*has = false
			clean = false
			return
		}
		used[uv] = next
		next++
	}

	assign(&key.HasBaseColorTexture, key.BaseColorUV, true)
	assign(&key.HasMetallicRoughnessTexture, key.MetallicRoughnessUV, true)
	assign(&key.HasNormalTexture, key.NormalUV, false)
	assign(&key.HasOcclusionTexture, key.AoUV, false)
	assign(&key.HasEmissiveTexture, key.EmissiveUV, false)

	for i := range uvmap {
		uvmap[i] = used[i]
	}

	// channels without a texture carry no set so that equal materials produce equal keys
	remap := func(has bool, uv *uint8) {
		if !has {
			*uv = 0
			return
		}
		*uv = uint8(used[*uv])
	}
	remap(key.HasBaseColorTexture, &key.BaseColorUV)
	remap(key.HasMetallicRoughnessTexture, &key.MetallicRoughnessUV)
	remap(key.HasNormalTexture, &key.NormalUV)
	remap(key.HasOcclusionTexture, &key.AoUV)
	remap(key.HasEmissiveTexture, &key.EmissiveUV)
	return clean
}
